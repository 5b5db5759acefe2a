package metrics

import (
	"expvar"
)

// History counters keyed by snapshot action.
var (
	historyRecorded = expvar.NewMap("flowchart_history_recorded_total")
	historyUndone   = expvar.NewMap("flowchart_history_undone_total")
	historyRedone   = expvar.NewMap("flowchart_history_redone_total")
	historyDropped  = expvar.NewMap("flowchart_history_dropped_total")
)

// Engine failure counters keyed by controller operation.
var engineFailures = expvar.NewMap("flowchart_engine_failures_total")

// Scalar counters.
var historyEvicted = new(expvar.Int)

func init() {
	expvar.Publish("flowchart_history_evicted_total", historyEvicted)
}

// History helpers
func HistoryRecorded(action string) { historyRecorded.Add(action, 1) }
func HistoryUndone(action string)   { historyUndone.Add(action, 1) }
func HistoryRedone(action string)   { historyRedone.Add(action, 1) }
func HistoryDropped(action string)  { historyDropped.Add(action, 1) }
func HistoryEvicted(n int64)        { historyEvicted.Add(n) }

// EngineFailure counts an absorbed engine failure for an operation.
func EngineFailure(op string) { engineFailures.Add(op, 1) }

// Value returns the current value of a keyed counter, or 0.
func Value(name, key string) int64 {
	m, ok := expvar.Get(name).(*expvar.Map)
	if !ok {
		return 0
	}
	v, ok := m.Get(key).(*expvar.Int)
	if !ok {
		return 0
	}
	return v.Value()
}

// Evicted returns the number of snapshots evicted by the depth cap.
func Evicted() int64 { return historyEvicted.Value() }
