package history

import (
	"github.com/flowgraph/flowchart/internal/core/deque"
	"github.com/flowgraph/flowchart/internal/infrastructure/metrics"
)

// Log keeps undo-history and redo-history, each capped at maxStep entries.
// A Log built with maxStep <= 0 allocates nothing and ignores every call.
//
// Recording a new action pushes onto undo-history and clears redo-history:
// a fresh action invalidates any previously undone future.
type Log struct {
	maxStep int
	undo    *deque.Deque[Snapshot]
	redo    *deque.Deque[Snapshot]
}

// NewLog creates an action log retaining at most maxStep snapshots per side.
func NewLog(maxStep int) *Log {
	if maxStep <= 0 {
		return &Log{}
	}
	return &Log{
		maxStep: maxStep,
		undo:    deque.New[Snapshot](),
		redo:    deque.New[Snapshot](),
	}
}

// Enabled reports whether undo/redo is active.
func (l *Log) Enabled() bool {
	return l != nil && l.undo != nil
}

// MaxStep returns the configured depth.
func (l *Log) MaxStep() int {
	if l == nil {
		return 0
	}
	return l.maxStep
}

// Record appends a new user action and clears redo-history.
func (l *Log) Record(s Snapshot) {
	if !l.Enabled() || s == nil {
		return
	}
	l.pushUndo(s)
	l.redo.Clear()
	metrics.HistoryRecorded(string(s.Action()))
}

// Replay pushes a snapshot that was just redone back onto undo-history. The
// depth cap applies; redo-history is left as is since the remaining entries
// are still a valid future.
func (l *Log) Replay(s Snapshot) {
	if !l.Enabled() || s == nil {
		return
	}
	l.pushUndo(s)
	metrics.HistoryRedone(string(s.Action()))
}

// PushRedo moves a snapshot that was just undone onto redo-history.
func (l *Log) PushRedo(s Snapshot) {
	if !l.Enabled() || s == nil {
		return
	}
	l.redo.Push(s)
	for l.redo.Size() > l.maxStep {
		l.redo.Shift()
	}
	metrics.HistoryUndone(string(s.Action()))
}

// PopUndo removes the most recent undoable snapshot.
func (l *Log) PopUndo() (Snapshot, bool) {
	if !l.Enabled() {
		return nil, false
	}
	return l.undo.Pop()
}

// PopRedo removes the most recently undone snapshot.
func (l *Log) PopRedo() (Snapshot, bool) {
	if !l.Enabled() {
		return nil, false
	}
	return l.redo.Pop()
}

// Drop accounts for a popped snapshot whose inverse or replay failed. The
// snapshot is not referenced anywhere afterwards.
func (l *Log) Drop(s Snapshot) {
	if s == nil {
		return
	}
	metrics.HistoryDropped(string(s.Action()))
}

// UndoSteps returns how many actions can be undone.
func (l *Log) UndoSteps() int {
	if !l.Enabled() {
		return 0
	}
	return l.undo.Size()
}

// RedoSteps returns how many actions can be redone.
func (l *Log) RedoSteps() int {
	if !l.Enabled() {
		return 0
	}
	return l.redo.Size()
}

// UndoItems returns undo-history oldest first.
func (l *Log) UndoItems() []Snapshot {
	if !l.Enabled() {
		return nil
	}
	return l.undo.Items()
}

// Reset empties both histories.
func (l *Log) Reset() {
	if !l.Enabled() {
		return
	}
	l.undo.Clear()
	l.redo.Clear()
}

func (l *Log) pushUndo(s Snapshot) {
	l.undo.Push(s)
	var evicted int64
	for l.undo.Size() > l.maxStep {
		l.undo.Shift()
		evicted++
	}
	if evicted > 0 {
		metrics.HistoryEvicted(evicted)
	}
}
