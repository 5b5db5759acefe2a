package metrics

import (
	"expvar"
	"fmt"
	"io"
	"sort"
	"strings"
)

type meta struct {
	typ, help string
	label     string
}

var metas = map[string]meta{
	"flowchart_history_recorded_total": {typ: "counter", help: "Snapshots recorded", label: "action"},
	"flowchart_history_undone_total":   {typ: "counter", help: "Snapshots undone", label: "action"},
	"flowchart_history_redone_total":   {typ: "counter", help: "Snapshots redone", label: "action"},
	"flowchart_history_dropped_total":  {typ: "counter", help: "Snapshots dropped after a failed undo or redo", label: "action"},
	"flowchart_engine_failures_total":  {typ: "counter", help: "Absorbed engine failures", label: "op"},
	"flowchart_history_evicted_total":  {typ: "counter", help: "Snapshots evicted by the depth cap"},
}

// WritePrometheus renders the flowchart counters in Prometheus text
// exposition format. Other expvar variables are skipped.
func WritePrometheus(w io.Writer) error {
	names := make([]string, 0, len(metas))
	for name := range metas {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		m := metas[name]
		fmt.Fprintf(&b, "# HELP %s %s\n", name, m.help)
		fmt.Fprintf(&b, "# TYPE %s %s\n", name, m.typ)

		switch v := expvar.Get(name).(type) {
		case *expvar.Map:
			sub := make([]expvar.KeyValue, 0, 8)
			v.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
			sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
			for _, kv := range sub {
				fmt.Fprintf(&b, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
			}
		case *expvar.Int:
			fmt.Fprintf(&b, "%s %s\n", name, v.String())
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// escapeLabel escapes backslash, double-quote and newline per the text format.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return strings.ReplaceAll(s, "\n", "\\n")
}
