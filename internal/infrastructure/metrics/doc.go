// Package metrics exposes expvar-published counters for the flowchart core:
// action log activity (recorded, evicted, undone, redone, dropped snapshots)
// and absorbed engine failures. Values show up under /debug/vars for any
// binary that mounts expvar's handler.
package metrics
