// Package events keeps the caller's engine event bindings and the built-in
// drag tracking that turns a node drag into an undoable update.
package events

import (
	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/internal/core/history"
)

type binding struct {
	typ graph.EventType
	fn  graph.Handler
}

// Registry is an ordered event binding table, one handler per event type.
// Binding a type again replaces its handler in place.
type Registry struct {
	bindings []binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Bind upserts the handler for t. A nil handler is ignored.
func (r *Registry) Bind(t graph.EventType, fn graph.Handler) {
	if fn == nil {
		return
	}
	for i := range r.bindings {
		if r.bindings[i].typ == t {
			r.bindings[i].fn = fn
			return
		}
	}
	r.bindings = append(r.bindings, binding{typ: t, fn: fn})
}

// Handler returns the handler bound to t.
func (r *Registry) Handler(t graph.EventType) (graph.Handler, bool) {
	for _, b := range r.bindings {
		if b.typ == t {
			return b.fn, true
		}
	}
	return nil, false
}

// Types returns bound event types in first-bind order.
func (r *Registry) Types() []graph.EventType {
	out := make([]graph.EventType, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b.typ)
	}
	return out
}

// Len returns the number of bound event types.
func (r *Registry) Len() int {
	return len(r.bindings)
}

// Recorder receives snapshots synthesized from engine events.
type Recorder func(history.Snapshot)

// Attach subscribes every binding on the engine and installs drag tracking.
// Handlers are looked up at dispatch time, so it must run exactly once per
// engine; bindings added afterwards for a type that was not yet bound never
// fire.
func (r *Registry) Attach(engine graph.Engine, record Recorder) *DragTracker {
	tracker := &DragTracker{engine: engine, record: record}
	engine.On(graph.EventNodeDragStart, tracker.start)
	engine.On(graph.EventNodeDragEnd, tracker.end)
	for _, b := range r.bindings {
		t := b.typ
		engine.On(t, func(evt graph.Event) {
			if fn, ok := r.Handler(t); ok {
				fn(evt)
			}
		})
	}
	return tracker
}

// DragTracker holds the position of the node being dragged between
// dragstart and dragend.
type DragTracker struct {
	engine graph.Engine
	record Recorder
	moving *movingNode
}

type movingNode struct {
	id   string
	x, y float64
}

// Moving returns the id of the node currently being dragged.
func (d *DragTracker) Moving() (string, bool) {
	if d.moving == nil {
		return "", false
	}
	return d.moving.id, true
}

func (d *DragTracker) start(evt graph.Event) {
	if evt.ItemID == "" {
		d.moving = nil
		return
	}
	d.moving = &movingNode{id: evt.ItemID, x: evt.X, y: evt.Y}
}

func (d *DragTracker) end(evt graph.Event) {
	if d.moving == nil || evt.ItemID != d.moving.id {
		return
	}
	start := d.moving
	d.moving = nil
	after, ok := d.engine.FindNode(start.id)
	if !ok {
		return
	}
	before := after.Clone()
	before.X, before.Y = start.x, start.y
	if d.record != nil {
		d.record(&history.UpdateSnapshot{Before: before, After: after})
	}
}
