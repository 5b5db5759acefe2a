// Package memory provides an in-memory graph engine: node and edge storage,
// event dispatch and path queries without any drawing. It backs the CLI and
// the tests of everything built on graph.Engine.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/flowgraph/flowchart/internal/core/graph"
)

// ErrInjected is returned by operations failed through Fail.
var ErrInjected = errors.New("injected engine failure")

// Op names an engine mutation for fault injection.
type Op string

const (
	OpAddNode    Op = "addNode"
	OpAddEdge    Op = "addEdge"
	OpUpdateNode Op = "updateNode"
	OpRemoveItem Op = "removeItem"
	OpChangeData Op = "changeData"
	OpClear      Op = "clear"
	OpChangeSize Op = "changeSize"
)

type fault struct {
	op Op
	id string
}

// Engine is a thread-safe in-memory graph.Engine
// PRINCIPLES:
// - KISS: Map storage plus insertion order, nothing is drawn
// - SRP: Only responsible for holding and querying the graph
// - Thread-safe
type Engine struct {
	mu        sync.RWMutex
	nodes     map[string]*graph.Node
	edges     map[string]*graph.Edge
	nodeOrder []string
	edgeOrder []string
	handlers  map[graph.EventType][]graph.Handler
	faults    []fault
	width     int
	height    int
	destroyed bool
}

var _ graph.Engine = (*Engine)(nil)

// New creates an empty engine with the given canvas size.
func New(width, height int) *Engine {
	return &Engine{
		nodes:    make(map[string]*graph.Node),
		edges:    make(map[string]*graph.Edge),
		handlers: make(map[graph.EventType][]graph.Handler),
		width:    width,
		height:   height,
	}
}

// Fail makes every later op on id fail with ErrInjected. An empty id
// matches any item.
func (e *Engine) Fail(op Op, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.faults = append(e.faults, fault{op: op, id: id})
}

// Heal removes all injected faults.
func (e *Engine) Heal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.faults = nil
}

func (e *Engine) check(op Op, id string) error {
	if e.destroyed {
		return graph.ErrEngineDestroyed
	}
	for _, f := range e.faults {
		if f.op == op && (f.id == "" || f.id == id) {
			return fmt.Errorf("%s %q: %w", op, id, ErrInjected)
		}
	}
	return nil
}

func (e *Engine) AddNode(n *graph.Node) error {
	if n == nil {
		return graph.ErrNilNode
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpAddNode, n.ID); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if _, ok := e.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", graph.ErrDuplicateNode, n.ID)
	}
	e.nodes[n.ID] = n.Clone()
	e.nodeOrder = append(e.nodeOrder, n.ID)
	return nil
}

func (e *Engine) AddEdge(edge *graph.Edge) error {
	if edge == nil {
		return graph.ErrNilEdge
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpAddEdge, edge.ID); err != nil {
		return err
	}
	if err := edge.Validate(); err != nil {
		return err
	}
	if _, ok := e.edges[edge.ID]; ok {
		return fmt.Errorf("%w: %s", graph.ErrDuplicateEdge, edge.ID)
	}
	if _, ok := e.nodes[edge.Source]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrInvalidSource, edge.Source)
	}
	if _, ok := e.nodes[edge.Target]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrInvalidTarget, edge.Target)
	}
	e.edges[edge.ID] = edge.Clone()
	e.edgeOrder = append(e.edgeOrder, edge.ID)
	return nil
}

func (e *Engine) UpdateNode(n *graph.Node) error {
	if n == nil {
		return graph.ErrNilNode
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpUpdateNode, n.ID); err != nil {
		return err
	}
	if err := n.Validate(); err != nil {
		return err
	}
	if _, ok := e.nodes[n.ID]; !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, n.ID)
	}
	e.nodes[n.ID] = n.Clone()
	return nil
}

func (e *Engine) RemoveItem(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpRemoveItem, id); err != nil {
		return err
	}
	if _, ok := e.nodes[id]; ok {
		for _, eid := range append([]string(nil), e.edgeOrder...) {
			edge := e.edges[eid]
			if edge.Source == id || edge.Target == id {
				e.removeEdge(eid)
			}
		}
		delete(e.nodes, id)
		e.nodeOrder = without(e.nodeOrder, id)
		return nil
	}
	if _, ok := e.edges[id]; ok {
		e.removeEdge(id)
		return nil
	}
	return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
}

func (e *Engine) removeEdge(id string) {
	delete(e.edges, id)
	e.edgeOrder = without(e.edgeOrder, id)
}

func (e *Engine) FindNode(id string) (*graph.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

func (e *Engine) FindEdge(id string) (*graph.Edge, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	edge, ok := e.edges[id]
	if !ok {
		return nil, false
	}
	return edge.Clone(), true
}

func (e *Engine) Save() *graph.Data {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d := &graph.Data{
		Nodes: make([]*graph.Node, 0, len(e.nodeOrder)),
		Edges: make([]*graph.Edge, 0, len(e.edgeOrder)),
	}
	for _, id := range e.nodeOrder {
		d.Nodes = append(d.Nodes, e.nodes[id].Clone())
	}
	for _, id := range e.edgeOrder {
		d.Edges = append(d.Edges, e.edges[id].Clone())
	}
	return d
}

func (e *Engine) ChangeData(d *graph.Data) error {
	if d == nil {
		d = &graph.Data{}
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("change data: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpChangeData, ""); err != nil {
		return err
	}
	e.reset()
	for _, n := range d.Nodes {
		e.nodes[n.ID] = n.Clone()
		e.nodeOrder = append(e.nodeOrder, n.ID)
	}
	for _, edge := range d.Edges {
		e.edges[edge.ID] = edge.Clone()
		e.edgeOrder = append(e.edgeOrder, edge.ID)
	}
	return nil
}

func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpClear, ""); err != nil {
		return err
	}
	e.reset()
	return nil
}

func (e *Engine) reset() {
	e.nodes = make(map[string]*graph.Node)
	e.edges = make(map[string]*graph.Edge)
	e.nodeOrder = nil
	e.edgeOrder = nil
}

func (e *Engine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return graph.ErrEngineDestroyed
	}
	e.reset()
	e.handlers = make(map[graph.EventType][]graph.Handler)
	e.destroyed = true
	return nil
}

// Destroyed reports whether Destroy has been called.
func (e *Engine) Destroyed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.destroyed
}

func (e *Engine) ChangeSize(width, height int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(OpChangeSize, ""); err != nil {
		return err
	}
	e.width, e.height = width, height
	return nil
}

// Size returns the current canvas size.
func (e *Engine) Size() (width, height int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.width, e.height
}

func (e *Engine) On(t graph.EventType, h graph.Handler) {
	if h == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.handlers[t] = append(e.handlers[t], h)
}

// Emit dispatches evt to every handler subscribed to its type, in
// subscription order. Handlers run outside the engine lock.
func (e *Engine) Emit(evt graph.Event) {
	e.mu.RLock()
	hs := append([]graph.Handler(nil), e.handlers[evt.Type]...)
	e.mu.RUnlock()
	for _, h := range hs {
		h(evt)
	}
}

// Move sets a node position the way a pointer drag would, without going
// through UpdateNode fault rules.
func (e *Engine) Move(id string, x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	n.X, n.Y = x, y
	return nil
}

// AllSimplePaths walks outgoing edges depth first and returns every path
// from one node to another that visits no node twice.
func (e *Engine) AllSimplePaths(from, to string) [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.nodes[from]; !ok {
		return nil
	}
	if _, ok := e.nodes[to]; !ok {
		return nil
	}

	out := make(map[string][]string, len(e.nodes))
	for _, id := range e.edgeOrder {
		edge := e.edges[id]
		out[edge.Source] = append(out[edge.Source], edge.Target)
	}

	var paths [][]string
	visited := map[string]bool{from: true}
	path := []string{from}
	var walk func(cur string)
	walk = func(cur string) {
		if cur == to {
			paths = append(paths, append([]string(nil), path...))
			return
		}
		for _, next := range out[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			path = append(path, next)
			walk(next)
			path = path[:len(path)-1]
			visited[next] = false
		}
	}
	walk(from)
	return paths
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
