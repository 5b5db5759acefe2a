package flowchart

import (
	"fmt"

	coregraph "github.com/flowgraph/flowchart/internal/core/graph"
)

// tx applies engine primitives one at a time and remembers how to reverse
// each applied step, so a multi-step mutation that fails halfway can be
// unwound before anything is recorded.
type tx struct {
	c    *Controller
	op   string
	undo []func() error
}

func (c *Controller) begin(op string) *tx {
	return &tx{c: c, op: op}
}

func (t *tx) addNode(n *coregraph.Node) error {
	if err := t.c.engine.AddNode(n.Clone()); err != nil {
		return fmt.Errorf("add node %s: %w", n.ID, err)
	}
	id := n.ID
	t.undo = append(t.undo, func() error { return t.c.engine.RemoveItem(id) })
	return nil
}

func (t *tx) addEdge(e *coregraph.Edge) error {
	if err := t.c.engine.AddEdge(e.Clone()); err != nil {
		return fmt.Errorf("add edge %s: %w", e.ID, err)
	}
	id := e.ID
	t.undo = append(t.undo, func() error { return t.c.engine.RemoveItem(id) })
	return nil
}

func (t *tx) updateNode(after, before *coregraph.Node) error {
	if err := t.c.engine.UpdateNode(after.Clone()); err != nil {
		return fmt.Errorf("update node %s: %w", after.ID, err)
	}
	prev := before.Clone()
	t.undo = append(t.undo, func() error { return t.c.engine.UpdateNode(prev.Clone()) })
	return nil
}

// removeEdge removes an edge; reversing it adds the edge back.
func (t *tx) removeEdge(e *coregraph.Edge) error {
	if err := t.c.engine.RemoveItem(e.ID); err != nil {
		return fmt.Errorf("remove edge %s: %w", e.ID, err)
	}
	prev := e.Clone()
	t.undo = append(t.undo, func() error { return t.c.engine.AddEdge(prev.Clone()) })
	return nil
}

// removeNode removes a node and the edges the engine drops with it;
// reversing it restores both.
func (t *tx) removeNode(id string) error {
	n, ok := t.c.engine.FindNode(id)
	if !ok {
		return fmt.Errorf("remove node %s: %w", id, coregraph.ErrNodeNotFound)
	}
	edges := t.c.engine.Save().IncidentEdges(id)
	if err := t.c.engine.RemoveItem(id); err != nil {
		return fmt.Errorf("remove node %s: %w", id, err)
	}
	t.undo = append(t.undo, func() error {
		if err := t.c.engine.AddNode(n.Clone()); err != nil {
			return err
		}
		for _, e := range edges {
			if err := t.c.engine.AddEdge(e.Clone()); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// fail reverses every applied step, newest first, and logs the failure.
func (t *tx) fail(id string, err error) {
	for i := len(t.undo) - 1; i >= 0; i-- {
		if rerr := t.undo[i](); rerr != nil {
			t.c.logger.Error("rollback step failed", "op", t.op, "id", id, "err", rerr)
		}
	}
	t.undo = nil
	t.c.absorb(t.op, id, err)
}
