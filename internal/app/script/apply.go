package script

import (
	"fmt"
	"slices"

	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/pkg/flowchart"
)

// Diagram is the part of flowchart.Controller a script drives.
type Diagram interface {
	CreateNode(info graph.NodeInfo) error
	AddRelation(source, target graph.NodeInfo, mode flowchart.RelationMode) error
	UpdateNode(info graph.NodeInfo) error
	DeleteNode(id string) error
	AddReback(sourceID, targetID string) error
	GetRebackNodes(id string) ([]*graph.Node, error)
	Undo() error
	Redo() error
	Clean() error
	Resize(width, height int) error
	UndoSteps() int
	RedoSteps() int
	Export() (*graph.Data, error)
}

var _ Diagram = (*flowchart.Controller)(nil)

// Apply runs one step against d.
func Apply(d Diagram, s Step) error {
	switch s.Op {
	case OpCreate:
		return d.CreateNode(*s.Node)
	case OpRelate:
		var target graph.NodeInfo
		if s.Target != nil {
			target = *s.Target
		}
		return d.AddRelation(*s.Source, target, flowchart.RelationMode(s.Mode))
	case OpUpdate:
		return d.UpdateNode(*s.Node)
	case OpDelete:
		return d.DeleteNode(s.ID)
	case OpReback:
		return d.AddReback(s.ID, s.To)
	case OpUndo:
		return repeat(s.Times, d.Undo)
	case OpRedo:
		return repeat(s.Times, d.Redo)
	case OpClean:
		return d.Clean()
	case OpResize:
		return d.Resize(s.Width, s.Height)
	case OpExpect:
		return check(d, s.Expect)
	}
	return fmt.Errorf("unknown op %q", s.Op)
}

func repeat(times int, fn func() error) error {
	for i := 0; i < max(times, 1); i++ {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func check(d Diagram, e *Expect) error {
	data, err := d.Export()
	if err != nil {
		return err
	}
	counters := []struct {
		name string
		want *int
		got  int
	}{
		{"nodes", e.Nodes, len(data.Nodes)},
		{"edges", e.Edges, len(data.Edges)},
		{"undoSteps", e.UndoSteps, d.UndoSteps()},
		{"redoSteps", e.RedoSteps, d.RedoSteps()},
	}
	for _, c := range counters {
		if c.want != nil && *c.want != c.got {
			return fmt.Errorf("%w: %s = %d, want %d", ErrExpectationFailed, c.name, c.got, *c.want)
		}
	}

	if e.Of == "" {
		return nil
	}
	nodes, err := d.GetRebackNodes(e.Of)
	if err != nil {
		return err
	}
	got := make([]string, 0, len(nodes))
	for _, n := range nodes {
		got = append(got, n.ID)
	}
	want := slices.Clone(e.RebackNodes)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: reback nodes of %s = %v, want %v", ErrExpectationFailed, e.Of, got, want)
	}
	return nil
}
