package flowchart

import (
	"fmt"

	coregraph "github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/internal/core/history"
)

// Undo reverses the most recent action. It is a no-op when there is nothing
// to undo. When the engine rejects any step the action is dropped from
// history instead of being kept for redo.
func (c *Controller) Undo() error {
	if err := c.requireReady(); err != nil {
		return err
	}
	s, ok := c.log.PopUndo()
	if !ok {
		return nil
	}
	t := c.begin("undo:" + string(s.Action()))
	if err := s.Accept(undoer{t}); err != nil {
		c.dropSnapshot(t, s, err)
		return nil
	}
	c.log.PushRedo(s)
	return nil
}

// Redo re-applies the most recently undone action. It is a no-op when there
// is nothing to redo.
func (c *Controller) Redo() error {
	if err := c.requireReady(); err != nil {
		return err
	}
	s, ok := c.log.PopRedo()
	if !ok {
		return nil
	}
	t := c.begin("redo:" + string(s.Action()))
	if err := s.Accept(redoer{t}); err != nil {
		c.dropSnapshot(t, s, err)
		return nil
	}
	if cs, ok := s.(*history.CreateSnapshot); ok {
		c.addFree(cs.Node.ID)
	}
	c.log.Replay(s)
	return nil
}

func (c *Controller) dropSnapshot(t *tx, s history.Snapshot, err error) {
	t.fail("", err)
	c.log.Drop(s)
	c.logger.Warn("history entry dropped", "action", s.Action(), "err", err)
}

// undoer applies the inverse of each snapshot variant.
type undoer struct{ t *tx }

var _ history.Visitor = undoer{}

func (u undoer) VisitCreate(s *history.CreateSnapshot) error {
	return u.t.removeNode(s.Node.ID)
}

func (u undoer) VisitDelete(s *history.DeleteSnapshot) error {
	if err := u.t.addNode(s.Node); err != nil {
		return err
	}
	for _, e := range s.Edges {
		if err := u.t.addEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (u undoer) VisitUpdate(s *history.UpdateSnapshot) error {
	return u.t.updateNode(s.Before, s.After)
}

func (u undoer) VisitAddRelation(s *history.AddRelationSnapshot) error {
	return u.t.removeEdge(s.Edge)
}

func (u undoer) VisitCreateRelation(s *history.CreateRelationSnapshot) error {
	if err := u.t.removeEdge(s.Edge); err != nil {
		return err
	}
	return u.t.removeNode(s.Target.ID)
}

func (u undoer) VisitMultiNode(s *history.MultiNodeSnapshot) error {
	for _, e := range []*coregraph.Edge{s.OffEdge, s.OnEdge, s.Edge} {
		if err := u.t.removeEdge(e); err != nil {
			return err
		}
	}
	for _, n := range []*coregraph.Node{s.OffNode, s.OnNode, s.Target} {
		if err := u.t.removeNode(n.ID); err != nil {
			return err
		}
	}
	return nil
}

func (u undoer) VisitAddReback(s *history.AddRebackSnapshot) error {
	if err := u.t.updateNode(s.Before, s.Source); err != nil {
		return err
	}
	if err := u.t.removeEdge(s.Edge); err != nil {
		return err
	}
	if s.Replaced != nil {
		return u.t.addEdge(s.Replaced)
	}
	return nil
}

func (u undoer) VisitClear(s *history.ClearSnapshot) error {
	var data coregraph.Data
	if err := u.t.c.serializer.Unmarshal(s.Data, &data); err != nil {
		return fmt.Errorf("decode cleared diagram: %w", err)
	}
	if err := u.t.c.engine.ChangeData(&data); err != nil {
		return fmt.Errorf("restore cleared diagram: %w", err)
	}
	return nil
}

// redoer re-applies each snapshot variant.
type redoer struct{ t *tx }

var _ history.Visitor = redoer{}

func (r redoer) VisitCreate(s *history.CreateSnapshot) error {
	return r.t.addNode(s.Node)
}

func (r redoer) VisitDelete(s *history.DeleteSnapshot) error {
	return r.t.removeNode(s.Node.ID)
}

func (r redoer) VisitUpdate(s *history.UpdateSnapshot) error {
	return r.t.updateNode(s.After, s.Before)
}

func (r redoer) VisitAddRelation(s *history.AddRelationSnapshot) error {
	return r.t.addEdge(s.Edge)
}

func (r redoer) VisitCreateRelation(s *history.CreateRelationSnapshot) error {
	if err := r.t.addNode(s.Target); err != nil {
		return err
	}
	return r.t.addEdge(s.Edge)
}

func (r redoer) VisitMultiNode(s *history.MultiNodeSnapshot) error {
	for _, n := range []*coregraph.Node{s.Target, s.OnNode, s.OffNode} {
		if err := r.t.addNode(n); err != nil {
			return err
		}
	}
	for _, e := range []*coregraph.Edge{s.Edge, s.OnEdge, s.OffEdge} {
		if err := r.t.addEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (r redoer) VisitAddReback(s *history.AddRebackSnapshot) error {
	if s.Replaced != nil {
		if err := r.t.removeEdge(s.Replaced); err != nil {
			return err
		}
	}
	if err := r.t.addEdge(s.Edge); err != nil {
		return err
	}
	return r.t.updateNode(s.Source, s.Before)
}

func (r redoer) VisitClear(s *history.ClearSnapshot) error {
	if err := r.t.c.engine.Clear(); err != nil {
		return fmt.Errorf("clear diagram: %w", err)
	}
	return nil
}
