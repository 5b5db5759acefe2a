// Package history holds the action log behind undo/redo: a tagged snapshot
// per completed mutation, kept in two bounded deques.
package history

import "github.com/flowgraph/flowchart/internal/core/graph"

// Action is the tag of a snapshot.
type Action string

const (
	ActionCreate         Action = "create"
	ActionDelete         Action = "delete"
	ActionUpdate         Action = "update"
	ActionAddRelation    Action = "addRelation"
	ActionCreateRelation Action = "createRelation"
	ActionMultiNode      Action = "multiNode"
	ActionAddReback      Action = "addReback"
	ActionClear          Action = "clear"
)

// Snapshot is an immutable record of one completed mutation, sufficient to
// reverse or replay it. The set of variants is closed by the unexported
// snapshot method; Accept dispatches to the matching Visitor method so a
// visitor missing a case does not compile.
type Snapshot interface {
	Action() Action
	Accept(v Visitor) error
	snapshot()
}

// Visitor has one method per snapshot variant.
type Visitor interface {
	VisitCreate(s *CreateSnapshot) error
	VisitDelete(s *DeleteSnapshot) error
	VisitUpdate(s *UpdateSnapshot) error
	VisitAddRelation(s *AddRelationSnapshot) error
	VisitCreateRelation(s *CreateRelationSnapshot) error
	VisitMultiNode(s *MultiNodeSnapshot) error
	VisitAddReback(s *AddRebackSnapshot) error
	VisitClear(s *ClearSnapshot) error
}

// CreateSnapshot records a node created on its own.
type CreateSnapshot struct {
	Node *graph.Node
}

// DeleteSnapshot records a removed node together with the edges the engine
// removed along with it.
type DeleteSnapshot struct {
	Node  *graph.Node
	Edges []*graph.Edge
}

// UpdateSnapshot holds full before and after states; updates are reversed by
// restoring state, not by an inverse operation.
type UpdateSnapshot struct {
	Before *graph.Node
	After  *graph.Node
}

// AddRelationSnapshot records an edge to a target that already existed.
type AddRelationSnapshot struct {
	Edge *graph.Edge
}

// CreateRelationSnapshot records an edge to a newly created target.
type CreateRelationSnapshot struct {
	Source graph.NodeInfo
	Target *graph.Node
	Edge   *graph.Edge
}

// MultiNodeSnapshot records a branch: the new target, the two outcome nodes
// and the three edges joining them.
type MultiNodeSnapshot struct {
	Source  graph.NodeInfo
	Target  *graph.Node
	Edge    *graph.Edge
	OnNode  *graph.Node
	OnEdge  *graph.Edge
	OffNode *graph.Node
	OffEdge *graph.Edge
}

// AddRebackSnapshot records a backflow edge. Source carries the new reback
// value, Before the source as it was. Replaced is the backflow edge that was
// removed to make room, if any.
type AddRebackSnapshot struct {
	Edge     *graph.Edge
	Source   *graph.Node
	Before   *graph.Node
	Replaced *graph.Edge
}

// ClearSnapshot holds the serialized node/edge set prior to clearing.
type ClearSnapshot struct {
	Data  []byte
	Nodes int
	Edges int
}

func (s *CreateSnapshot) Action() Action         { return ActionCreate }
func (s *DeleteSnapshot) Action() Action         { return ActionDelete }
func (s *UpdateSnapshot) Action() Action         { return ActionUpdate }
func (s *AddRelationSnapshot) Action() Action    { return ActionAddRelation }
func (s *CreateRelationSnapshot) Action() Action { return ActionCreateRelation }
func (s *MultiNodeSnapshot) Action() Action      { return ActionMultiNode }
func (s *AddRebackSnapshot) Action() Action      { return ActionAddReback }
func (s *ClearSnapshot) Action() Action          { return ActionClear }

func (s *CreateSnapshot) Accept(v Visitor) error         { return v.VisitCreate(s) }
func (s *DeleteSnapshot) Accept(v Visitor) error         { return v.VisitDelete(s) }
func (s *UpdateSnapshot) Accept(v Visitor) error         { return v.VisitUpdate(s) }
func (s *AddRelationSnapshot) Accept(v Visitor) error    { return v.VisitAddRelation(s) }
func (s *CreateRelationSnapshot) Accept(v Visitor) error { return v.VisitCreateRelation(s) }
func (s *MultiNodeSnapshot) Accept(v Visitor) error      { return v.VisitMultiNode(s) }
func (s *AddRebackSnapshot) Accept(v Visitor) error      { return v.VisitAddReback(s) }
func (s *ClearSnapshot) Accept(v Visitor) error          { return v.VisitClear(s) }

func (*CreateSnapshot) snapshot()         {}
func (*DeleteSnapshot) snapshot()         {}
func (*UpdateSnapshot) snapshot()         {}
func (*AddRelationSnapshot) snapshot()    {}
func (*CreateRelationSnapshot) snapshot() {}
func (*MultiNodeSnapshot) snapshot()      {}
func (*AddRebackSnapshot) snapshot()      {}
func (*ClearSnapshot) snapshot()          {}
