// Package graph provides the core flowchart domain entities: nodes, edges,
// the full diagram data set and the narrow interface to the rendering engine
// that owns them. It has no external dependencies.
package graph

// Direction is the primary flow axis of a diagram.
type Direction string

const (
	// DirectionHorizontal flows left to right
	DirectionHorizontal Direction = "horizontal"
	// DirectionVertical flows top to bottom
	DirectionVertical Direction = "vertical"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionHorizontal || d == DirectionVertical
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Data is the full node/edge set of a diagram
// PRINCIPLES:
// - KISS: Two ordered slices, same shape the engine saves and loads
// - YAGNI: No indexes; diagrams are small
type Data struct {
	Nodes []*Node `json:"nodes" msgpack:"nodes"`
	Edges []*Edge `json:"edges" msgpack:"edges"`
}

// Clone deep-copies the data set.
func (d *Data) Clone() *Data {
	if d == nil {
		return &Data{}
	}
	out := &Data{
		Nodes: make([]*Node, 0, len(d.Nodes)),
		Edges: make([]*Edge, 0, len(d.Edges)),
	}
	for _, n := range d.Nodes {
		out.Nodes = append(out.Nodes, n.Clone())
	}
	for _, e := range d.Edges {
		out.Edges = append(out.Edges, e.Clone())
	}
	return out
}

// Node returns the node with the given id.
func (d *Data) Node(id string) (*Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Edge returns the edge with the given id.
func (d *Data) Edge(id string) (*Edge, bool) {
	for _, e := range d.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// IncidentEdges returns every edge touching the node, in stored order.
func (d *Data) IncidentEdges(id string) []*Edge {
	var out []*Edge
	for _, e := range d.Edges {
		if e.Source == id || e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Roots returns the ids of nodes without an inbound forward edge. Backflow
// edges do not count as inbound relations.
func (d *Data) Roots() []string {
	inbound := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if !e.IsReback() {
			inbound[e.Target] = true
		}
	}
	var roots []string
	for _, n := range d.Nodes {
		if !inbound[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// Validate ensures the data set is self-consistent: unique ids and edges
// whose endpoints exist.
func (d *Data) Validate() error {
	nodes := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if n == nil {
			return ErrNilNode
		}
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := nodes[n.ID]; dup {
			return ErrDuplicateNode
		}
		nodes[n.ID] = struct{}{}
	}
	edges := make(map[string]struct{}, len(d.Edges))
	for _, e := range d.Edges {
		if e == nil {
			return ErrNilEdge
		}
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := edges[e.ID]; dup {
			return ErrDuplicateEdge
		}
		edges[e.ID] = struct{}{}
		if _, ok := nodes[e.Source]; !ok {
			return ErrInvalidSource
		}
		if _, ok := nodes[e.Target]; !ok {
			return ErrInvalidTarget
		}
	}
	return nil
}
