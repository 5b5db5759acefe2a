// Package graph provides node definitions
package graph

import "maps"

// Node defaults applied when a caller leaves a field unset.
const (
	DefaultNodeType = "node"
	DefaultNodeSize = 100.0
	DefaultNodeX    = 100.0
	DefaultNodeY    = 100.0
)

// Anchor indices into the default anchor point list.
const (
	AnchorTop    = 0
	AnchorRight  = 1
	AnchorBottom = 2
	AnchorLeft   = 3
)

// AnchorPoint is a connection point expressed as a fraction of the node's box.
type AnchorPoint [2]float64

// DefaultAnchorPoints returns the four cardinal anchors: top, right, bottom, left.
func DefaultAnchorPoints() []AnchorPoint {
	return []AnchorPoint{{0.5, 0}, {1, 0.5}, {0.5, 1}, {0, 0.5}}
}

// Reback names the node a node currently flows back into.
type Reback struct {
	ID string `json:"id" msgpack:"id"`
}

// Node is a flowchart vertex as stored in the rendering engine
// PRINCIPLES:
// - KISS: Plain record, no behaviour beyond copying
// - SRP: Only responsible for node data
type Node struct {
	ID           string                 `json:"id" msgpack:"id"`
	Type         string                 `json:"type,omitempty" msgpack:"type,omitempty"`
	X            float64                `json:"x" msgpack:"x"`
	Y            float64                `json:"y" msgpack:"y"`
	Size         float64                `json:"size" msgpack:"size"`
	AnchorPoints []AnchorPoint          `json:"anchorPoints,omitempty" msgpack:"anchorPoints,omitempty"`
	Label        string                 `json:"label,omitempty" msgpack:"label,omitempty"`
	Style        map[string]interface{} `json:"style,omitempty" msgpack:"style"`
	Extra        map[string]interface{} `json:"extra,omitempty" msgpack:"extra"`
	Reback       *Reback                `json:"reback,omitempty" msgpack:"reback,omitempty"`
}

// Clone returns a copy that shares nothing mutable at the top level with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.AnchorPoints != nil {
		c.AnchorPoints = append([]AnchorPoint(nil), n.AnchorPoints...)
	}
	c.Style = maps.Clone(n.Style)
	c.Extra = maps.Clone(n.Extra)
	if n.Reback != nil {
		r := *n.Reback
		c.Reback = &r
	}
	return &c
}

// Position returns the node coordinates.
func (n *Node) Position() Point {
	return Point{X: n.X, Y: n.Y}
}

// Validate ensures node integrity
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if n.Reback != nil && n.Reback.ID == n.ID {
		return ErrSelfLoop
	}
	return nil
}

// NodeInfo is caller input for creating or updating a node. Nil pointers
// mean "unset" so defaults and partial updates can be told apart from zero.
type NodeInfo struct {
	ID           string                 `json:"id" yaml:"id"`
	Type         string                 `json:"type,omitempty" yaml:"type,omitempty"`
	X            *float64               `json:"x,omitempty" yaml:"x,omitempty"`
	Y            *float64               `json:"y,omitempty" yaml:"y,omitempty"`
	Size         *float64               `json:"size,omitempty" yaml:"size,omitempty"`
	AnchorPoints []AnchorPoint          `json:"anchorPoints,omitempty" yaml:"anchorPoints,omitempty"`
	Label        *string                `json:"label,omitempty" yaml:"label,omitempty"`
	Style        map[string]interface{} `json:"style,omitempty" yaml:"style,omitempty"`
	Extra        map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Float is a helper for filling optional NodeInfo fields.
func Float(v float64) *float64 { return &v }

// String is a helper for filling optional NodeInfo fields.
func String(v string) *string { return &v }

// InfoOf converts a stored node back into fully populated caller input.
func InfoOf(n *Node) NodeInfo {
	return NodeInfo{
		ID:           n.ID,
		Type:         n.Type,
		X:            Float(n.X),
		Y:            Float(n.Y),
		Size:         Float(n.Size),
		AnchorPoints: append([]AnchorPoint(nil), n.AnchorPoints...),
		Label:        String(n.Label),
		Style:        maps.Clone(n.Style),
		Extra:        maps.Clone(n.Extra),
	}
}

// NewNode builds a complete node record, applying defaults for unset fields.
func NewNode(info NodeInfo) *Node {
	n := &Node{
		ID:           info.ID,
		Type:         info.Type,
		X:            DefaultNodeX,
		Y:            DefaultNodeY,
		Size:         DefaultNodeSize,
		AnchorPoints: info.AnchorPoints,
		Style:        maps.Clone(info.Style),
		Extra:        maps.Clone(info.Extra),
	}
	if n.Type == "" {
		n.Type = DefaultNodeType
	}
	if info.X != nil {
		n.X = *info.X
	}
	if info.Y != nil {
		n.Y = *info.Y
	}
	if info.Size != nil {
		n.Size = *info.Size
	}
	if len(n.AnchorPoints) == 0 {
		n.AnchorPoints = DefaultAnchorPoints()
	}
	if info.Label != nil {
		n.Label = *info.Label
	}
	if n.Extra == nil {
		n.Extra = map[string]interface{}{}
	}
	return n
}

// Merge returns a copy of n with every set field of patch applied. Style and
// Extra maps are merged key by key.
func (n *Node) Merge(patch NodeInfo) *Node {
	c := n.Clone()
	if patch.Type != "" {
		c.Type = patch.Type
	}
	if patch.X != nil {
		c.X = *patch.X
	}
	if patch.Y != nil {
		c.Y = *patch.Y
	}
	if patch.Size != nil {
		c.Size = *patch.Size
	}
	if len(patch.AnchorPoints) > 0 {
		c.AnchorPoints = append([]AnchorPoint(nil), patch.AnchorPoints...)
	}
	if patch.Label != nil {
		c.Label = *patch.Label
	}
	c.Style = mergeMap(c.Style, patch.Style)
	c.Extra = mergeMap(c.Extra, patch.Extra)
	return c
}

func mergeMap(dst, src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
