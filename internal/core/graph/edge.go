// Package graph provides edge definitions
package graph

import "strings"

// EdgeType selects the draw variant of an edge
type EdgeType string

const (
	// EdgeTypeLine is a plain forward relation
	EdgeTypeLine EdgeType = "line"

	mutexPrefix  = "mutex-line-"
	rebackPrefix = "reback-line-"
)

// MutexEdgeType returns the branch edge variant for a layout direction.
func MutexEdgeType(dir Direction) EdgeType {
	return EdgeType(mutexPrefix + string(dir))
}

// RebackEdgeType returns the backflow edge variant for a layout direction.
func RebackEdgeType(dir Direction) EdgeType {
	return EdgeType(rebackPrefix + string(dir))
}

// Edge is a connection between two nodes
// PRINCIPLES:
// - KISS: Simple edge representation
// - SRP: Only responsible for edge data
type Edge struct {
	ID           string   `json:"id" msgpack:"id"`
	Source       string   `json:"source" msgpack:"source"`
	Target       string   `json:"target" msgpack:"target"`
	Type         EdgeType `json:"type,omitempty" msgpack:"type,omitempty"`
	SourceAnchor *int     `json:"sourceAnchor,omitempty" msgpack:"sourceAnchor,omitempty"`
	TargetAnchor *int     `json:"targetAnchor,omitempty" msgpack:"targetAnchor,omitempty"`
}

// Validate ensures edge integrity
func (e *Edge) Validate() error {
	if e.ID == "" {
		return ErrInvalidEdgeID
	}
	if e.Source == "" {
		return ErrInvalidSource
	}
	if e.Target == "" {
		return ErrInvalidTarget
	}
	if e.Source == e.Target {
		return ErrSelfLoop
	}
	return nil
}

// IsMutex reports whether the edge is one outcome of a branch split.
func (e *Edge) IsMutex() bool {
	return strings.HasPrefix(string(e.Type), mutexPrefix)
}

// IsReback reports whether the edge is a backflow edge.
func (e *Edge) IsReback() bool {
	return strings.HasPrefix(string(e.Type), rebackPrefix)
}

// Clone returns a copy of e.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}
	c := *e
	if e.SourceAnchor != nil {
		v := *e.SourceAnchor
		c.SourceAnchor = &v
	}
	if e.TargetAnchor != nil {
		v := *e.TargetAnchor
		c.TargetAnchor = &v
	}
	return &c
}

// Anchor is a helper for filling optional anchor indices.
func Anchor(i int) *int { return &i }
