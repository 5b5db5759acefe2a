package flowchart

import (
	"github.com/flowgraph/flowchart/internal/core/document"
	coregraph "github.com/flowgraph/flowchart/internal/core/graph"
)

// Re-export core graph types for convenience
type Node = coregraph.Node
type NodeInfo = coregraph.NodeInfo
type Edge = coregraph.Edge
type Data = coregraph.Data
type Direction = coregraph.Direction
type Engine = coregraph.Engine
type Event = coregraph.Event
type EventType = coregraph.EventType
type Handler = coregraph.Handler

// Re-export document types used by SaveDocument and LoadDocument
type Document = document.Document
type Store = document.Store
type Filter = document.Filter

const (
	Horizontal = coregraph.DirectionHorizontal
	Vertical   = coregraph.DirectionVertical
)

// Re-export domain errors so callers can match with errors.Is without
// importing internal packages.
var (
	ErrInvalidConfig      = coregraph.ErrInvalidConfig
	ErrNotInitialized     = coregraph.ErrNotInitialized
	ErrAlreadyInitialized = coregraph.ErrAlreadyInitialized
	ErrEngineDestroyed    = coregraph.ErrEngineDestroyed
	ErrNodeNotFound       = coregraph.ErrNodeNotFound
	ErrBranchTargetExists = coregraph.ErrBranchTargetExists
	ErrInvalidMode        = coregraph.ErrInvalidMode
	ErrInvalidNodeID      = coregraph.ErrInvalidNodeID
	ErrSelfLoop           = coregraph.ErrSelfLoop
	ErrDocumentNotFound   = document.ErrDocumentNotFound
)

// Float is a helper for filling optional NodeInfo fields.
func Float(v float64) *float64 { return coregraph.Float(v) }

// String is a helper for filling optional NodeInfo fields.
func String(v string) *string { return coregraph.String(v) }
