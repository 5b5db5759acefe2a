// Package graph defines domain-specific errors
package graph

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Lifecycle errors
	ErrNotInitialized     = errors.New("diagram not initialized: call Init first")
	ErrAlreadyInitialized = errors.New("diagram already initialized")
	ErrInvalidConfig      = errors.New("invalid diagram config")

	// Reference errors
	ErrNodeNotFound       = errors.New("node not found")
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrBranchTargetExists = errors.New("branch relation requires a new target node")
	ErrInvalidMode        = errors.New("invalid relation mode")

	// Node errors
	ErrNilNode       = errors.New("node cannot be nil")
	ErrInvalidNodeID = errors.New("invalid node ID")
	ErrDuplicateNode = errors.New("duplicate node ID")

	// Edge errors
	ErrNilEdge       = errors.New("edge cannot be nil")
	ErrInvalidEdgeID = errors.New("invalid edge ID")
	ErrInvalidSource = errors.New("invalid source node")
	ErrInvalidTarget = errors.New("invalid target node")
	ErrDuplicateEdge = errors.New("duplicate edge ID")
	ErrSelfLoop      = errors.New("self-loops are not allowed")

	// Engine errors
	ErrEngineDestroyed = errors.New("graph engine destroyed")
)
