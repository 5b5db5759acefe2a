package usecases

import (
	"context"

	"github.com/flowgraph/flowchart/internal/app/dto"
	"github.com/flowgraph/flowchart/pkg/flowchart"
)

// ScriptReplayer defines the interface for replaying scripts
// PRINCIPLES:
// - SRP: Single responsibility for replay orchestration
// - DIP: Depends on abstractions, not concretions
type ScriptReplayer interface {
	// Replay applies a script to a fresh diagram
	Replay(ctx context.Context, req *dto.ReplayRequest) (*dto.ReplayResponse, error)

	// Stop halts a running replay
	Stop(ctx context.Context, replayID string) error

	// GetStatus returns the progress of a running replay
	GetStatus(ctx context.Context, replayID string) (*dto.ReplayResponse, error)
}

// DiagramFactory builds an uninitialized controller for a replay.
type DiagramFactory func(cfg flowchart.Config) (*flowchart.Controller, error)
