package dto

import (
	"fmt"
	"time"

	"github.com/flowgraph/flowchart/internal/app/script"
	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/pkg/flowchart"
)

// DefaultTimeout bounds a replay when the request sets none.
const DefaultTimeout = time.Minute

// ReplayRequest represents a request to replay a script against a fresh diagram
type ReplayRequest struct {
	Script       *script.Script `json:"script"`
	FromDocument string         `json:"from_document,omitempty"` // Document loaded before the first step
	SaveAs       string         `json:"save_as,omitempty"`       // Document id the result is saved under
	Tags         []string       `json:"tags,omitempty"`
	Config       ReplayConfig   `json:"config"`
}

// ReplayConfig contains configuration for a replay
type ReplayConfig struct {
	Diagram         *flowchart.Config `json:"diagram,omitempty"` // Defaults to flowchart.DefaultConfig
	Timeout         time.Duration     `json:"timeout"`
	ContinueOnError bool              `json:"continue_on_error"` // Keep going after a failed step
	IncludeData     bool              `json:"include_data"`      // Attach the final diagram to the response
}

// ReplayResponse represents the outcome of a replay
type ReplayResponse struct {
	ReplayID    string        `json:"replay_id"`
	Script      string        `json:"script"`
	Status      ReplayStatus  `json:"status"`
	CurrentStep int           `json:"current_step,omitempty"` // Set while running
	Steps       []StepResult  `json:"steps"`
	Failed      int           `json:"failed"`
	Nodes       int           `json:"nodes"`
	Edges       int           `json:"edges"`
	UndoSteps   int           `json:"undo_steps"`
	RedoSteps   int           `json:"redo_steps"`
	DocumentID  string        `json:"document_id,omitempty"`
	Data        *graph.Data   `json:"data,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// ReplayStatus represents the status of a replay
type ReplayStatus string

const (
	ReplayStatusRunning   ReplayStatus = "running"
	ReplayStatusCompleted ReplayStatus = "completed"
	ReplayStatusFailed    ReplayStatus = "failed"
	ReplayStatusStopped   ReplayStatus = "stopped"
)

// StepResult represents the result of applying a single step
type StepResult struct {
	StepNumber int           `json:"step_number"`
	Op         script.Op     `json:"op"`
	Target     string        `json:"target,omitempty"`
	Status     StepStatus    `json:"status"`
	Nodes      int           `json:"nodes"`
	Edges      int           `json:"edges"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// StepStatus represents the status of a single step
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// ReplayContext holds the state of a running replay
type ReplayContext struct {
	ReplayID    string
	Script      string
	CurrentStep int
	TotalSteps  int
	StartTime   time.Time
}

// Validate validates the replay request and fills defaults
func (req *ReplayRequest) Validate() error {
	if req.Script == nil {
		return ErrMissingScript
	}
	if req.Config.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	if req.Config.Timeout == 0 {
		req.Config.Timeout = DefaultTimeout
	}
	if req.Config.Diagram == nil {
		cfg := flowchart.DefaultConfig()
		req.Config.Diagram = &cfg
	}
	if err := flowchart.ValidateConfig(*req.Config.Diagram); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// NeedsStore reports whether the request reads or writes documents.
func (req *ReplayRequest) NeedsStore() bool {
	return req.FromDocument != "" || req.SaveAs != ""
}

// StepTarget names the node a step acts on, for reporting.
func StepTarget(s script.Step) string {
	switch {
	case s.Node != nil:
		return s.Node.ID
	case s.Source != nil:
		return s.Source.ID
	case s.Expect != nil:
		return s.Expect.Of
	}
	return s.ID
}
