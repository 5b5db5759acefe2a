package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	enginemem "github.com/flowgraph/flowchart/internal/adapters/engine/memory"
	"github.com/flowgraph/flowchart/internal/app/dto"
	"github.com/flowgraph/flowchart/internal/app/script"
	"github.com/flowgraph/flowchart/pkg/flowchart"
	"github.com/google/uuid"
)

// MemoryDiagrams returns a factory backed by the in-memory engine.
func MemoryDiagrams(opts ...flowchart.Option) DiagramFactory {
	return func(cfg flowchart.Config) (*flowchart.Controller, error) {
		return flowchart.New(cfg, enginemem.New(cfg.Width, cfg.Height), opts...)
	}
}

type running struct {
	rc     *dto.ReplayContext
	cancel context.CancelFunc
}

// DefaultReplayer implements the ScriptReplayer interface
// PRINCIPLES:
// - KISS: One controller per replay, steps applied in order
// - SRP: Focuses only on replay orchestration
type DefaultReplayer struct {
	factory DiagramFactory
	store   flowchart.Store
	logger  *slog.Logger
	replays map[string]*running
	mu      sync.RWMutex
}

// NewDefaultReplayer creates a replayer. store may be nil when no request
// reads or writes documents.
func NewDefaultReplayer(factory DiagramFactory, store flowchart.Store, logger *slog.Logger) *DefaultReplayer {
	if factory == nil {
		factory = MemoryDiagrams()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultReplayer{
		factory: factory,
		store:   store,
		logger:  logger,
		replays: make(map[string]*running),
	}
}

// Replay applies req.Script to a fresh diagram. The response is returned
// even when the replay fails.
func (r *DefaultReplayer) Replay(ctx context.Context, req *dto.ReplayRequest) (*dto.ReplayResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.NeedsStore() && r.store == nil {
		return nil, dto.ErrMissingStore
	}

	ctx, cancel := context.WithTimeout(ctx, req.Config.Timeout)
	defer cancel()

	rc := &dto.ReplayContext{
		ReplayID:   uuid.NewString(),
		Script:     req.Script.Name,
		TotalSteps: len(req.Script.Steps),
		StartTime:  time.Now(),
	}
	r.mu.Lock()
	r.replays[rc.ReplayID] = &running{rc: rc, cancel: cancel}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.replays, rc.ReplayID)
		r.mu.Unlock()
	}()

	response := &dto.ReplayResponse{
		ReplayID:  rc.ReplayID,
		Script:    rc.Script,
		Status:    dto.ReplayStatusRunning,
		StartTime: rc.StartTime,
		Steps:     make([]dto.StepResult, 0, rc.TotalSteps),
	}
	logger := r.logger.With("replay_id", rc.ReplayID, "script", rc.Script)
	logger.Info("replay started", "steps", rc.TotalSteps)

	err := r.replay(ctx, req, rc, response)

	response.EndTime = time.Now()
	response.Duration = response.EndTime.Sub(response.StartTime)
	switch {
	case err == nil:
		response.Status = dto.ReplayStatusCompleted
	case errors.Is(err, dto.ErrReplayStopped):
		response.Status = dto.ReplayStatusStopped
	default:
		response.Status = dto.ReplayStatusFailed
	}
	if err != nil {
		response.Error = err.Error()
		logger.Warn("replay ended", "status", response.Status, "failed", response.Failed, "err", err)
		return response, err
	}
	logger.Info("replay completed", "nodes", response.Nodes, "edges", response.Edges, "duration", response.Duration)
	return response, nil
}

// replay runs the steps on one controller and fills the response totals.
func (r *DefaultReplayer) replay(ctx context.Context, req *dto.ReplayRequest, rc *dto.ReplayContext, response *dto.ReplayResponse) error {
	c, err := r.factory(*req.Config.Diagram)
	if err != nil {
		return err
	}
	defer c.Destroy()
	if err := c.Init(nil); err != nil {
		return err
	}
	if req.FromDocument != "" {
		if _, err := c.LoadDocument(ctx, r.store, req.FromDocument); err != nil {
			return fmt.Errorf("load %s: %w", req.FromDocument, err)
		}
	}

	var firstErr error
	for i, step := range req.Script.Steps {
		if err := ctx.Err(); err != nil {
			return stopReason(err)
		}
		result := runStep(c, i, step)
		response.Steps = append(response.Steps, result)
		r.mu.Lock()
		rc.CurrentStep = i + 1
		r.mu.Unlock()

		if result.Status == dto.StepStatusFailed {
			response.Failed++
			stepErr := fmt.Errorf("%w: step %d (%s): %s", dto.ErrStepFailed, result.StepNumber, step.Op, result.Error)
			if !req.Config.ContinueOnError {
				skip(response, req.Script.Steps[i+1:], i+1)
				return stepErr
			}
			if firstErr == nil {
				firstErr = stepErr
			}
		}
	}

	data, err := c.Export()
	if err != nil {
		return err
	}
	response.Nodes, response.Edges = len(data.Nodes), len(data.Edges)
	response.UndoSteps, response.RedoSteps = c.UndoSteps(), c.RedoSteps()
	if req.Config.IncludeData {
		response.Data = data
	}
	if firstErr != nil {
		return fmt.Errorf("%w: %d of %d steps failed: %w", dto.ErrReplayFailed, response.Failed, rc.TotalSteps, firstErr)
	}

	if req.SaveAs != "" {
		doc, err := c.SaveDocument(ctx, r.store, req.SaveAs, req.Script.Name, req.Tags...)
		if err != nil {
			return fmt.Errorf("save %s: %w", req.SaveAs, err)
		}
		response.DocumentID = doc.ID
	}
	return nil
}

func runStep(c *flowchart.Controller, i int, step script.Step) dto.StepResult {
	start := time.Now()
	result := dto.StepResult{
		StepNumber: i + 1,
		Op:         step.Op,
		Target:     dto.StepTarget(step),
		Status:     dto.StepStatusCompleted,
		StartTime:  start,
	}
	if err := script.Apply(c, step); err != nil {
		result.Status = dto.StepStatusFailed
		result.Error = err.Error()
	}
	result.Duration = time.Since(start)
	if data, err := c.Export(); err == nil {
		result.Nodes, result.Edges = len(data.Nodes), len(data.Edges)
	}
	return result
}

func skip(response *dto.ReplayResponse, rest []script.Step, offset int) {
	for i, step := range rest {
		response.Steps = append(response.Steps, dto.StepResult{
			StepNumber: offset + i + 1,
			Op:         step.Op,
			Target:     dto.StepTarget(step),
			Status:     dto.StepStatusSkipped,
		})
	}
}

func stopReason(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dto.ErrReplayTimeout
	}
	return dto.ErrReplayStopped
}

// Stop halts a running replay before its next step
func (r *DefaultReplayer) Stop(ctx context.Context, replayID string) error {
	r.mu.RLock()
	run, ok := r.replays[replayID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", dto.ErrReplayNotFound, replayID)
	}
	run.cancel()
	return nil
}

// GetStatus returns the progress of a running replay
func (r *DefaultReplayer) GetStatus(ctx context.Context, replayID string) (*dto.ReplayResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.replays[replayID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dto.ErrReplayNotFound, replayID)
	}
	return &dto.ReplayResponse{
		ReplayID:    run.rc.ReplayID,
		Script:      run.rc.Script,
		Status:      dto.ReplayStatusRunning,
		CurrentStep: run.rc.CurrentStep,
		StartTime:   run.rc.StartTime,
	}, nil
}
