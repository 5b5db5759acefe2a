package flowchart

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/flowgraph/flowchart/internal/core/events"
	coregraph "github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/internal/core/history"
	"github.com/flowgraph/flowchart/internal/infrastructure/debounce"
	"github.com/flowgraph/flowchart/internal/infrastructure/metrics"
	"github.com/flowgraph/flowchart/pkg/serialization"
	"github.com/flowgraph/flowchart/pkg/validation"
)

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for absorbed engine failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSerializer sets the serializer for clear snapshots.
func WithSerializer(s *serialization.Serializer) Option {
	return func(c *Controller) {
		if s != nil {
			c.serializer = s
		}
	}
}

// WithClock overrides the time source used to stamp documents.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller orchestrates diagram mutations against a rendering engine and
// keeps the action log consistent with the engine state
// PRINCIPLES:
// - DIP: The engine is an explicit dependency, never a global
// - SRP: Engine owns storage and drawing, the controller owns history
// - Fail safe: Engine failures are absorbed and leave no snapshot behind
//
// A Controller is not safe for concurrent use; callers serialize.
type Controller struct {
	cfg        Config
	engine     coregraph.Engine
	logger     *slog.Logger
	serializer *serialization.Serializer
	now        func() time.Time

	registry  *events.Registry
	drag      *events.DragTracker
	log       *history.Log
	freeNodes []string
	resize    *debounce.Debouncer

	ready     bool
	destroyed bool
}

// New validates cfg and returns a controller bound to engine. The diagram is
// usable once Init has run.
func New(cfg Config, engine coregraph.Engine, opts ...Option) (*Controller, error) {
	cfg = cfg.withDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, fmt.Errorf("%w: engine is nil", ErrInvalidConfig)
	}
	c := &Controller{
		cfg:        cfg,
		engine:     engine,
		logger:     slog.Default(),
		serializer: serialization.Default(),
		now:        time.Now,
		registry:   events.NewRegistry(),
		log:        history.NewLog(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the effective configuration, defaults applied.
func (c *Controller) Config() Config {
	return c.cfg
}

// Direction returns the layout direction.
func (c *Controller) Direction() Direction {
	return Direction(c.cfg.Direction)
}

// Init loads data into the engine, seeds the free-node set with its roots,
// allocates the action log and attaches bound event handlers. A nil data set
// starts an empty diagram.
func (c *Controller) Init(data *Data) error {
	if c.destroyed {
		return ErrEngineDestroyed
	}
	if c.ready {
		return ErrAlreadyInitialized
	}
	if data == nil {
		data = &Data{}
	}
	if err := validation.ValidateData(data); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := c.engine.ChangeData(data.Clone()); err != nil {
		return fmt.Errorf("init: load data: %w", err)
	}

	c.freeNodes = data.Roots()
	c.log = history.NewLog(c.cfg.BackStep)
	c.drag = c.registry.Attach(c.engine, c.record)
	if c.cfg.FitView {
		c.resize = debounce.New(c.cfg.ResizeQuietPeriod)
	}
	c.ready = true

	c.logger.Debug("diagram initialized",
		"container", c.cfg.Container,
		"nodes", len(data.Nodes),
		"edges", len(data.Edges),
		"backStep", c.cfg.BackStep)
	return nil
}

// Ready reports whether Init has run and Destroy has not.
func (c *Controller) Ready() bool {
	return c.ready
}

func (c *Controller) requireReady() error {
	if !c.ready {
		return ErrNotInitialized
	}
	return nil
}

// record appends a completed action to the log.
func (c *Controller) record(s history.Snapshot) {
	c.log.Record(s)
}

// absorb logs an engine failure that is treated as a no-op.
func (c *Controller) absorb(op, id string, err error) {
	metrics.EngineFailure(op)
	c.logger.Error("engine operation failed", "op", op, "id", id, "err", err)
}

func (c *Controller) isFree(id string) bool {
	return slices.Contains(c.freeNodes, id)
}

func (c *Controller) addFree(id string) {
	if !c.isFree(id) {
		c.freeNodes = append(c.freeNodes, id)
	}
}

// FreeNodes returns the ids of nodes created without an inbound relation.
func (c *Controller) FreeNodes() []string {
	return slices.Clone(c.freeNodes)
}

// BindEvent registers fn for an engine event type. The last binding for a
// type wins. Types bound for the first time after Init are never attached.
func (c *Controller) BindEvent(t EventType, fn Handler) {
	if c.ready {
		if _, bound := c.registry.Handler(t); !bound {
			c.logger.Warn("event bound after init is not attached", "type", t)
		}
	}
	c.registry.Bind(t, fn)
}

// Dragging returns the id of the node being dragged, if any.
func (c *Controller) Dragging() (string, bool) {
	if c.drag == nil {
		return "", false
	}
	return c.drag.Moving()
}

// UndoSteps returns the number of actions that can be undone.
func (c *Controller) UndoSteps() int {
	return c.log.UndoSteps()
}

// RedoSteps returns the number of actions that can be redone.
func (c *Controller) RedoSteps() int {
	return c.log.RedoSteps()
}

// History returns the undoable actions, oldest first.
func (c *Controller) History() []history.Action {
	items := c.log.UndoItems()
	out := make([]history.Action, 0, len(items))
	for _, s := range items {
		out = append(out, s.Action())
	}
	return out
}

// Export returns a copy of the full node/edge set.
func (c *Controller) Export() (*Data, error) {
	if err := c.requireReady(); err != nil {
		return nil, err
	}
	return c.engine.Save(), nil
}

// Resize changes the canvas size. With FitView on, bursts of calls collapse
// into one engine resize after the quiet period.
func (c *Controller) Resize(width, height int) error {
	if err := c.requireReady(); err != nil {
		return err
	}
	apply := func() {
		if err := c.engine.ChangeSize(width, height); err != nil {
			c.absorb("changeSize", "", err)
		}
	}
	if c.resize == nil {
		apply()
		return nil
	}
	c.resize.Trigger(apply)
	return nil
}

// Destroy releases the engine and drops all history. The controller cannot
// be used afterwards.
func (c *Controller) Destroy() error {
	if err := c.requireReady(); err != nil {
		return err
	}
	if c.resize != nil {
		c.resize.Stop()
	}
	if err := c.engine.Destroy(); err != nil {
		c.absorb("destroy", "", err)
	}
	c.log.Reset()
	c.freeNodes = nil
	c.ready = false
	c.destroyed = true
	return nil
}
