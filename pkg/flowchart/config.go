package flowchart

import (
	"fmt"
	"time"

	"github.com/flowgraph/flowchart/internal/infrastructure/debounce"
	"github.com/flowgraph/flowchart/pkg/validation"
)

// Color defaults applied when a config leaves them empty.
const (
	DefaultNodeColor = "#FFFFFF"
	DefaultEdgeColor = "#000A34"
)

// Config describes one diagram instance.
type Config struct {
	Container string `json:"container" mapstructure:"container" yaml:"container" validate:"required"`
	Direction string `json:"direction" mapstructure:"direction" yaml:"direction" validate:"required,direction"`
	Width     int    `json:"width" mapstructure:"width" yaml:"width" validate:"required,gt=0"`
	Height    int    `json:"height" mapstructure:"height" yaml:"height" validate:"required,gt=0"`
	Renderer  string `json:"renderer" mapstructure:"renderer" yaml:"renderer" validate:"required,renderer"`

	// BackStep is the undo/redo depth; <= 0 disables history.
	BackStep      int    `json:"backStep" mapstructure:"back_step" yaml:"backStep"`
	BaseNodeColor string `json:"baseNodeColor" mapstructure:"base_node_color" yaml:"baseNodeColor" validate:"omitempty,hexcolor"`
	BaseEdgeColor string `json:"baseEdgeColor" mapstructure:"base_edge_color" yaml:"baseEdgeColor" validate:"omitempty,hexcolor"`

	// FitView resizes the canvas after Resize calls settle.
	FitView           bool          `json:"fitView" mapstructure:"fit_view" yaml:"fitView"`
	ResizeQuietPeriod time.Duration `json:"resizeQuietPeriod" mapstructure:"resize_quiet_period" yaml:"resizeQuietPeriod" validate:"gte=0"`
}

// DefaultConfig returns a valid horizontal svg config with a ten step history.
func DefaultConfig() Config {
	return Config{
		Container: "flowchart",
		Direction: string(Horizontal),
		Width:     1200,
		Height:    800,
		Renderer:  "svg",
		BackStep:  10,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.BaseNodeColor == "" {
		c.BaseNodeColor = DefaultNodeColor
	}
	if c.BaseEdgeColor == "" {
		c.BaseEdgeColor = DefaultEdgeColor
	}
	if c.ResizeQuietPeriod == 0 {
		c.ResizeQuietPeriod = debounce.DefaultQuietPeriod
	}
	return c
}

// ValidateConfig checks required keys and enumerations. The returned error
// wraps ErrInvalidConfig and validation.ValidationErrors.
func ValidateConfig(c Config) error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
