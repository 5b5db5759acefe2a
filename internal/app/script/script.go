// Package script reads YAML replay scripts: an ordered list of diagram
// operations applied to a controller, with optional expectations checked
// along the way.
package script

import (
	"errors"
	"fmt"
	"os"

	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Script errors
var (
	ErrMissingField       = errors.New("missing field for step")
	ErrExpectationFailed  = errors.New("expectation failed")
	ErrUnsupportedVersion = errors.New("unsupported script version")
)

// Version is the script format this package reads.
const Version = 1

// Op names a script step.
type Op string

const (
	OpCreate Op = "create"
	OpRelate Op = "relate"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpReback Op = "reback"
	OpUndo   Op = "undo"
	OpRedo   Op = "redo"
	OpClean  Op = "clean"
	OpResize Op = "resize"
	OpExpect Op = "expect"
)

// Script is a named sequence of steps.
type Script struct {
	Version     int    `yaml:"version" json:"version"`
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
}

// Step is one operation. Which fields are read depends on Op.
type Step struct {
	Op     Op              `yaml:"op" json:"op" validate:"required,oneof=create relate update delete reback undo redo clean resize expect"`
	Node   *graph.NodeInfo `yaml:"node,omitempty" json:"node,omitempty"`
	Source *graph.NodeInfo `yaml:"source,omitempty" json:"source,omitempty"`
	Target *graph.NodeInfo `yaml:"target,omitempty" json:"target,omitempty"`
	Mode   string          `yaml:"mode,omitempty" json:"mode,omitempty" validate:"relation_mode"`
	ID     string          `yaml:"id,omitempty" json:"id,omitempty"`
	To     string          `yaml:"to,omitempty" json:"to,omitempty"`
	Width  int             `yaml:"width,omitempty" json:"width,omitempty" validate:"gte=0"`
	Height int             `yaml:"height,omitempty" json:"height,omitempty" validate:"gte=0"`
	Times  int             `yaml:"times,omitempty" json:"times,omitempty" validate:"gte=0"`
	Expect *Expect         `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect checks diagram counters. Unset fields are not checked.
type Expect struct {
	Nodes     *int `yaml:"nodes,omitempty" json:"nodes,omitempty"`
	Edges     *int `yaml:"edges,omitempty" json:"edges,omitempty"`
	UndoSteps *int `yaml:"undoSteps,omitempty" json:"undoSteps,omitempty"`
	RedoSteps *int `yaml:"redoSteps,omitempty" json:"redoSteps,omitempty"`
	// RebackNodes lists the ids GetRebackNodes must return for Of.
	Of          string   `yaml:"of,omitempty" json:"of,omitempty"`
	RebackNodes []string `yaml:"rebackNodes,omitempty" json:"rebackNodes,omitempty"`
}

// Validate checks the fields each op needs.
func (s Step) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("%w %s: %s", ErrMissingField, s.Op, field)
	}
	switch s.Op {
	case OpCreate, OpUpdate:
		if s.Node == nil || s.Node.ID == "" {
			return missing("node.id")
		}
	case OpRelate:
		if s.Source == nil || s.Source.ID == "" {
			return missing("source.id")
		}
	case OpDelete:
		if s.ID == "" {
			return missing("id")
		}
	case OpReback:
		if s.ID == "" || s.To == "" {
			return missing("id and to")
		}
	case OpResize:
		if s.Width <= 0 || s.Height <= 0 {
			return missing("width and height")
		}
	case OpExpect:
		if s.Expect == nil {
			return missing("expect")
		}
		if len(s.Expect.RebackNodes) > 0 && s.Expect.Of == "" {
			return missing("expect.of")
		}
	}
	return nil
}

// Validate checks the version and every step.
func (s *Script) Validate() error {
	if s.Version != 0 && s.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	for i, step := range s.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// Parse decodes and validates a YAML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := validation.Struct(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadFile parses the script at path.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Marshal encodes s as YAML.
func Marshal(s *Script) ([]byte, error) {
	return yaml.Marshal(s)
}
