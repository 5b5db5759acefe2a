// Package document provides the persisted diagram document and the storage
// interface implemented by the repository adapters. It has no external
// dependencies.
package document

import (
	"slices"
	"time"

	"github.com/flowgraph/flowchart/internal/core/graph"
)

// Document is a named, saved diagram
// PRINCIPLES:
// - KISS: The exported node/edge set plus a little metadata
// - SRP: Only responsible for document data
type Document struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Direction graph.Direction `json:"direction"`
	Data      *graph.Data     `json:"data"`
	Tags      []string        `json:"tags,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Meta is the part of a document stored next to the encoded data.
type Meta struct {
	Direction graph.Direction `json:"direction"`
	Tags      []string        `json:"tags,omitempty"`
}

// Meta returns the document metadata.
func (d *Document) Meta() Meta {
	return Meta{Direction: d.Direction, Tags: d.Tags}
}

// Validate ensures document integrity
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrInvalidDocumentID
	}
	if d.Name == "" {
		return ErrInvalidName
	}
	if d.Data == nil {
		return ErrNilData
	}
	if d.Direction != "" && !d.Direction.Valid() {
		return graph.ErrInvalidConfig
	}
	return nil
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Data = d.Data.Clone()
	c.Tags = slices.Clone(d.Tags)
	return &c
}

// HasTag reports whether the document carries tag.
func (d *Document) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}
