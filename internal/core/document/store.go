package document

import (
	"context"
	"time"
)

// Store persists documents
// PRINCIPLES:
// - ISP: Four methods, nothing backend specific
// - DIP: The controller depends on this interface, adapters implement it
type Store interface {
	// Save inserts or replaces a document
	Save(ctx context.Context, doc *Document) error

	// Load retrieves a document by ID
	Load(ctx context.Context, id string) (*Document, error)

	// List returns documents matching the filter, most recently updated first
	List(ctx context.Context, filter Filter) ([]*Document, error)

	// Delete removes a document by ID
	Delete(ctx context.Context, id string) error
}

// Filter for document queries
type Filter struct {
	Name   string     `json:"name,omitempty"`
	Tag    string     `json:"tag,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
	Since  *time.Time `json:"since,omitempty"`
	Before *time.Time `json:"before,omitempty"`
}

// Validate ensures filter parameters are valid
func (f *Filter) Validate() error {
	if f.Limit < 0 {
		return ErrInvalidLimit
	}
	if f.Offset < 0 {
		return ErrInvalidOffset
	}
	if f.Since != nil && f.Before != nil && f.Since.After(*f.Before) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Match reports whether doc passes the filter's predicates. Paging is
// applied by the caller.
func (f *Filter) Match(doc *Document) bool {
	if f.Name != "" && doc.Name != f.Name {
		return false
	}
	if f.Tag != "" && !doc.HasTag(f.Tag) {
		return false
	}
	if f.Since != nil && !doc.UpdatedAt.After(*f.Since) {
		return false
	}
	if f.Before != nil && !doc.UpdatedAt.Before(*f.Before) {
		return false
	}
	return true
}

// Page applies offset and limit to an already ordered result.
func Page[T any](items []T, f Filter) []T {
	if f.Offset >= len(items) {
		return nil
	}
	items = items[f.Offset:]
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items
}
