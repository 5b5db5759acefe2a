// Package memory provides a thread-safe in-memory document.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/flowgraph/flowchart/internal/core/document"
	"github.com/flowgraph/flowchart/pkg/serialization"
)

// Store implements document.Store with thread-safe in-memory storage.
// Documents are held in encoded form so callers never share records with it
// PRINCIPLES:
// - KISS: Simple map with a single mutex
// - SRP: Single responsibility for in-memory document storage
// - DIP: Implements document.Store interface
type Store struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	serializer  *serialization.Serializer
	maxBytes    int64
	currentSize int64
}

// Config holds configuration for Store
type Config struct {
	MaxBytes   int64                     // Memory budget; 0 means 64MB
	Serializer *serialization.Serializer // Custom serializer (optional)
}

type entry struct {
	doc        *document.Document // metadata only, Data is nil
	data       []byte
	accessedAt time.Time
}

// New creates an in-memory store
func New(config Config) *Store {
	if config.MaxBytes <= 0 {
		config.MaxBytes = 64 << 20
	}
	if config.Serializer == nil {
		config.Serializer = serialization.Default()
	}
	return &Store{
		entries:    make(map[string]*entry),
		serializer: config.Serializer,
		maxBytes:   config.MaxBytes,
	}
}

var _ document.Store = (*Store)(nil)

// Save stores a document, evicting least recently used documents when the
// memory budget would be exceeded.
func (s *Store) Save(_ context.Context, doc *document.Document) error {
	if doc == nil {
		return document.ErrInvalidDocumentID
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}
	data, err := s.serializer.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("document serialization failed: %w", err)
	}
	size := int64(len(data))
	if size > s.maxBytes {
		return fmt.Errorf("document %s is %d bytes, budget is %d", doc.ID, size, s.maxBytes)
	}

	meta := doc.Clone()
	meta.Data = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[doc.ID]; ok {
		s.currentSize -= int64(len(old.data))
		delete(s.entries, doc.ID)
	}
	s.evict(size)
	s.entries[doc.ID] = &entry{doc: meta, data: data, accessedAt: time.Now()}
	s.currentSize += size
	return nil
}

// Load retrieves a document
func (s *Store) Load(_ context.Context, id string) (*document.Document, error) {
	if id == "" {
		return nil, document.ErrInvalidDocumentID
	}
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		e.accessedAt = time.Now()
	}
	s.mu.Unlock()
	if !ok {
		return nil, document.ErrDocumentNotFound
	}
	return s.decode(e)
}

// List returns documents matching the filter, most recently updated first
func (s *Store) List(_ context.Context, filter document.Filter) ([]*document.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	s.mu.RLock()
	var matched []*entry
	for _, e := range s.entries {
		if filter.Match(e.doc) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].doc, matched[j].doc
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	var out []*document.Document
	for _, e := range document.Page(matched, filter) {
		doc, err := s.decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Delete removes a document
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return document.ErrDocumentNotFound
	}
	s.currentSize -= int64(len(e.data))
	delete(s.entries, id)
	return nil
}

// Stats describes store usage
type Stats struct {
	Count              int     `json:"count"`
	Bytes              int64   `json:"bytes"`
	MaxBytes           int64   `json:"max_bytes"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Stats returns memory usage statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Count:              len(s.entries),
		Bytes:              s.currentSize,
		MaxBytes:           s.maxBytes,
		UtilizationPercent: float64(s.currentSize) / float64(s.maxBytes) * 100,
	}
}

func (s *Store) decode(e *entry) (*document.Document, error) {
	doc := e.doc.Clone()
	doc.Data = nil
	if err := s.serializer.Unmarshal(e.data, &doc.Data); err != nil {
		return nil, fmt.Errorf("document deserialization failed: %w", err)
	}
	return doc, nil
}

// evict drops least recently used entries until size more bytes fit.
// Caller holds the write lock.
func (s *Store) evict(size int64) {
	for s.currentSize+size > s.maxBytes && len(s.entries) > 0 {
		var oldestID string
		var oldest time.Time
		for id, e := range s.entries {
			if oldestID == "" || e.accessedAt.Before(oldest) {
				oldestID, oldest = id, e.accessedAt
			}
		}
		s.currentSize -= int64(len(s.entries[oldestID].data))
		delete(s.entries, oldestID)
	}
}
