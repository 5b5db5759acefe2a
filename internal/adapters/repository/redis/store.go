// Package redis provides a document.Store backed by Redis hashes with a
// sorted-set index ordered by update time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/flowgraph/flowchart/internal/core/document"
	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/pkg/serialization"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "flowchart"

// Store implements document.Store for Redis
type Store struct {
	client     *redis.Client
	serializer *serialization.Serializer
	prefix     string
	ttl        time.Duration
}

var _ document.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires documents that are not saved again within ttl.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// New creates a store on an existing client.
func New(client *redis.Client, serializer *serialization.Serializer, opts ...Option) *Store {
	if serializer == nil {
		serializer = serialization.Default()
	}
	s := &Store{client: client, serializer: serializer, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect parses a redis:// URL, checks the connection and returns a store.
func Connect(ctx context.Context, url string, serializer *serialization.Serializer, opts ...Option) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(client, serializer, opts...), nil
}

func (s *Store) docKey(id string) string { return s.prefix + ":doc:" + id }
func (s *Store) indexKey() string        { return s.prefix + ":docs" }

// Save inserts or replaces a document
func (s *Store) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil {
		return document.ErrInvalidDocumentID
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("document validation failed: %w", err)
	}
	data, err := s.serializer.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("failed to serialize document data: %w", err)
	}
	tagsJSON, err := json.Marshal(doc.Tags)
	if err != nil {
		return fmt.Errorf("failed to serialize tags: %w", err)
	}

	key := s.docKey(doc.ID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"name", doc.Name,
			"direction", string(doc.Direction),
			"tags", string(tagsJSON),
			"data", data,
			"created_at", doc.CreatedAt.UnixNano(),
			"updated_at", doc.UpdatedAt.UnixNano(),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(doc.UpdatedAt.UnixNano()), Member: doc.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Load retrieves a document by ID
func (s *Store) Load(ctx context.Context, id string) (*document.Document, error) {
	if id == "" {
		return nil, document.ErrInvalidDocumentID
	}
	fields, err := s.client.HGetAll(ctx, s.docKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if len(fields) == 0 {
		return nil, document.ErrDocumentNotFound
	}
	return s.decode(id, fields)
}

// List retrieves documents based on filter criteria. Index entries whose
// hash has expired are pruned on the way.
func (s *Store) List(ctx context.Context, filter document.Filter) ([]*document.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var docs []*document.Document
	var stale []interface{}
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, ids[i])
			continue
		}
		doc, err := s.decode(ids[i], fields)
		if err != nil {
			return nil, err
		}
		if filter.Match(doc) {
			docs = append(docs, doc)
		}
	}
	if len(stale) > 0 {
		s.client.ZRem(ctx, s.indexKey(), stale...)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return document.Page(docs, filter), nil
}

// Delete removes a document by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return document.ErrInvalidDocumentID
	}
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.docKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if del.Val() == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) decode(id string, fields map[string]string) (*document.Document, error) {
	doc := &document.Document{
		ID:        id,
		Name:      fields["name"],
		Direction: graph.Direction(fields["direction"]),
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("document %s: bad created_at: %w", id, err)
	}
	updated, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("document %s: bad updated_at: %w", id, err)
	}
	doc.CreatedAt = time.Unix(0, created).UTC()
	doc.UpdatedAt = time.Unix(0, updated).UTC()
	if err := json.Unmarshal([]byte(fields["tags"]), &doc.Tags); err != nil {
		return nil, fmt.Errorf("failed to deserialize tags: %w", err)
	}
	if err := s.serializer.Unmarshal([]byte(fields["data"]), &doc.Data); err != nil {
		return nil, fmt.Errorf("failed to deserialize document data: %w", err)
	}
	return doc, nil
}
