// Package postgres provides a document.Store backed by PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowgraph/flowchart/internal/core/document"
	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/flowgraph/flowchart/pkg/serialization"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements document.Store for PostgreSQL
type Store struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
	tableName  string
}

var _ document.Store = (*Store)(nil)

// New creates a new PostgreSQL document store
func New(pool *pgxpool.Pool, serializer *serialization.Serializer) *Store {
	if serializer == nil {
		serializer = serialization.Default()
	}
	return &Store{
		pool:       pool,
		serializer: serializer,
		tableName:  "documents",
	}
}

// Connect opens a pool for dsn and prepares the schema.
func Connect(ctx context.Context, dsn string, serializer *serialization.Serializer) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	s := New(pool, serializer)
	if err := s.CreateTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

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
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, direction, tags, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			direction = EXCLUDED.direction,
			tags = EXCLUDED.tags,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		doc.ID, doc.Name, string(doc.Direction), tags, data, doc.CreatedAt, doc.UpdatedAt)
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

	query := fmt.Sprintf(`
		SELECT id, name, direction, tags, data, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, s.tableName)

	doc, err := s.scan(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

// List retrieves documents based on filter criteria
func (s *Store) List(ctx context.Context, filter document.Filter) ([]*document.Document, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}
	query, args := s.buildListQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return document.ErrInvalidDocumentID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

// CreateTables creates the necessary database tables
func (s *Store) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			direction VARCHAR(32) NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (name);
		CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Truncate removes every document. Used to reset integration fixtures.
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("TRUNCATE %s", s.tableName)); err != nil {
		return fmt.Errorf("failed to truncate documents: %w", err)
	}
	return nil
}

func (s *Store) scan(row pgx.Row) (*document.Document, error) {
	var (
		doc       document.Document
		direction string
		data      []byte
	)
	if err := row.Scan(&doc.ID, &doc.Name, &direction, &doc.Tags, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	doc.Direction = graph.Direction(direction)
	if len(doc.Tags) == 0 {
		doc.Tags = nil
	}
	if err := s.serializer.Unmarshal(data, &doc.Data); err != nil {
		return nil, fmt.Errorf("failed to deserialize document data: %w", err)
	}
	return &doc, nil
}

// buildListQuery constructs the SQL query for listing documents
func (s *Store) buildListQuery(filter document.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT id, name, direction, tags, data, created_at, updated_at FROM %s WHERE 1=1", s.tableName)
	args := make([]interface{}, 0)
	argCount := 0

	if filter.Name != "" {
		argCount++
		query += fmt.Sprintf(" AND name = $%d", argCount)
		args = append(args, filter.Name)
	}
	if filter.Tag != "" {
		argCount++
		query += fmt.Sprintf(" AND $%d = ANY(tags)", argCount)
		args = append(args, filter.Tag)
	}
	if filter.Since != nil {
		argCount++
		query += fmt.Sprintf(" AND updated_at > $%d", argCount)
		args = append(args, *filter.Since)
	}
	if filter.Before != nil {
		argCount++
		query += fmt.Sprintf(" AND updated_at < $%d", argCount)
		args = append(args, *filter.Before)
	}

	query += " ORDER BY updated_at DESC, id ASC"

	if filter.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		argCount++
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	return query, args
}

// Close closes the database connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
