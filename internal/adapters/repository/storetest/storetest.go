// Package storetest is a conformance suite run against every document.Store
// adapter.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/flowgraph/flowchart/internal/core/document"
	"github.com/flowgraph/flowchart/internal/core/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Doc builds a small two-node document updated at the given time.
func Doc(id, name string, updated time.Time, tags ...string) *document.Document {
	return &document.Document{
		ID:        id,
		Name:      name,
		Direction: graph.DirectionHorizontal,
		Tags:      tags,
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
		Data: &graph.Data{
			Nodes: []*graph.Node{
				{ID: "node1", Type: "node", X: 100, Y: 100, Size: 100, AnchorPoints: graph.DefaultAnchorPoints(), Label: name,
					Extra: map[string]interface{}{"priority": 3}},
				{ID: "node2", Type: "node", X: 500, Y: 100, Size: 100, AnchorPoints: graph.DefaultAnchorPoints(), Reback: &graph.Reback{ID: "node1"}},
			},
			Edges: []*graph.Edge{
				{ID: "edge1", Source: "node1", Target: "node2", Type: graph.EdgeTypeLine},
			},
		},
	}
}

// Run exercises the document.Store contract. newStore must return an empty
// store.
func Run(t *testing.T, newStore func(t *testing.T) document.Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save and load", func(t *testing.T) {
		s := newStore(t)
		doc := Doc("d1", "flow", base, "prod")
		require.NoError(t, s.Save(ctx, doc))

		loaded, err := s.Load(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, doc.ID, loaded.ID)
		assert.Equal(t, doc.Name, loaded.Name)
		assert.Equal(t, doc.Direction, loaded.Direction)
		assert.Equal(t, doc.Tags, loaded.Tags)
		assert.Equal(t, doc.Data, loaded.Data)
		assert.WithinDuration(t, doc.UpdatedAt, loaded.UpdatedAt, time.Millisecond)
		assert.WithinDuration(t, doc.CreatedAt, loaded.CreatedAt, time.Millisecond)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, Doc("d1", "flow", base)))
		require.NoError(t, s.Save(ctx, Doc("d1", "renamed", base.Add(time.Minute))))

		loaded, err := s.Load(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)

		all, err := s.List(ctx, document.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("invalid input", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.Save(ctx, nil))
		assert.ErrorIs(t, s.Save(ctx, &document.Document{Name: "x", Data: &graph.Data{}}), document.ErrInvalidDocumentID)

		_, err := s.Load(ctx, "")
		assert.ErrorIs(t, err, document.ErrInvalidDocumentID)

		_, err = s.List(ctx, document.Filter{Limit: -1})
		assert.ErrorIs(t, err, document.ErrInvalidLimit)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, document.ErrDocumentNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "missing"), document.ErrDocumentNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, Doc("d1", "flow", base)))
		require.NoError(t, s.Delete(ctx, "d1"))
		_, err := s.Load(ctx, "d1")
		assert.ErrorIs(t, err, document.ErrDocumentNotFound)
	})

	t.Run("list filters and orders", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, Doc("d1", "alpha", base, "prod")))
		require.NoError(t, s.Save(ctx, Doc("d2", "beta", base.Add(time.Minute), "dev")))
		require.NoError(t, s.Save(ctx, Doc("d3", "alpha", base.Add(2*time.Minute), "prod", "dev")))

		ids := func(docs []*document.Document) []string {
			var out []string
			for _, d := range docs {
				out = append(out, d.ID)
			}
			return out
		}

		all, err := s.List(ctx, document.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"d3", "d2", "d1"}, ids(all))

		byName, err := s.List(ctx, document.Filter{Name: "alpha"})
		require.NoError(t, err)
		assert.Equal(t, []string{"d3", "d1"}, ids(byName))

		byTag, err := s.List(ctx, document.Filter{Tag: "dev"})
		require.NoError(t, err)
		assert.Equal(t, []string{"d3", "d2"}, ids(byTag))

		since := base.Add(30 * time.Second)
		recent, err := s.List(ctx, document.Filter{Since: &since})
		require.NoError(t, err)
		assert.Equal(t, []string{"d3", "d2"}, ids(recent))

		paged, err := s.List(ctx, document.Filter{Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"d2"}, ids(paged))
	})
}
