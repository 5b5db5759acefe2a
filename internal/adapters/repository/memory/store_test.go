package memory

import (
	"context"
	"testing"
	"time"

	"github.com/flowgraph/flowchart/internal/adapters/repository/storetest"
	"github.com/flowgraph/flowchart/internal/core/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) document.Store {
		return New(Config{})
	})
}

func TestStore_LoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New(Config{})
	require.NoError(t, s.Save(ctx, storetest.Doc("d1", "flow", time.Now())))

	first, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	first.Data.Nodes[0].Label = "changed"
	first.Tags = append(first.Tags, "x")

	second, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "flow", second.Data.Nodes[0].Label)
	assert.Empty(t, second.Tags)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	probe := New(Config{})
	require.NoError(t, probe.Save(ctx, storetest.Doc("probe", "flow", time.Now())))
	size := probe.Stats().Bytes
	require.Positive(t, size)

	// room for two documents of this size
	s := New(Config{MaxBytes: size*2 + size/2})
	require.NoError(t, s.Save(ctx, storetest.Doc("d1", "flow", time.Now())))
	time.Sleep(time.Millisecond)
	require.NoError(t, s.Save(ctx, storetest.Doc("d2", "flow", time.Now())))
	time.Sleep(time.Millisecond)
	_, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	require.NoError(t, s.Save(ctx, storetest.Doc("d3", "flow", time.Now())))

	_, err = s.Load(ctx, "d2")
	assert.ErrorIs(t, err, document.ErrDocumentNotFound)
	_, err = s.Load(ctx, "d1")
	assert.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Count)
	assert.LessOrEqual(t, stats.Bytes, stats.MaxBytes)
}

func TestStore_RejectsOversizedDocument(t *testing.T) {
	s := New(Config{MaxBytes: 8})
	err := s.Save(context.Background(), storetest.Doc("d1", "flow", time.Now()))
	assert.Error(t, err)
	assert.Equal(t, 0, s.Stats().Count)
}
