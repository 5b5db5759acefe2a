package redis

import (
	"context"
	"os"
	"testing"

	"github.com/flowgraph/flowchart/internal/adapters/repository/storetest"
	"github.com/flowgraph/flowchart/internal/core/document"
	"github.com/flowgraph/flowchart/pkg/serialization"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Conformance(t *testing.T) {
	url := os.Getenv("FLOWCHART_REDIS_URL")
	if url == "" {
		t.Skip("Integration test requires Redis (set FLOWCHART_REDIS_URL)")
	}

	ctx := context.Background()
	storetest.Run(t, func(t *testing.T) document.Store {
		prefix := "flowchart-test-" + uuid.NewString()
		s, err := Connect(ctx, url, nil, WithPrefix(prefix))
		require.NoError(t, err)
		t.Cleanup(func() {
			keys, _ := s.client.Keys(ctx, prefix+":*").Result()
			if len(keys) > 0 {
				s.client.Del(ctx, keys...)
			}
			s.Close()
		})
		return s
	})
}

func TestStore_Keys(t *testing.T) {
	s := New(nil, serialization.Default())
	assert.Equal(t, "flowchart:doc:d1", s.docKey("d1"))
	assert.Equal(t, "flowchart:docs", s.indexKey())

	s = New(nil, nil, WithPrefix("tenant"), WithPrefix(""))
	assert.Equal(t, "tenant:doc:d1", s.docKey("d1"))
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	assert.Equal(t, document.ErrInvalidDocumentID, s.Save(ctx, nil))
	_, err := s.Load(ctx, "")
	assert.Equal(t, document.ErrInvalidDocumentID, err)
	assert.Equal(t, document.ErrInvalidDocumentID, s.Delete(ctx, ""))
	assert.NoError(t, s.Close())

	_, err = Connect(ctx, "", nil)
	assert.Error(t, err)
	_, err = Connect(ctx, "not-a-url", nil)
	assert.Error(t, err)
}
