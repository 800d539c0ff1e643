package sqlitestore

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/commander/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an in-memory sqlite Store for testing, skipping if
// the cgo sqlite3 driver isn't available in this build environment.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{})
	if err != nil {
		if strings.Contains(err.Error(), "unknown driver") {
			t.Skip("sqlite3 driver not available")
		}
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := types.NewMemory("agent-1", "hello world", []float32{1, 2, 3})
	require.NoError(t, s.StoreMemory(ctx, m))

	got, err := s.Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.Content, got.Content)
	assert.Equal(t, m.Embedding, got.Embedding)
}

func TestStoreUpsertOverwritesContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := types.NewMemory("agent-1", "v1", []float32{1})
	require.NoError(t, s.StoreMemory(ctx, m))
	m.Content = "v2"
	require.NoError(t, s.StoreMemory(ctx, m))

	got, err := s.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)

	n, err := s.Count(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	close := types.NewMemory("agent-1", "close", []float32{1, 0})
	far := types.NewMemory("agent-1", "far", []float32{0, 1})
	require.NoError(t, s.StoreMemory(ctx, close))
	require.NoError(t, s.StoreMemory(ctx, far))

	results, err := s.Search(ctx, []float32{1, 0}, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, close.ID, results[0].Memory.ID)
}

func TestSearchScopesToAgentAndSearchAllDoesNot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-1", "mine", []float32{1})))
	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-2", "theirs", []float32{1})))

	scoped, err := s.Search(ctx, []float32{1}, "agent-1", 10)
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	all, err := s.SearchAll(ctx, []float32{1}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteAndClearAgent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := types.NewMemory("agent-1", "a", nil)
	b := types.NewMemory("agent-1", "b", nil)
	require.NoError(t, s.StoreMemory(ctx, a))
	require.NoError(t, s.StoreMemory(ctx, b))

	require.NoError(t, s.Delete(ctx, a.ID))
	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.ClearAgent(ctx, "agent-1"))
	n, err := s.Count(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	embedding := []float32{0.5, -1.25, 3.125, 0}
	packed := encodeEmbedding(embedding)
	assert.Equal(t, embedding, decodeEmbedding(packed))
}
