package memory

import (
	"context"
	"testing"

	"github.com/haasonsaas/commander/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreBasicOperations(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	m := types.NewMemory("agent-1", "remember this", []float32{1, 0, 0})
	require.NoError(t, s.StoreMemory(ctx, m))

	got, err := s.Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "remember this", got.Content)

	n, err := s.Count(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, m.ID))
	got, err = s.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryStoreSearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	close := types.NewMemory("agent-1", "close match", []float32{1, 0, 0})
	far := types.NewMemory("agent-1", "far match", []float32{0, 1, 0})
	require.NoError(t, s.StoreMemory(ctx, close))
	require.NoError(t, s.StoreMemory(ctx, far))

	results, err := s.Search(ctx, []float32{1, 0, 0}, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, close.ID, results[0].Memory.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestInMemoryStoreSearchScopesToAgent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-1", "mine", []float32{1, 0})))
	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-2", "theirs", []float32{1, 0})))

	results, err := s.Search(ctx, []float32{1, 0}, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mine", results[0].Memory.Content)

	all, err := s.SearchAll(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemoryStoreClearAgent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-1", "a", nil)))
	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-1", "b", nil)))
	require.NoError(t, s.StoreMemory(ctx, types.NewMemory("agent-2", "c", nil)))

	require.NoError(t, s.ClearAgent(ctx, "agent-1"))

	n, err := s.Count(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Count(ctx, "agent-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAccessControlledStoreForcesAgentID(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	scoped := NewAccessControlledStore(inner, "agent-1", AccessOwn, nil)

	m := types.NewMemory("someone-else", "spoofed", []float32{1})
	require.NoError(t, scoped.Store(ctx, m))
	assert.Equal(t, "agent-1", m.AgentID)
}

func TestAccessControlledStoreOwnIsolation(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()

	a1 := NewAccessControlledStore(inner, "agent-1", AccessOwn, nil)
	a2 := NewAccessControlledStore(inner, "agent-2", AccessOwn, nil)

	require.NoError(t, a1.Store(ctx, types.NewMemory("", "mine", []float32{1, 0})))
	require.NoError(t, a2.Store(ctx, types.NewMemory("", "theirs", []float32{1, 0})))

	results, err := a1.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mine", results[0].Memory.Content)
}

func TestAccessControlledStoreAllSeesEveryAgent(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()

	a1 := NewAccessControlledStore(inner, "agent-1", AccessOwn, nil)
	require.NoError(t, a1.Store(ctx, types.NewMemory("", "mine", []float32{1, 0})))

	all := NewAccessControlledStore(inner, "user-agent", AccessAll, nil)
	require.NoError(t, all.Store(ctx, types.NewMemory("", "user's own", []float32{1, 0})))

	results, err := all.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestAccessControlledStoreGetIsolation(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	owner := NewAccessControlledStore(inner, "agent-1", AccessOwn, nil)
	other := NewAccessControlledStore(inner, "agent-2", AccessOwn, nil)

	m := types.NewMemory("", "secret", []float32{1})
	require.NoError(t, owner.Store(ctx, m))

	got, err := other.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = owner.Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestAccessControlledStoreDeleteIsolation(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	owner := NewAccessControlledStore(inner, "agent-1", AccessOwn, nil)
	other := NewAccessControlledStore(inner, "agent-2", AccessOwn, nil)

	m := types.NewMemory("", "protected", []float32{1})
	require.NoError(t, owner.Store(ctx, m))

	require.NoError(t, other.Delete(ctx, m.ID))

	got, err := owner.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "a foreign delete attempt under AccessOwn must be a silent no-op")

	require.NoError(t, owner.Delete(ctx, m.ID))
	got, err = owner.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccessLevelEquality(t *testing.T) {
	assert.Equal(t, AccessOwn, AccessOwn)
	assert.NotEqual(t, AccessOwn, AccessAll)
}
