package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/haasonsaas/commander/internal/types"
)

// InMemoryStore is the default, zero-dependency Store: a map-backed
// brute-force cosine index.
type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[types.MemoryID]*types.Memory
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[types.MemoryID]*types.Memory)}
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// StoreMemory upserts by ID.
func (s *InMemoryStore) StoreMemory(_ context.Context, m *types.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[m.ID] = m
	return nil
}

func (s *InMemoryStore) search(embedding []float32, filter func(*types.Memory) bool, k int) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.byID))
	for _, m := range s.byID {
		if filter != nil && !filter(m) {
			continue
		}
		results = append(results, Result{Memory: m, Score: cosineSimilarity(embedding, m.Embedding)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// Search finds the k most similar memories for agentID.
func (s *InMemoryStore) Search(_ context.Context, embedding []float32, agentID string, k int) ([]Result, error) {
	return s.search(embedding, func(m *types.Memory) bool { return m.AgentID == agentID }, k), nil
}

// SearchAll finds the k most similar memories across every agent.
func (s *InMemoryStore) SearchAll(_ context.Context, embedding []float32, k int) ([]Result, error) {
	return s.search(embedding, nil, k), nil
}

// Get retrieves a memory by ID.
func (s *InMemoryStore) Get(_ context.Context, id types.MemoryID) (*types.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id], nil
}

// Delete removes a memory by ID; absent IDs are a no-op.
func (s *InMemoryStore) Delete(_ context.Context, id types.MemoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

// List returns up to k memories for agentID.
func (s *InMemoryStore) List(_ context.Context, agentID string, k int) ([]*types.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Memory
	for _, m := range s.byID {
		if m.AgentID == agentID {
			out = append(out, m)
			if k > 0 && len(out) >= k {
				break
			}
		}
	}
	return out, nil
}

// Count returns the number of memories belonging to agentID.
func (s *InMemoryStore) Count(_ context.Context, agentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.byID {
		if m.AgentID == agentID {
			n++
		}
	}
	return n, nil
}

// ClearAgent deletes every memory belonging to agentID.
func (s *InMemoryStore) ClearAgent(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.byID {
		if m.AgentID == agentID {
			delete(s.byID, id)
		}
	}
	return nil
}

var _ Store = (*InMemoryStore)(nil)
