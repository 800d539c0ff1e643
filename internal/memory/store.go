// Package memory defines the vector-memory storage capability:
// idempotent upsert, per-agent and cross-agent cosine search, and the
// access-controlled wrapper that isolates session agents from each
// other's memories.
package memory

import (
	"context"

	"github.com/haasonsaas/commander/internal/types"
)

// Store is the capability every memory backend implements. A handle
// satisfying this interface can be backed by an in-process index or a
// remote database; callers never depend on which.
type Store interface {
	// StoreMemory upserts a memory, keyed by ID.
	StoreMemory(ctx context.Context, m *types.Memory) error
	// Search finds the k most similar memories belonging to agentID.
	Search(ctx context.Context, embedding []float32, agentID string, k int) ([]Result, error)
	// SearchAll finds the k most similar memories across every agent.
	SearchAll(ctx context.Context, embedding []float32, k int) ([]Result, error)
	// Get retrieves a memory by ID, or (nil, nil) if absent.
	Get(ctx context.Context, id types.MemoryID) (*types.Memory, error)
	// Delete removes a memory by ID. Deleting an absent ID is not an
	// error.
	Delete(ctx context.Context, id types.MemoryID) error
	// List returns up to k memories belonging to agentID, unordered by
	// similarity.
	List(ctx context.Context, agentID string, k int) ([]*types.Memory, error)
	// Count returns the number of memories belonging to agentID.
	Count(ctx context.Context, agentID string) (int, error)
	// ClearAgent deletes every memory belonging to agentID.
	ClearAgent(ctx context.Context, agentID string) error
}

// Result pairs a Memory with its cosine similarity score against the
// query embedding, highest first.
type Result struct {
	Memory *types.Memory
	Score  float32
}

// AccessLevel controls which memories a bound caller may reach.
type AccessLevel int

const (
	// AccessOwn restricts search/get/delete to the bound agent's own
	// memories (session agents).
	AccessOwn AccessLevel = iota
	// AccessAll allows search across every agent (the user agent).
	AccessAll
)
