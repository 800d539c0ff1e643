package memory

import (
	"context"
	"log/slog"

	"github.com/haasonsaas/commander/internal/types"
)

// AccessControlledStore binds an agent ID and AccessLevel to an
// underlying Store, enforcing isolation on every operation. Session
// agents are bound with AccessOwn; the user agent is bound with
// AccessAll.
type AccessControlledStore struct {
	inner   Store
	agentID string
	level   AccessLevel
	logger  *slog.Logger
}

// NewAccessControlledStore wraps inner for agentID at the given level.
func NewAccessControlledStore(inner Store, agentID string, level AccessLevel, logger *slog.Logger) *AccessControlledStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessControlledStore{inner: inner, agentID: agentID, level: level, logger: logger}
}

// AgentID returns the bound agent ID.
func (s *AccessControlledStore) AgentID() string { return s.agentID }

// AccessLevel returns the bound access level.
func (s *AccessControlledStore) AccessLevel() AccessLevel { return s.level }

// Store upserts a memory, forcibly rewriting its AgentID to the bound
// value regardless of what the caller set.
func (s *AccessControlledStore) Store(ctx context.Context, m *types.Memory) error {
	m.AgentID = s.agentID
	return s.inner.StoreMemory(ctx, m)
}

// Search routes to per-agent search under AccessOwn, or cross-agent
// search under AccessAll.
func (s *AccessControlledStore) Search(ctx context.Context, embedding []float32, k int) ([]Result, error) {
	if s.level == AccessOwn {
		return s.inner.Search(ctx, embedding, s.agentID, k)
	}
	return s.inner.SearchAll(ctx, embedding, k)
}

// Get retrieves a memory by ID. Under AccessOwn, a memory belonging to
// another agent is silently treated as absent.
func (s *AccessControlledStore) Get(ctx context.Context, id types.MemoryID) (*types.Memory, error) {
	m, err := s.inner.Get(ctx, id)
	if err != nil || m == nil {
		return m, err
	}
	if s.level == AccessOwn && m.AgentID != s.agentID {
		s.logger.Warn("memory access violation on get",
			"agent_id", s.agentID, "target_agent", m.AgentID, "memory_id", id)
		return nil, nil
	}
	return m, nil
}

// Delete removes a memory by ID. Under AccessOwn, deleting a memory
// belonging to another agent is a silent no-op.
func (s *AccessControlledStore) Delete(ctx context.Context, id types.MemoryID) error {
	if s.level == AccessOwn {
		m, err := s.inner.Get(ctx, id)
		if err != nil {
			return err
		}
		if m != nil && m.AgentID != s.agentID {
			s.logger.Warn("memory access violation on delete",
				"agent_id", s.agentID, "target_agent", m.AgentID, "memory_id", id)
			return nil
		}
	}
	return s.inner.Delete(ctx, id)
}

// List returns this agent's own memories.
func (s *AccessControlledStore) List(ctx context.Context, k int) ([]*types.Memory, error) {
	return s.inner.List(ctx, s.agentID, k)
}

// Count returns the count of this agent's own memories.
func (s *AccessControlledStore) Count(ctx context.Context) (int, error) {
	return s.inner.Count(ctx, s.agentID)
}

// Clear deletes every memory belonging to this agent.
func (s *AccessControlledStore) Clear(ctx context.Context) error {
	return s.inner.ClearAgent(ctx, s.agentID)
}

// Inner returns the wrapped Store for advanced operations.
func (s *AccessControlledStore) Inner() Store { return s.inner }
