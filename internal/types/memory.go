package types

import "time"

// Memory is a single embedded fact stored against one owning agent.
type Memory struct {
	ID        MemoryID  `json:"id"`
	AgentID   string    `json:"agent_id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMemory creates a Memory bound to agentID.
func NewMemory(agentID, content string, embedding []float32) *Memory {
	return &Memory{
		ID:        NewMemoryID(),
		AgentID:   agentID,
		Content:   content,
		Embedding: embedding,
		CreatedAt: time.Now(),
	}
}
