package types

import "time"

// Priority orders work items within the queue. Higher values sort first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// String renders a Priority for logs and display.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// WorkState is the lifecycle state of a WorkItem.
type WorkState string

const (
	WorkPending    WorkState = "pending"
	WorkQueued     WorkState = "queued"
	WorkInProgress WorkState = "in-progress"
	WorkCompleted  WorkState = "completed"
	WorkFailed     WorkState = "failed"
	WorkCancelled  WorkState = "cancelled"
	WorkBlocked    WorkState = "blocked"
)

// WorkItem is a unit of queued work with priority and dependency metadata.
//
// Once Completed, it contributes to the completed-set that unblocks
// dependents. Failed items do not unblock anything depending on them.
type WorkItem struct {
	ID          WorkID    `json:"id"`
	ProjectID   ProjectID `json:"project_id,omitempty"`
	Content     string    `json:"content"`
	Priority    Priority  `json:"priority"`
	State       WorkState `json:"state"`
	DependsOn   []WorkID  `json:"depends_on,omitempty"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// NewWorkItem creates a pending work item.
func NewWorkItem(content string, priority Priority, dependsOn ...WorkID) *WorkItem {
	now := time.Now()
	return &WorkItem{
		ID:        NewWorkID(),
		Content:   content,
		Priority:  priority,
		State:     WorkPending,
		DependsOn: dependsOn,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
