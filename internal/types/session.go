package types

import "time"

// SessionStats tracks lightweight counters for a tool session.
type SessionStats struct {
	CapturesTaken     int64 `json:"captures_taken"`
	KeysSent          int64 `json:"keys_sent"`
	NotificationsSent int64 `json:"notifications_sent"`
}

// ToolSession binds a Project to a multiplexer session name.
//
// Created when a project is connected; destroyed on explicit stop or host
// restart. The conventional name is "commander-{project}" but that
// convention lives with the caller, not this type.
type ToolSession struct {
	ID          SessionID    `json:"id"`
	ProjectID   ProjectID    `json:"project_id"`
	MuxName     string       `json:"mux_name"`
	Adapter     string       `json:"adapter"`
	LastCapture string       `json:"last_capture"`
	Ready       bool         `json:"ready"`
	Stats       SessionStats `json:"stats"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewToolSession creates a ToolSession bound to a project and mux name.
func NewToolSession(projectID ProjectID, muxName, adapter string) *ToolSession {
	now := time.Now()
	return &ToolSession{
		ID:        NewSessionID(),
		ProjectID: projectID,
		MuxName:   muxName,
		Adapter:   adapter,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GoalStatus is the lifecycle state of a Goal.
type GoalStatus string

const (
	GoalPending    GoalStatus = "pending"
	GoalInProgress GoalStatus = "in-progress"
	GoalCompleted  GoalStatus = "completed"
	GoalBlocked    GoalStatus = "blocked"
)

// Goal is a unit of autonomous work, recursively decomposable into
// sub-goals.
type Goal struct {
	Description string     `json:"description"`
	Status      GoalStatus `json:"status"`
	BlockReason string     `json:"block_reason,omitempty"`
	SubGoals    []*Goal    `json:"sub_goals,omitempty"`
}

// IsComplete reports whether the goal, and every sub-goal recursively, is
// completed.
func (g *Goal) IsComplete() bool {
	if g.Status != GoalCompleted {
		return false
	}
	for _, sg := range g.SubGoals {
		if !sg.IsComplete() {
			return false
		}
	}
	return true
}

// BlockerKind classifies why an autonomous loop stopped for user input.
type BlockerKind string

const (
	DecisionNeeded        BlockerKind = "decision-needed"
	InformationNeeded     BlockerKind = "information-needed"
	ErrorRequiresJudgment BlockerKind = "error-requires-judgment"
	AmbiguousRequirements BlockerKind = "ambiguous-requirements"
	ExternalDependency    BlockerKind = "external-dependency"
)

// Blocker describes why an autonomous loop cannot proceed without the
// user.
type Blocker struct {
	Kind    BlockerKind `json:"kind"`
	Reason  string      `json:"reason"`
	Options []string    `json:"options,omitempty"`
}

// SessionState is the session agent's observed view of an assistant's
// progress, consumed by the user agent and frontends.
type SessionState struct {
	Goals         []*Goal  `json:"goals"`
	CurrentTask   string   `json:"current_task"`
	Progress      float64  `json:"progress"` // in [0,1]
	Blockers      []string `json:"blockers"`
	ModifiedFiles []string `json:"modified_files"`
	LastRawOutput string   `json:"-"`
}

// NewSessionState returns an empty SessionState.
func NewSessionState() *SessionState {
	return &SessionState{
		Goals:         nil,
		Blockers:      nil,
		ModifiedFiles: nil,
	}
}

// AddModifiedFile records a modified file, deduplicating.
func (s *SessionState) AddModifiedFile(path string) {
	for _, f := range s.ModifiedFiles {
		if f == path {
			return
		}
	}
	s.ModifiedFiles = append(s.ModifiedFiles, path)
}

// AddBlocker records a blocker description, deduplicating.
func (s *SessionState) AddBlocker(reason string) {
	for _, b := range s.Blockers {
		if b == reason {
			return
		}
	}
	s.Blockers = append(s.Blockers, reason)
}

// ClearBlockers removes every recorded blocker.
func (s *SessionState) ClearBlockers() { s.Blockers = nil }
