package types

import "time"

// ProjectState is the lifecycle state of a Project.
type ProjectState string

const (
	ProjectIdle    ProjectState = "idle"
	ProjectWorking ProjectState = "working"
	ProjectBlocked ProjectState = "blocked"
	ProjectPaused  ProjectState = "paused"
	ProjectError   ProjectState = "error"
)

// Project is the primary aggregate: a working directory on disk driven by
// one adapter, with zero or more attached tool sessions.
//
// Mutated only by a single owning actor per process and serialized to
// storage on every mutation.
type Project struct {
	ID          ProjectID            `json:"id"`
	Path        string               `json:"path"`
	DisplayName string               `json:"display_name"`
	State       ProjectState         `json:"state"`
	Adapter     string               `json:"adapter"`
	Sessions    map[string]SessionID `json:"sessions"` // alias -> session
	Pending     []EventID            `json:"pending_events"`
	Messages    []MessageID          `json:"messages"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewProject creates a Project in the idle state.
func NewProject(path, displayName, adapter string) *Project {
	now := time.Now()
	return &Project{
		ID:          NewProjectID(),
		Path:        path,
		DisplayName: displayName,
		State:       ProjectIdle,
		Adapter:     adapter,
		Sessions:    make(map[string]SessionID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch updates UpdatedAt; callers invoke this on every mutation before
// persisting.
func (p *Project) Touch() { p.UpdatedAt = time.Now() }
