package types

import "time"

// EventType classifies what an Event is about.
type EventType string

const (
	EventStatus         EventType = "status"
	EventDecisionNeeded EventType = "decision-needed"
	EventError          EventType = "error"
	EventInfo           EventType = "info"
)

// EventStatusState is the resolution lifecycle of an Event.
type EventStatusState string

const (
	EventOpen         EventStatusState = "open"
	EventAcknowledged EventStatusState = "acknowledged"
	EventResolved     EventStatusState = "resolved"
)

// Event is a project-scoped notification of something worth user
// attention.
type Event struct {
	ID         EventID          `json:"id"`
	ProjectID  ProjectID        `json:"project_id"`
	Type       EventType        `json:"type"`
	Status     EventStatusState `json:"status"`
	Summary    string           `json:"summary"`
	Response   string           `json:"response,omitempty"`
	ResponseAt *time.Time       `json:"response_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewEvent creates an open event.
func NewEvent(projectID ProjectID, typ EventType, summary string) *Event {
	return &Event{
		ID:        NewEventID(),
		ProjectID: projectID,
		Type:      typ,
		Status:    EventOpen,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
}

// IsBlocking reports whether the event demands user attention: an
// unresolved error or decision-needed event.
func (e *Event) IsBlocking() bool {
	if e.Status == EventResolved {
		return false
	}
	return e.Type == EventError || e.Type == EventDecisionNeeded
}
