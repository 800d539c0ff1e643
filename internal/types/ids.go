// Package types defines the identifier and model types shared across the
// orchestrator: projects, tool sessions, work items, events, messages and
// memories. Every record carries a prefixed opaque identifier so that IDs
// from different aggregates can never be mixed up at compile time.
package types

import "github.com/google/uuid"

// ProjectID identifies a Project.
type ProjectID string

// SessionID identifies a ToolSession.
type SessionID string

// WorkID identifies a WorkItem.
type WorkID string

// EventID identifies an Event.
type EventID string

// MessageID identifies a Message.
type MessageID string

// MemoryID identifies a Memory.
type MemoryID string

// NewProjectID generates a new project identifier.
func NewProjectID() ProjectID { return ProjectID("proj-" + uuid.NewString()) }

// NewSessionID generates a new session identifier.
func NewSessionID() SessionID { return SessionID("sess-" + uuid.NewString()) }

// NewWorkID generates a new work item identifier.
func NewWorkID() WorkID { return WorkID("work-" + uuid.NewString()) }

// NewEventID generates a new event identifier.
func NewEventID() EventID { return EventID("evt-" + uuid.NewString()) }

// NewMessageID generates a new message identifier.
func NewMessageID() MessageID { return MessageID("msg-" + uuid.NewString()) }

// NewMemoryID generates a new memory identifier.
func NewMemoryID() MemoryID { return MemoryID("mem-" + uuid.NewString()) }
