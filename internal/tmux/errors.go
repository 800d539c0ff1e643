package tmux

import "errors"

// Sentinel errors surfaced by the orchestrator. Callers compare with
// errors.Is; this layer never retries and never wraps these into a
// framework-specific error type.
var (
	// ErrNotFound indicates the tmux binary could not be located in PATH.
	ErrNotFound = errors.New("tmux: binary not found in PATH")
	// ErrSessionNotFound indicates the named session does not exist.
	ErrSessionNotFound = errors.New("tmux: session not found")
	// ErrPaneNotFound indicates the named pane does not exist in its session.
	ErrPaneNotFound = errors.New("tmux: pane not found")
	// ErrCommandFailed indicates a non-zero exit not otherwise classified.
	ErrCommandFailed = errors.New("tmux: command failed")
)
