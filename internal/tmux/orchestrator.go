// Package tmux is the sole adapter to the tmux(-compatible) multiplexer
// binary. Every other subsystem treats this package as the I/O fabric for
// interacting with assistant processes; nothing else shells out to tmux
// directly.
package tmux

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Orchestrator is the sole adapter to the tmux binary. All operations are
// synchronous subprocess invocations; this layer never retries and
// reports every failure as one of the sentinel errors in errors.go.
type Orchestrator struct {
	tmuxPath string
	logger   *slog.Logger
}

// New locates the tmux binary in PATH and returns an Orchestrator. This is
// a startup-time check performed once.
func New(logger *slog.Logger) (*Orchestrator, error) {
	path, err := exec.LookPath("tmux")
	if err != nil {
		return nil, ErrNotFound
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("tmux found", "path", path)
	return &Orchestrator{tmuxPath: path, logger: logger}, nil
}

// IsAvailable reports whether the tmux binary can be located, without
// constructing an Orchestrator.
func IsAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

func (o *Orchestrator) run(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	o.logger.Debug("running tmux command", "args", args)
	cmd := exec.CommandContext(ctx, o.tmuxPath, args...)
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	return outBuf.String(), errBuf.String(), runErr
}

func (o *Orchestrator) runChecked(ctx context.Context, args ...string) (string, error) {
	stdout, stderr, err := o.run(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommandFailed, strings.TrimSpace(stderr))
	}
	return stdout, nil
}

// CreateSession creates a detached session, optionally in dir.
func (o *Orchestrator) CreateSession(ctx context.Context, name, dir string) error {
	o.logger.Debug("creating tmux session", "name", name)
	args := []string{"new-session", "-d", "-s", name}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	_, err := o.runChecked(ctx, args...)
	return err
}

// DestroySession kills a session. Returns ErrSessionNotFound if it does
// not exist.
func (o *Orchestrator) DestroySession(ctx context.Context, name string) error {
	o.logger.Debug("destroying tmux session", "name", name)
	if !o.SessionExists(ctx, name) {
		return ErrSessionNotFound
	}
	_, err := o.runChecked(ctx, "kill-session", "-t", name)
	return err
}

// SessionExists checks whether the named session exists.
func (o *Orchestrator) SessionExists(ctx context.Context, name string) bool {
	_, _, err := o.run(ctx, "has-session", "-t", name)
	return err == nil
}

// ListSessions lists every session known to the tmux server. A missing
// server or zero sessions ("no server running" / "no sessions" in
// stderr) is reported as an empty list, not an error.
func (o *Orchestrator) ListSessions(ctx context.Context) ([]Session, error) {
	stdout, stderr, err := o.run(ctx, "list-sessions", "-F", "#{session_name}:#{session_created}")
	if err != nil {
		if strings.Contains(stderr, "no server running") || strings.Contains(stderr, "no sessions") {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrCommandFailed, strings.TrimSpace(stderr))
	}

	var sessions []Session
	for _, line := range strings.Split(stdout, "\n") {
		if line == "" {
			continue
		}
		s, perr := parseSession(line)
		if perr != nil {
			o.logger.Warn("failed to parse session", "line", line, "error", perr)
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// ListPanes lists the panes of a session.
func (o *Orchestrator) ListPanes(ctx context.Context, session string) ([]Pane, error) {
	if !o.SessionExists(ctx, session) {
		return nil, ErrSessionNotFound
	}
	stdout, err := o.runChecked(ctx, "list-panes", "-t", session, "-F",
		"#{pane_id}:#{pane_index}:#{pane_active}:#{pane_width}:#{pane_height}")
	if err != nil {
		return nil, err
	}

	var panes []Pane
	for _, line := range strings.Split(stdout, "\n") {
		if line == "" {
			continue
		}
		p, perr := parsePane(line)
		if perr != nil {
			o.logger.Warn("failed to parse pane", "line", line, "error", perr)
			continue
		}
		panes = append(panes, p)
	}
	return panes, nil
}

func target(session, pane string) string {
	if pane == "" {
		return session
	}
	return session + ":" + pane
}

// SendKeys sends raw keys to a target (session, optionally a specific
// pane) without a trailing Enter.
func (o *Orchestrator) SendKeys(ctx context.Context, session, pane, keys string) error {
	if !o.SessionExists(ctx, session) {
		return ErrSessionNotFound
	}
	_, err := o.runChecked(ctx, "send-keys", "-t", target(session, pane), keys)
	return err
}

// SendLine sends text followed by Enter.
func (o *Orchestrator) SendLine(ctx context.Context, session, pane, text string) error {
	if !o.SessionExists(ctx, session) {
		return ErrSessionNotFound
	}
	_, err := o.runChecked(ctx, "send-keys", "-t", target(session, pane), text, "Enter")
	return err
}

// CaptureOutput captures pane scrollback. If lastN is > 0, only the last
// N lines are captured via capture-pane -S -N.
func (o *Orchestrator) CaptureOutput(ctx context.Context, session, pane string, lastN int) (string, error) {
	if !o.SessionExists(ctx, session) {
		return "", ErrSessionNotFound
	}
	args := []string{"capture-pane", "-t", target(session, pane), "-p"}
	if lastN > 0 {
		args = append(args, "-S", "-"+strconv.Itoa(lastN))
	}
	return o.runChecked(ctx, args...)
}

// CurrentSessionName runs display-message to find the session name of the
// tmux client this process is nested inside, if any.
func (o *Orchestrator) CurrentSessionName(ctx context.Context) (string, error) {
	out, err := o.runChecked(ctx, "display-message", "-p", "#S")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RenameSession renames an existing session.
func (o *Orchestrator) RenameSession(ctx context.Context, oldName, newName string) error {
	if !o.SessionExists(ctx, oldName) {
		return ErrSessionNotFound
	}
	_, err := o.runChecked(ctx, "rename-session", "-t", oldName, newName)
	return err
}
