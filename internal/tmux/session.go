package tmux

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Session describes one tmux session as reported by list-sessions.
type Session struct {
	Name      string
	CreatedAt time.Time
}

// parseSession parses a "#{session_name}:#{session_created}" line.
func parseSession(line string) (Session, error) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return Session{}, fmt.Errorf("tmux: malformed session line %q", line)
	}
	name := line[:idx]
	epoch, err := strconv.ParseInt(line[idx+1:], 10, 64)
	if err != nil {
		return Session{}, fmt.Errorf("tmux: malformed session line %q: %w", line, err)
	}
	return Session{Name: name, CreatedAt: time.Unix(epoch, 0)}, nil
}

// Pane describes one tmux pane as reported by list-panes.
type Pane struct {
	ID     string
	Index  int
	Active bool
	Width  int
	Height int
}

// parsePane parses a "#{pane_id}:#{pane_index}:#{pane_active}:#{pane_width}:#{pane_height}" line.
func parsePane(line string) (Pane, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 5 {
		return Pane{}, fmt.Errorf("tmux: malformed pane line %q", line)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return Pane{}, fmt.Errorf("tmux: malformed pane line %q: %w", line, err)
	}
	width, err := strconv.Atoi(parts[3])
	if err != nil {
		return Pane{}, fmt.Errorf("tmux: malformed pane line %q: %w", line, err)
	}
	height, err := strconv.Atoi(parts[4])
	if err != nil {
		return Pane{}, fmt.Errorf("tmux: malformed pane line %q: %w", line, err)
	}
	return Pane{
		ID:     parts[0],
		Index:  index,
		Active: parts[2] == "1",
		Width:  width,
		Height: height,
	}, nil
}
