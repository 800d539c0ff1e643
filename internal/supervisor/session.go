package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/commander/internal/tmux"
)

// Adapter describes how to launch one assistant binary inside a
// multiplexer session.
type Adapter struct {
	// Name is the adapter selector stored on projects.
	Name string `yaml:"name"`
	// Command is the assistant binary plus arguments.
	Command []string `yaml:"command"`
	// SystemPrompt overrides the session agent's default prompt.
	SystemPrompt string `yaml:"system_prompt,omitempty"`
	// Model overrides the completion model for this adapter's
	// sessions.
	Model string `yaml:"model,omitempty"`
}

// EnsureAssistantSession locates or creates the multiplexer session
// for a project and, when freshly created, launches the adapter's
// assistant inside it.
func (s *Supervisor) EnsureAssistantSession(ctx context.Context, mux *tmux.Orchestrator, sessionName, workDir string, adapter Adapter) (StartResult, error) {
	if mux.SessionExists(ctx, sessionName) {
		return AlreadyRunning, nil
	}

	if err := mux.CreateSession(ctx, sessionName, workDir); err != nil {
		return 0, fmt.Errorf("create session %s: %w", sessionName, err)
	}

	if len(adapter.Command) > 0 {
		line := strings.Join(adapter.Command, " ")
		if err := mux.SendLine(ctx, sessionName, "", line); err != nil {
			return 0, fmt.Errorf("launch assistant in %s: %w", sessionName, err)
		}
	}

	s.logger.Info("created assistant session",
		"session", sessionName, "adapter", adapter.Name, "dir", workDir)
	return Started, nil
}
