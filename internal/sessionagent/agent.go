package sessionagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/commander/internal/agentctx"
	"github.com/haasonsaas/commander/internal/changedetect"
	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/memory"
	"github.com/haasonsaas/commander/internal/types"
)

// Agent holds one multiplexer session's supervisory logic, composed of
// a change detector, poller, context window, context manager, an
// Own-scoped memory store, and a model client.
type Agent struct {
	sessionID types.SessionID
	adapter   string
	template  Template

	state    *types.SessionState
	window   *agentctx.Window
	manager  *agentctx.Manager
	memory   *memory.AccessControlledStore
	detector *changedetect.Detector
	poller   *changedetect.Poller

	client   Completer
	embedder Embedder

	tools []llm.Tool
}

// New creates an Agent bound to sessionID, composing the C3-C9
// capabilities.
func New(
	sessionID types.SessionID,
	adapter string,
	template Template,
	client Completer,
	embedder Embedder,
	mem *memory.AccessControlledStore,
) *Agent {
	if template.SystemPrompt == "" {
		template.SystemPrompt = defaultSystemPrompt
	}

	return &Agent{
		sessionID: sessionID,
		adapter:   adapter,
		template:  template,
		state:     types.NewSessionState(),
		window:    agentctx.NewDefaultWindow(agentctx.TrivialSummarizer{}),
		manager:   agentctx.NewManager(agentctx.CompactionStrategy(), 128_000),
		memory:    mem,
		detector:  changedetect.NewDetector(),
		poller:    changedetect.NewPoller(changedetect.DefaultBaseInterval, changedetect.DefaultMaxInterval),
		client:    client,
		embedder:  embedder,
		tools:     builtinTools(),
	}
}

// SessionID returns the bound session ID.
func (a *Agent) SessionID() types.SessionID { return a.sessionID }

// State returns the session's observed state.
func (a *Agent) State() *types.SessionState { return a.state }

// Window returns the agent's context window.
func (a *Agent) Window() *agentctx.Window { return a.window }

// Manager returns the agent's context manager.
func (a *Agent) Manager() *agentctx.Manager { return a.manager }

// ResetChangeDetector clears the detector's baseline, used when
// starting a new task or after significant user interaction.
func (a *Agent) ResetChangeDetector() { a.detector.Reset() }

// PollInterval returns the adaptive poller's current interval, set by
// the most recent ProcessOutputChange classification.
func (a *Agent) PollInterval() time.Duration { return a.poller.Interval() }

// ProcessOutputChange runs the smart-change pipeline: a
// deterministic classification first, an LLM analysis only for
// Significance >= High, and a notification only when warranted.
func (a *Agent) ProcessOutputChange(ctx context.Context, output string) (*ChangeNotification, error) {
	change := a.detector.Detect(output)
	a.poller.NextInterval(change)

	if !change.IsMeaningful() {
		return nil, nil
	}

	var summary string
	requiresAction := false

	if change.Significance >= types.SigHigh {
		analysis, err := a.AnalyzeOutput(ctx, output)
		if err != nil {
			return nil, err
		}
		requiresAction = analysis.WaitingForInput || analysis.ErrorDetected != ""
		summary = analysis.Summary
		if summary == "" {
			summary = change.Summary
		}
	} else {
		summary = change.Summary
	}

	shouldNotify := change.RequiresNotification() || requiresAction ||
		change.ChangeType == types.ChangeError || change.ChangeType == types.ChangeWaitingForInput

	if !shouldNotify {
		return nil, nil
	}

	return &ChangeNotification{
		SessionID:      a.sessionID,
		Summary:        summary,
		RequiresAction: requiresAction,
		ChangeType:     change.ChangeType,
		Significance:   change.Significance,
	}, nil
}

// AnalyzeOutput issues one completion call asking the model to extract
// completion/waiting/error/file-change signals from raw output, then
// folds the result into session state.
func (a *Agent) AnalyzeOutput(ctx context.Context, output string) (*OutputAnalysis, error) {
	a.state.LastRawOutput = output

	truncated := output
	if len(truncated) > 4000 {
		truncated = truncated[:4000]
	}

	prompt := fmt.Sprintf(`Analyze the following session output and extract:
1. Whether a task was completed (look for success messages, "done", completion indicators)
2. Whether the session is waiting for user input (prompts, questions, input requests)
3. Any errors or warnings (error messages, failures, stack traces)
4. Files that were modified (created, edited, deleted)

Output to analyze:
%s

Provide a brief summary and structured analysis.`, truncated)

	resp, err := a.client.Complete(ctx, &llm.Request{
		Model: a.modelOrDefault(),
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: a.template.SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	analysis := parseAnalysisResponse(resp.Content)
	a.updateState(analysis)
	return analysis, nil
}

func parseAnalysisResponse(response string) *OutputAnalysis {
	lower := strings.ToLower(response)
	firstLine := "Analysis complete"
	if lines := strings.SplitN(response, "\n", 2); lines[0] != "" {
		firstLine = lines[0]
	}

	analysis := &OutputAnalysis{Summary: firstLine}
	analysis.DetectedCompletion = strings.Contains(lower, "completed") ||
		strings.Contains(lower, "success") ||
		strings.Contains(lower, "finished") ||
		strings.Contains(lower, "done")
	analysis.WaitingForInput = strings.Contains(lower, "waiting for input") ||
		strings.Contains(lower, "requires input") ||
		strings.Contains(lower, "user input needed") ||
		strings.Contains(lower, "prompt")

	if strings.Contains(lower, "error") || strings.Contains(lower, "failed") {
		for _, line := range strings.Split(response, "\n") {
			lineLower := strings.ToLower(line)
			if strings.Contains(lineLower, "error") || strings.Contains(lineLower, "failed") {
				analysis.ErrorDetected = strings.TrimSpace(line)
				break
			}
		}
	}

	for _, line := range strings.Split(response, "\n") {
		lineLower := strings.ToLower(line)
		for _, marker := range []string{"modified:", "created:", "edited:"} {
			if strings.Contains(lineLower, marker) {
				if idx := strings.Index(line, ":"); idx >= 0 {
					path := strings.TrimSpace(line[idx+1:])
					if path != "" {
						analysis.FilesChanged = append(analysis.FilesChanged, path)
					}
				}
			}
		}
	}

	return analysis
}

func (a *Agent) updateState(analysis *OutputAnalysis) {
	for _, f := range analysis.FilesChanged {
		a.state.AddModifiedFile(f)
	}
	if analysis.DetectedCompletion {
		a.state.Progress = 1.0
		a.state.CurrentTask = ""
	}
	if analysis.ErrorDetected != "" {
		a.state.AddBlocker(analysis.ErrorDetected)
	}
	if analysis.Summary != "" {
		a.window.SetTask(a.state.CurrentTask)
	}
}

func (a *Agent) modelOrDefault() string {
	if a.template.Model != "" {
		return a.template.Model
	}
	return "gpt-4o-mini"
}

// StoreMemory embeds content and stores it against this session's own
// agent ID.
func (a *Agent) StoreMemory(ctx context.Context, content string) error {
	embedding, err := a.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed memory content: %w", err)
	}
	return a.memory.Store(ctx, types.NewMemory("", content, embedding))
}
