package useragent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/commander/internal/driver"
	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/sessionagent"
	"github.com/haasonsaas/commander/internal/types"
)

// ResultKind discriminates an autonomous run's outcome.
type ResultKind int

const (
	// ResultComplete means every goal finished.
	ResultComplete ResultKind = iota
	// ResultNeedsInput means blockers require user input.
	ResultNeedsInput
	// ResultCheckIn means the iteration cap forced a check-in.
	ResultCheckIn
)

// Result is the terminal outcome of ProcessAutonomous or
// ResumeAutonomous.
type Result struct {
	Kind          ResultKind
	Summary       string
	Reason        string
	Progress      string
	Blockers      []types.Blocker
	GoalsAchieved []*types.Goal
}

// ProcessAutonomous decomposes the request into goals and drives them
// to completion, consulting the driver before every step. Returns when
// the driver decides Complete, NeedsInput, or CheckIn.
func (a *Agent) ProcessAutonomous(ctx context.Context, initialRequest string) (*Result, *driver.Driver, error) {
	a.logger.Info("starting autonomous processing", "request", truncate(initialRequest, 50))

	d := driver.New()
	goals, err := a.parseGoals(ctx, initialRequest)
	if err != nil {
		return nil, nil, err
	}
	d.SetGoals(goals)
	a.logger.Info("parsed goals from request", "count", len(goals))

	result, err := a.runLoop(ctx, d)
	return result, d, err
}

// ResumeAutonomous continues a stopped run after the user responds:
// blockers are cleared, the iteration count resets, the input is
// processed normally, and the same loop resumes.
func (a *Agent) ResumeAutonomous(ctx context.Context, userInput string, d *driver.Driver) (*Result, error) {
	a.logger.Info("resuming autonomous processing")

	d.ClearBlockers()
	d.ResetIterations()

	if _, err := a.Process(ctx, userInput, nil); err != nil {
		return nil, err
	}

	return a.runLoop(ctx, d)
}

func (a *Agent) runLoop(ctx context.Context, d *driver.Driver) (*Result, error) {
	for {
		decision := d.ShouldContinue()
		switch decision.Kind {
		case driver.DecideContinue:
			blocker, err := a.executeNextAction(ctx, d)
			if err != nil {
				a.logger.Warn("action error", "error", err)
				if b := a.classifyErrorAsBlocker(err); b != nil {
					d.AddBlocker(*b)
				} else {
					a.logger.Debug("error was recoverable, continuing")
				}
			} else if blocker != nil {
				d.AddBlocker(*blocker)
			}
			d.IncrementIteration()

		case driver.DecideStopForUser:
			a.logger.Info("stopping for user input", "reason", decision.Reason)
			return &Result{
				Kind:     ResultNeedsInput,
				Reason:   decision.Reason,
				Blockers: decision.Blockers,
				Progress: d.FormatProgress(),
			}, nil

		case driver.DecideCheckIn:
			a.logger.Info("periodic check-in", "reason", decision.Reason)
			return &Result{
				Kind:     ResultCheckIn,
				Reason:   decision.Reason,
				Progress: decision.Progress,
			}, nil

		case driver.DecideComplete:
			a.logger.Info("all goals complete")
			return &Result{
				Kind:          ResultComplete,
				Summary:       decision.Summary,
				GoalsAchieved: d.Goals(),
			}, nil
		}
	}
}

// parseGoals asks the model for a numbered goal list and parses one
// goal per line, stripping numbering and bullets. An unparseable
// response wraps the whole request as a single goal.
func (a *Agent) parseGoals(ctx context.Context, request string) ([]*types.Goal, error) {
	goalPrompt := fmt.Sprintf(`Analyze this request and extract actionable goals.
Return goals as a simple numbered list, one goal per line.
Keep goals specific and actionable.

Request: %s

Goals:`, request)

	resp, err := a.client.Complete(ctx, &llm.Request{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a task decomposition assistant. Extract clear, actionable goals from user requests."},
			{Role: llm.RoleUser, Content: goalPrompt},
		},
	})
	if err != nil {
		return nil, err
	}

	var goals []*types.Goal
	for _, line := range strings.Split(resp.Content, "\n") {
		cleaned := strings.TrimLeft(strings.TrimSpace(line), "0123456789.-) ")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}
		goals = append(goals, &types.Goal{Description: cleaned, Status: types.GoalPending})
	}

	if len(goals) == 0 {
		goals = []*types.Goal{{Description: request, Status: types.GoalPending}}
	}
	return goals, nil
}

// executeNextAction advances one goal by one concrete step. Returns a
// blocker if the model declared itself blocked, nil on progress or
// completion.
func (a *Agent) executeNextAction(ctx context.Context, d *driver.Driver) (*types.Blocker, error) {
	var nextGoal string
	if current := d.CurrentGoal(); current != nil {
		nextGoal = current.Description
	} else if pending := d.NextPendingGoal(); pending != nil {
		nextGoal = pending.Description
		d.UpdateGoalStatus(nextGoal, types.GoalInProgress)
	} else {
		return nil, nil
	}

	a.logger.Debug("working on goal", "goal", nextGoal)

	actionPrompt := fmt.Sprintf(`You are working on this goal: %s

Current progress:
%s

Determine the next concrete action to take. If you need to use a tool, use it.
If this goal is complete, say "[GOAL COMPLETE]".
If you're blocked and need user input, say "[BLOCKED]" followed by what you need.

What is your next action?`, nextGoal, d.FormatProgress())

	response, err := a.Process(ctx, actionPrompt, nil)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(response)

	if strings.Contains(lower, "[goal complete]") || strings.Contains(lower, "completed") || strings.Contains(lower, "[done]") {
		d.CompleteGoal(nextGoal)
		a.logger.Info("goal completed", "goal", nextGoal)
		return nil, nil
	}

	if strings.Contains(lower, "[blocked]") || strings.Contains(lower, "need your input") || strings.Contains(lower, "cannot proceed") {
		blocker := types.Blocker{
			Kind:    classifyBlockerKind(response),
			Reason:  extractBlockerReason(response),
			Options: extractOptions(response),
		}
		return &blocker, nil
	}

	// Goal still in progress.
	return nil, nil
}

// classifyErrorAsBlocker maps an action error to a blocker, or
// nil for recoverable errors.
func (a *Agent) classifyErrorAsBlocker(err error) *types.Blocker {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		b := driver.NewBlocker(types.ExternalDependency, "Configuration error: "+cfgErr.Message)
		return &b
	}

	var maxErr *MaxIterationsExceededError
	var sessMaxErr *sessionagent.MaxIterationsExceededError
	if errors.As(err, &maxErr) || errors.As(err, &sessMaxErr) {
		b := driver.NewBlocker(types.DecisionNeeded, "Maximum iterations reached - may need guidance")
		return &b
	}

	var toolErr *ToolExecutionError
	if errors.As(err, &toolErr) {
		if strings.Contains(toolErr.Message, "not found") || strings.Contains(toolErr.Message, "permission") {
			b := driver.NewBlocker(
				types.ErrorRequiresJudgment,
				fmt.Sprintf("Tool '%s' failed: %s", toolErr.Tool, toolErr.Message),
				"Retry", "Skip this step", "Try alternative",
			)
			return &b
		}
	}

	// Most errors are recoverable.
	return nil
}

// extractBlockerReason pulls the reason after the [BLOCKED] marker,
// falling back to any "need ... input/decision/information" line.
func extractBlockerReason(content string) string {
	lower := strings.ToLower(content)
	if idx := strings.Index(lower, "[blocked]"); idx >= 0 {
		after := content[idx+len("[blocked]"):]
		reason := strings.TrimSpace(after)
		if nl := strings.IndexByte(reason, '\n'); nl >= 0 {
			reason = reason[:nl]
		}
		reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
		if reason != "" {
			return reason
		}
	}

	for _, line := range strings.Split(content, "\n") {
		l := strings.ToLower(line)
		if strings.Contains(l, "need") &&
			(strings.Contains(l, "input") || strings.Contains(l, "decision") || strings.Contains(l, "information")) {
			return strings.TrimSpace(line)
		}
	}

	return "User input needed to proceed"
}

// classifyBlockerKind infers the blocker kind from response keywords.
func classifyBlockerKind(content string) types.BlockerKind {
	lower := strings.ToLower(content)

	switch {
	case strings.Contains(lower, "credential") || strings.Contains(lower, "api key") || strings.Contains(lower, "access"):
		return types.ExternalDependency
	case strings.Contains(lower, "decision") || strings.Contains(lower, "choose") || strings.Contains(lower, "option"):
		return types.DecisionNeeded
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return types.ErrorRequiresJudgment
	case strings.Contains(lower, "unclear") || strings.Contains(lower, "ambiguous") || strings.Contains(lower, "which"):
		return types.AmbiguousRequirements
	default:
		return types.InformationNeeded
	}
}

// extractOptions collects numbered option lines from a response.
func extractOptions(content string) []string {
	var options []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= 2 {
			continue
		}
		if trimmed[0] < '0' || trimmed[0] > '9' {
			continue
		}
		rest := strings.TrimLeft(trimmed[1:], ".):  ")
		if rest != "" {
			options = append(options, rest)
		}
	}
	return options
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
