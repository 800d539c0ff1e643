package sessionagent

import (
	"context"
	"fmt"

	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/types"
)

func newGoal(description string) *types.Goal {
	return &types.Goal{Description: description, Status: types.GoalPending}
}

// executeTool dispatches a decoded tool call to its handler.
func (a *Agent) executeTool(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	switch call.Name {
	case "search_memories":
		return a.executeSearchMemories(ctx, call)
	case "update_session_state":
		return a.executeUpdateSessionState(call)
	case "report_to_user":
		return a.executeReportToUser(ctx, call)
	case "analyze_output":
		return a.executeAnalyzeOutputTool(ctx, call)
	default:
		return "", &errToolNotFound{name: call.Name}
	}
}

func (a *Agent) executeSearchMemories(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	query, ok := argString(call.Arguments, "query")
	if !ok {
		return "", &errInvalidArguments{tool: call.Name, message: "missing required argument: query"}
	}
	limit := 5
	if l, ok := argFloat(call.Arguments, "limit"); ok {
		limit = int(l)
	}

	embedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed search query: %w", err)
	}

	results, err := a.memory.Search(ctx, embedding, limit)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "No matching memories found.", nil
	}
	out := "Found memories:\n"
	for _, r := range results {
		out += fmt.Sprintf("- (%.2f) %s\n", r.Score, r.Memory.Content)
	}
	return out, nil
}

func (a *Agent) executeUpdateSessionState(call llm.DecodedToolCall) (string, error) {
	var updates []string

	if goal, ok := argString(call.Arguments, "add_goal"); ok && goal != "" {
		a.state.Goals = append(a.state.Goals, newGoal(goal))
		updates = append(updates, "Added goal: "+goal)
	}
	if task, ok := argString(call.Arguments, "current_task"); ok && task != "" {
		a.state.CurrentTask = task
		updates = append(updates, "Set current task: "+task)
	}
	if progress, ok := argFloat(call.Arguments, "progress"); ok {
		a.state.Progress = progress
		updates = append(updates, fmt.Sprintf("Updated progress: %.0f%%", progress*100))
	}
	if blocker, ok := argString(call.Arguments, "add_blocker"); ok && blocker != "" {
		a.state.AddBlocker(blocker)
		updates = append(updates, "Added blocker: "+blocker)
	}
	if clear, ok := argBool(call.Arguments, "clear_blockers"); ok && clear {
		a.state.ClearBlockers()
		updates = append(updates, "Cleared all blockers")
	}
	if file, ok := argString(call.Arguments, "add_modified_file"); ok && file != "" {
		a.state.AddModifiedFile(file)
		updates = append(updates, "Tracked modified file: "+file)
	}

	if len(updates) == 0 {
		return "No state updates performed.", nil
	}
	out := "Session state updated:\n"
	for _, u := range updates {
		out += "- " + u + "\n"
	}
	return out, nil
}

func (a *Agent) executeReportToUser(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	summary, ok := argString(call.Arguments, "summary")
	if !ok {
		return "", &errInvalidArguments{tool: call.Name, message: "missing required argument: summary"}
	}

	report := fmt.Sprintf("Session Report [%s]:\nSummary: %s", a.sessionID, summary)
	if progress, ok := argFloat(call.Arguments, "progress"); ok {
		report += fmt.Sprintf("\nProgress: %.0f%%", progress*100)
	}
	if needsInput, ok := argBool(call.Arguments, "needs_input"); ok && needsInput {
		report += "\nStatus: NEEDS INPUT"
	}
	if hasError, ok := argBool(call.Arguments, "has_error"); ok && hasError {
		msg := "Unknown error"
		if em, ok := argString(call.Arguments, "error_message"); ok {
			msg = em
		}
		report += "\nError: " + msg
	}

	_ = a.StoreMemory(ctx, report)

	return "Report sent: " + summary, nil
}

func (a *Agent) executeAnalyzeOutputTool(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	output, ok := argString(call.Arguments, "output")
	if !ok {
		return "", &errInvalidArguments{tool: call.Name, message: "missing required argument: output"}
	}

	analysis, err := a.AnalyzeOutput(ctx, output)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"detected_completion=%v waiting_for_input=%v error_detected=%q files_changed=%v summary=%q",
		analysis.DetectedCompletion, analysis.WaitingForInput, analysis.ErrorDetected, analysis.FilesChanged, analysis.Summary,
	), nil
}
