package useragent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/types"
)

func rawSchema(schema string) json.RawMessage { return json.RawMessage(schema) }

// coordinatorTools returns the coordinator's tool set.
func coordinatorTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "search_all_memories",
			Description: "Search memories across every agent by semantic similarity.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string"},
					"limit": {"type": "integer"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "search_memories",
			Description: "Search one specific agent's memories by semantic similarity.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"agent_id": {"type": "string"},
					"query": {"type": "string"},
					"limit": {"type": "integer"}
				},
				"required": ["agent_id", "query"]
			}`),
		},
		{
			Name:        "delegate_to_session",
			Description: "Delegate a task to a coding session for execution.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"session_id": {"type": "string"},
					"task": {"type": "string"},
					"context": {"type": "string"}
				},
				"required": ["session_id", "task"]
			}`),
		},
		{
			Name:        "get_session_status",
			Description: "Read a session's current goals, task, progress and blockers.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"session_id": {"type": "string"}
				},
				"required": ["session_id"]
			}`),
		},
	}
}

func (a *Agent) executeTool(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	switch call.Name {
	case "search_all_memories":
		return a.executeSearchAllMemories(ctx, call)
	case "search_memories":
		return a.executeSearchMemories(ctx, call)
	case "delegate_to_session":
		return a.executeDelegateToSession(ctx, call)
	case "get_session_status":
		return a.executeGetSessionStatus(call)
	default:
		return "", &ToolExecutionError{Tool: call.Name, Message: "tool not found"}
	}
}

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return fallback
}

func formatResults(results []struct {
	Content string
	Score   float32
	AgentID string
}) string {
	if len(results) == 0 {
		return "No matching memories found."
	}
	var b strings.Builder
	b.WriteString("Found memories:\n")
	for _, r := range results {
		if r.AgentID != "" {
			fmt.Fprintf(&b, "- [%s] (%.2f) %s\n", r.AgentID, r.Score, r.Content)
		} else {
			fmt.Fprintf(&b, "- (%.2f) %s\n", r.Score, r.Content)
		}
	}
	return b.String()
}

func (a *Agent) executeSearchAllMemories(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	query, ok := argString(call.Arguments, "query")
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: "missing required argument: query"}
	}
	limit := argInt(call.Arguments, "limit", 5)

	embedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return "", &ToolExecutionError{Tool: call.Name, Message: err.Error()}
	}

	results, err := a.memory.Search(ctx, embedding, limit)
	if err != nil {
		return "", &ToolExecutionError{Tool: call.Name, Message: err.Error()}
	}

	rows := make([]struct {
		Content string
		Score   float32
		AgentID string
	}, len(results))
	for i, r := range results {
		rows[i].Content = r.Memory.Content
		rows[i].Score = r.Score
		rows[i].AgentID = r.Memory.AgentID
	}
	return formatResults(rows), nil
}

func (a *Agent) executeSearchMemories(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	agentID, ok := argString(call.Arguments, "agent_id")
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: "missing required argument: agent_id"}
	}
	query, ok := argString(call.Arguments, "query")
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: "missing required argument: query"}
	}
	limit := argInt(call.Arguments, "limit", 5)

	embedding, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return "", &ToolExecutionError{Tool: call.Name, Message: err.Error()}
	}

	results, err := a.memory.Inner().Search(ctx, embedding, agentID, limit)
	if err != nil {
		return "", &ToolExecutionError{Tool: call.Name, Message: err.Error()}
	}

	rows := make([]struct {
		Content string
		Score   float32
		AgentID string
	}, len(results))
	for i, r := range results {
		rows[i].Content = r.Memory.Content
		rows[i].Score = r.Score
	}
	return formatResults(rows), nil
}

func (a *Agent) executeDelegateToSession(ctx context.Context, call llm.DecodedToolCall) (string, error) {
	sessionID, ok := argString(call.Arguments, "session_id")
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: "missing required argument: session_id"}
	}
	task, ok := argString(call.Arguments, "task")
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: "missing required argument: task"}
	}

	handle, ok := a.session(types.SessionID(sessionID))
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: fmt.Sprintf("session not found: %s", sessionID)}
	}

	a.logger.Debug("delegating task", "session_id", sessionID, "task", task)

	message := task
	if extra, ok := argString(call.Arguments, "context"); ok && extra != "" {
		message = task + "\n\nContext:\n" + extra
	}

	response, err := handle.Process(ctx, message, nil)
	if err != nil {
		return "", &ToolExecutionError{Tool: call.Name, Message: err.Error()}
	}
	return fmt.Sprintf("Session %s responded:\n%s", sessionID, response), nil
}

func (a *Agent) executeGetSessionStatus(call llm.DecodedToolCall) (string, error) {
	sessionID, ok := argString(call.Arguments, "session_id")
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: "missing required argument: session_id"}
	}

	handle, ok := a.session(types.SessionID(sessionID))
	if !ok {
		return "", &ToolExecutionError{Tool: call.Name, Message: fmt.Sprintf("session not found: %s", sessionID)}
	}

	state := handle.State()
	var goals []string
	for _, g := range state.Goals {
		goals = append(goals, fmt.Sprintf("%s (%s)", g.Description, g.Status))
	}
	return fmt.Sprintf(
		"Session %s:\n- Current task: %q\n- Progress: %.0f%%\n- Goals: %s\n- Blockers: %s\n- Modified files: %s",
		sessionID,
		state.CurrentTask,
		state.Progress*100,
		strings.Join(goals, "; "),
		strings.Join(state.Blockers, "; "),
		strings.Join(state.ModifiedFiles, ", "),
	), nil
}
