package sessionagent

import (
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/commander/internal/llm"
)

func rawSchema(schema string) json.RawMessage { return json.RawMessage(schema) }

// builtinTools returns the four built-in tools every session agent
// exposes.
func builtinTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "search_memories",
			Description: "Search this session's own stored memories by semantic similarity.",
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
			Name:        "update_session_state",
			Description: "Update goals, current task, progress, blockers, or modified files for this session.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"add_goal": {"type": "string"},
					"current_task": {"type": "string"},
					"progress": {"type": "number"},
					"add_blocker": {"type": "string"},
					"clear_blockers": {"type": "boolean"},
					"add_modified_file": {"type": "string"}
				}
			}`),
		},
		{
			Name:        "report_to_user",
			Description: "Report a status summary to the user, optionally flagging that input or attention is needed.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"summary": {"type": "string"},
					"progress": {"type": "number"},
					"needs_input": {"type": "boolean"},
					"has_error": {"type": "boolean"},
					"error_message": {"type": "string"}
				},
				"required": ["summary"]
			}`),
		},
		{
			Name:        "analyze_output",
			Description: "Run a full analysis pass over raw session output.",
			Parameters: rawSchema(`{
				"type": "object",
				"properties": {
					"output": {"type": "string"}
				},
				"required": ["output"]
			}`),
		},
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

func argFloat(args map[string]any, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func argBool(args map[string]any, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// errToolNotFound reports a tool call the agent has no handler for.
type errToolNotFound struct{ name string }

func (e *errToolNotFound) Error() string { return fmt.Sprintf("tool not found: %s", e.name) }

// errInvalidArguments reports a malformed tool-call argument set.
type errInvalidArguments struct {
	tool, message string
}

func (e *errInvalidArguments) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.tool, e.message)
}
