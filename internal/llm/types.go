// Package llm is a thin, synchronous chat-completion client for an
// OpenAI-compatible endpoint: bearer auth, tool/function calls,
// a single error kind for any non-2xx response.
package llm

import "encoding/json"

// Role identifies the speaker of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one turn of the conversation sent to or received from the
// endpoint.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Tool describes a function the model may call.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Request is a single chat-completion call.
type Request struct {
	Model       string
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature float32
}

// FinishReason mirrors the upstream completion's stop reason.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool_calls"
)

// Response is the decoded result of a chat-completion call.
type Response struct {
	FinishReason FinishReason
	Content      string
	ToolCalls    []ToolCall
}

// HasToolCalls reports whether the model asked to invoke any tools.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// DecodedToolCall is a ToolCall with its Arguments decoded into a map.
type DecodedToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// DecodeToolCalls parses every tool call's JSON arguments string into a
// map, returning ResponseParse on the first malformed payload.
func (r *Response) DecodeToolCalls() ([]DecodedToolCall, error) {
	out := make([]DecodedToolCall, 0, len(r.ToolCalls))
	for _, tc := range r.ToolCalls {
		args := map[string]any{}
		if len(tc.Arguments) > 0 {
			if err := json.Unmarshal(tc.Arguments, &args); err != nil {
				return nil, &ResponseParseError{Err: err}
			}
		}
		out = append(out, DecodedToolCall{ID: tc.ID, Name: tc.Name, Arguments: args})
	}
	return out, nil
}
