package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// headerCallerName and headerCallerVersion are the two static headers
// that identify this client to the endpoint.
const (
	headerCallerName    = "X-Commander-Client"
	headerCallerVersion = "X-Commander-Version"

	callerName    = "commander"
	callerVersion = "1"
)

// headerRoundTripper injects static identifying headers on every
// request, since go-openai has no native option for extra static
// headers.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := rt.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	for k, v := range rt.headers {
		clone.Header.Set(k, v)
	}
	return base.RoundTrip(clone)
}

// Client is a synchronous chat-completion client for an
// OpenAI-compatible endpoint.
type Client struct {
	oa *openai.Client
}

// Config configures a Client.
type Config struct {
	// APIKey is the bearer token. Required.
	APIKey string
	// BaseURL overrides the default OpenAI API base, for
	// OpenAI-compatible endpoints.
	BaseURL string
}

// New creates a Client. The returned error is non-nil only if APIKey is
// empty, surfaced as a Configuration error by the caller.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}

	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = cfg.BaseURL
	}
	oaCfg.HTTPClient = &http.Client{
		Transport: &headerRoundTripper{
			headers: map[string]string{
				headerCallerName:    callerName,
				headerCallerVersion: callerVersion,
			},
		},
	}

	return &Client{oa: openai.NewClientWithConfig(oaCfg)}, nil
}

// Complete issues a single, non-streaming chat-completion request.
func (c *Client) Complete(ctx context.Context, req *Request) (*Response, error) {
	oaReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if len(req.Tools) > 0 {
		oaReq.Tools = toOpenAITools(req.Tools)
	}

	resp, err := c.oa.CreateChatCompletion(ctx, oaReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ModelInvocationError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return nil, &ModelInvocationError{Status: 0, Body: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return nil, &ResponseParseError{Err: errors.New("no choices in response")}
	}

	return fromOpenAIChoice(resp.Choices[0])
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		oa := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			oa.ToolCalls = append(oa.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out[i] = oa
	}
	return out
}

func toOpenAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if len(t.Parameters) > 0 {
			_ = json.Unmarshal(t.Parameters, &schema)
		}
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		}
	}
	return out
}

func fromOpenAIChoice(choice openai.ChatCompletionChoice) (*Response, error) {
	resp := &Response{
		FinishReason: FinishReason(choice.FinishReason),
		Content:      choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp, nil
}
