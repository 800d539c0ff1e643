package frontend

import (
	"context"
	"strings"

	"github.com/haasonsaas/commander/internal/llm"
)

// Completer issues one chat completion; *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

// maxSummaryInputChars bounds how much collected output one
// summarization request carries.
const maxSummaryInputChars = 8000

// ModelSummarizer condenses collected session output with one
// completion call.
type ModelSummarizer struct {
	client Completer
	model  string
}

// NewModelSummarizer creates a ModelSummarizer.
func NewModelSummarizer(client Completer, model string) *ModelSummarizer {
	return &ModelSummarizer{client: client, model: model}
}

// SummarizeResponse asks the model to answer the user's query from the
// collected output, falling back to the raw lines on empty content.
func (m *ModelSummarizer) SummarizeResponse(ctx context.Context, query string, lines []string) (string, error) {
	joined := strings.Join(lines, "\n")
	if len(joined) > maxSummaryInputChars {
		joined = joined[len(joined)-maxSummaryInputChars:]
	}

	resp, err := m.client.Complete(ctx, &llm.Request{
		Model: m.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Summarize the assistant session output below as a direct answer to the user's request. Keep results, errors, and questions; drop boilerplate."},
			{Role: llm.RoleUser, Content: "Request: " + query + "\n\nSession output:\n" + joined},
		},
		Temperature: 0.2,
		MaxTokens:   400,
	})
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return joined, nil
	}
	return resp.Content, nil
}

var _ Summarizer = (*ModelSummarizer)(nil)

// ModelChatter answers disconnected input with a direct model
// conversation.
type ModelChatter struct {
	client Completer
	model  string
}

// NewModelChatter creates a ModelChatter.
func NewModelChatter(client Completer, model string) *ModelChatter {
	return &ModelChatter{client: client, model: model}
}

// Chat sends one message and returns the reply.
func (m *ModelChatter) Chat(ctx context.Context, message string) (string, error) {
	resp, err := m.client.Complete(ctx, &llm.Request{
		Model: m.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: message},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

var _ Chatter = (*ModelChatter)(nil)
