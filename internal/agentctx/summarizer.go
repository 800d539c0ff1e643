package agentctx

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/types"
)

// TrivialSummarizer concatenates role-prefixed lines, each truncated to
// 100 chars, with no model call. Used for testing and as a fallback
// when no model client is configured.
type TrivialSummarizer struct{}

// EstimateTokens is the shared ~4-chars-per-token heuristic.
func (TrivialSummarizer) EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// Summarize never fails; it is the zero-dependency fallback.
func (TrivialSummarizer) Summarize(_ context.Context, messages []types.Message) (string, error) {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		content := m.Content
		if len(content) > 100 {
			content = content[:100] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, content))
	}
	return strings.Join(lines, "\n"), nil
}

// DefaultLLMSummarizerModel is used when no explicit model is given to
// NewLLMSummarizer.
const DefaultLLMSummarizerModel = "gpt-4o-mini"

// LLMSummarizer issues a single low-temperature completion per call,
// instructing the model to preserve facts, decisions, action items, and
// outcomes.
type LLMSummarizer struct {
	client *llm.Client
	model  string
}

// NewLLMSummarizer creates an LLMSummarizer using DefaultLLMSummarizerModel.
func NewLLMSummarizer(client *llm.Client) *LLMSummarizer {
	return NewLLMSummarizerWithModel(client, DefaultLLMSummarizerModel)
}

// NewLLMSummarizerWithModel creates an LLMSummarizer pinned to model.
func NewLLMSummarizerWithModel(client *llm.Client, model string) *LLMSummarizer {
	return &LLMSummarizer{client: client, model: model}
}

// EstimateTokens is the shared ~4-chars-per-token heuristic.
func (s *LLMSummarizer) EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

const summarizePrompt = `Summarize this conversation concisely, preserving:
- Key facts and information shared
- Decisions made and their rationale
- Action items and their outcomes
- Important context for future interactions

Be brief but comprehensive. Use bullet points where appropriate.

Conversation:
%s

Summary:`

// Summarize issues one completion call with a capped output budget and
// low temperature.
func (s *LLMSummarizer) Summarize(ctx context.Context, messages []types.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}

	var conversation strings.Builder
	for i, m := range messages {
		if i > 0 {
			conversation.WriteString("\n\n")
		}
		conversation.WriteString(fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	req := &llm.Request{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(summarizePrompt, conversation.String())}},
		MaxTokens:   500,
		Temperature: 0.3,
	}

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return "", &llm.ResponseParseError{Err: fmt.Errorf("no content in summarization response")}
	}
	return resp.Content, nil
}

var (
	_ Summarizer = TrivialSummarizer{}
	_ Summarizer = (*LLMSummarizer)(nil)
)
