// Package sessionagent holds one multiplexer session's supervisory
// logic: change detector, poller, context window and manager, an
// Own-scoped memory store, and a model client.
package sessionagent

import (
	"context"

	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/types"
)

// maxToolIterations bounds the tool-call loop; exceeding it surfaces
// MaxIterationsExceeded, escalated by the caller to a DecisionNeeded
// blocker.
const maxToolIterations = 5

// Embedder turns text into a vector embedding for memory storage and
// search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer issues one chat completion. *llm.Client satisfies it; a
// scripted fake satisfies it in tests.
type Completer interface {
	Complete(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

// ChangeNotification is emitted by ProcessOutputChange when a capture
// change is significant enough to surface to the user.
type ChangeNotification struct {
	SessionID      types.SessionID
	Summary        string
	RequiresAction bool
	ChangeType     types.ChangeType
	Significance   types.Significance
}

// OutputAnalysis is the structured result of an LLM analysis pass over
// raw session output.
type OutputAnalysis struct {
	Summary            string
	DetectedCompletion bool
	WaitingForInput    bool
	ErrorDetected      string
	FilesChanged       []string
}

// Template binds an adapter's system prompt, optional model override,
// and completion parameters. It carries no tools or context strategy:
// every agent exposes the four built-in tools and uses the compaction
// strategy, whatever its template.
type Template struct {
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float32
}

const defaultSystemPrompt = `You are an autonomous coding session assistant. Track progress, surface blockers, and keep the user informed of meaningful state changes.`
