// Package agentctx implements the per-agent context window and the
// context manager that dispatches strategies when token usage crosses
// configured thresholds.
package agentctx

import (
	"context"
	"strings"

	"github.com/haasonsaas/commander/internal/types"
)

// charsPerToken is the rough heuristic used to estimate token counts
// without a tokenizer.
const charsPerToken = 4

// DefaultMaxRecent is the default number of recent messages kept in
// full before they move to the pending-compaction buffer.
const DefaultMaxRecent = 5

// DefaultTokenBudget is the default token budget for a context window.
const DefaultTokenBudget = 8000

// Summarizer compacts an ordered message list into a single string and
// estimates a text's token count.
type Summarizer interface {
	Summarize(ctx context.Context, messages []types.Message) (string, error)
	EstimateTokens(text string) int
}

// AgentContext is the assembled payload handed to a session or user
// agent ahead of a completion call.
type AgentContext struct {
	CurrentTask       string
	RecentMessages    []types.Message
	SummarizedHistory string
	RelevantMemories  []*types.Memory
}

// Window maintains recent messages in full while summarizing older
// history to stay within a token budget.
type Window struct {
	maxRecent           int
	recent              []types.Message
	summarizedHistory   string
	currentTask         string
	tokenBudget         int
	summarizer          Summarizer
	pendingCompaction   []types.Message
	compactionThreshold int
}

// NewWindow creates a Window with explicit sizing.
func NewWindow(maxRecent, tokenBudget int, summarizer Summarizer) *Window {
	return &Window{
		maxRecent:           maxRecent,
		tokenBudget:         tokenBudget,
		summarizer:          summarizer,
		compactionThreshold: maxRecent,
	}
}

// NewDefaultWindow creates a Window using DefaultMaxRecent and
// DefaultTokenBudget.
func NewDefaultWindow(summarizer Summarizer) *Window {
	return NewWindow(DefaultMaxRecent, DefaultTokenBudget, summarizer)
}

// AddMessage appends msg, moving overflow into the pending-compaction
// buffer and triggering compaction once the buffer reaches threshold.
func (w *Window) AddMessage(ctx context.Context, msg types.Message) error {
	w.recent = append(w.recent, msg)

	for len(w.recent) > w.maxRecent {
		w.pendingCompaction = append(w.pendingCompaction, w.recent[0])
		w.recent = w.recent[1:]
	}

	if len(w.pendingCompaction) >= w.compactionThreshold {
		return w.Compact(ctx)
	}
	return nil
}

// SetTask sets or clears the current task string.
func (w *Window) SetTask(task string) { w.currentTask = task }

// CurrentTask returns the current task string, empty if unset.
func (w *Window) CurrentTask() string { return w.currentTask }

// RecentMessages returns the in-full recent messages.
func (w *Window) RecentMessages() []types.Message { return w.recent }

// SummarizedHistory returns the rolling summary.
func (w *Window) SummarizedHistory() string { return w.summarizedHistory }

// PendingCount returns the number of messages awaiting compaction.
func (w *Window) PendingCount() int { return len(w.pendingCompaction) }

// EstimatedTokens sums the estimated token cost of recent messages,
// the rolling summary, and the current task.
func (w *Window) EstimatedTokens() int {
	total := 0
	for _, m := range w.recent {
		total += w.summarizer.EstimateTokens(m.Content)
	}
	total += w.summarizer.EstimateTokens(w.summarizedHistory)
	if w.currentTask != "" {
		total += w.summarizer.EstimateTokens(w.currentTask)
	}
	return total
}

// WithinBudget reports whether EstimatedTokens is at or below the
// configured token budget.
func (w *Window) WithinBudget() bool {
	return w.EstimatedTokens() <= w.tokenBudget
}

// BuildContext assembles an AgentContext from the window's current
// state plus the given relevant memories.
func (w *Window) BuildContext(relevantMemories []*types.Memory) *AgentContext {
	return &AgentContext{
		CurrentTask:       w.currentTask,
		RecentMessages:    append([]types.Message(nil), w.recent...),
		SummarizedHistory: w.summarizedHistory,
		RelevantMemories:  relevantMemories,
	}
}

// Compact summarizes the pending-compaction buffer into the rolling
// summary, then trims the summary back within budget.
func (w *Window) Compact(ctx context.Context) error {
	if len(w.pendingCompaction) == 0 {
		return nil
	}

	newSummary, err := w.summarizer.Summarize(ctx, w.pendingCompaction)
	if err != nil {
		return err
	}

	if w.summarizedHistory == "" {
		w.summarizedHistory = newSummary
	} else {
		w.summarizedHistory = w.summarizedHistory + "\n\n[Later in conversation]\n" + newSummary
	}

	w.pendingCompaction = nil

	w.trimToBudget()
	return nil
}

// trimToBudget progressively truncates the rolling summary, preferring
// to cut at sentence or line boundaries, until the window is within
// budget or the summary is empty.
func (w *Window) trimToBudget() {
	for !w.WithinBudget() && w.summarizedHistory != "" {
		currentLen := len(w.summarizedHistory)
		targetLen := (currentLen * 3) / 4

		if targetLen < 100 {
			w.summarizedHistory = ""
			continue
		}

		truncated := w.summarizedHistory[:targetLen]
		breakPos := strings.LastIndex(truncated, ". ")
		if breakPos < 0 {
			breakPos = strings.LastIndex(truncated, "\n")
		}
		if breakPos >= 0 {
			w.summarizedHistory = w.summarizedHistory[:breakPos+1]
		} else {
			w.summarizedHistory = truncated
		}
	}
}

// Clear resets the window to its initial empty state.
func (w *Window) Clear() {
	w.recent = nil
	w.pendingCompaction = nil
	w.summarizedHistory = ""
	w.currentTask = ""
}
