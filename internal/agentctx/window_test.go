package agentctx

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/commander/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(role types.Role, content string) types.Message {
	return types.Message{Role: role, Content: content}
}

func TestWindowCreation(t *testing.T) {
	w := NewWindow(5, 8000, TrivialSummarizer{})
	assert.Empty(t, w.RecentMessages())
	assert.Empty(t, w.SummarizedHistory())
	assert.Empty(t, w.CurrentTask())
}

func TestAddMessagesWithinLimit(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(5, 8000, TrivialSummarizer{})
	for i := 0; i < 5; i++ {
		require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "message")))
	}
	assert.Len(t, w.RecentMessages(), 5)
	assert.Zero(t, w.PendingCount())
}

func TestMessagesMoveToPending(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(3, 8000, TrivialSummarizer{})
	for i := 0; i < 5; i++ {
		require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "m")))
	}
	assert.Len(t, w.RecentMessages(), 3)
	assert.Equal(t, 2, w.PendingCount())
}

func TestAutoCompaction(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(3, 8000, TrivialSummarizer{})
	for i := 0; i < 6; i++ {
		require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "hello")))
	}
	assert.Len(t, w.RecentMessages(), 3)
	assert.NotEmpty(t, w.SummarizedHistory())
}

func TestBuildContext(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(5, 8000, TrivialSummarizer{})
	w.SetTask("Test task")
	require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "Hello")))
	require.NoError(t, w.AddMessage(ctx, msg(types.RoleAssistant, "Hi there!")))

	built := w.BuildContext(nil)
	assert.Equal(t, "Test task", built.CurrentTask)
	assert.Len(t, built.RecentMessages, 2)
}

func TestBuildContextWithMemories(t *testing.T) {
	w := NewWindow(5, 8000, TrivialSummarizer{})
	mem := types.NewMemory("test-agent", "Important fact", []float32{0.1})
	built := w.BuildContext([]*types.Memory{mem})
	require.Len(t, built.RelevantMemories, 1)
	assert.Equal(t, "Important fact", built.RelevantMemories[0].Content)
}

func TestEstimatedTokens(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(5, 8000, TrivialSummarizer{})
	require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "This is a test message with 40 chars!!!!")))
	tokens := w.EstimatedTokens()
	assert.True(t, tokens >= 8 && tokens <= 12)
}

func TestWithinBudget(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(5, 100, TrivialSummarizer{})
	assert.True(t, w.WithinBudget())
	require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, strings.Repeat("x", 1000))))
	assert.False(t, w.WithinBudget())
}

func TestWindowClear(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(5, 8000, TrivialSummarizer{})
	w.SetTask("Task")
	require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "Hello")))
	w.Clear()
	assert.Empty(t, w.RecentMessages())
	assert.Empty(t, w.SummarizedHistory())
	assert.Empty(t, w.CurrentTask())
}

func TestTrivialSummarizerContent(t *testing.T) {
	s := TrivialSummarizer{}
	summary, err := s.Summarize(context.Background(), []types.Message{
		msg(types.RoleUser, "Hello, how are you?"),
		msg(types.RoleAssistant, "I'm doing well, thank you!"),
	})
	require.NoError(t, err)
	assert.Contains(t, summary, "user:")
	assert.Contains(t, summary, "assistant:")
	assert.Contains(t, summary, "Hello")
}

func TestTrivialSummarizerTruncation(t *testing.T) {
	s := TrivialSummarizer{}
	summary, err := s.Summarize(context.Background(), []types.Message{
		msg(types.RoleUser, strings.Repeat("x", 200)),
	})
	require.NoError(t, err)
	assert.Contains(t, summary, "...")
	assert.Less(t, len(summary), 200)
}

func TestEstimateTokens(t *testing.T) {
	s := TrivialSummarizer{}
	assert.Equal(t, 10, s.EstimateTokens("This is exactly forty characters long!!!"))
	assert.Equal(t, 0, s.EstimateTokens(""))
}

func TestForceCompact(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(5, 8000, TrivialSummarizer{})
	w.compactionThreshold = 100
	w.pendingCompaction = append(w.pendingCompaction,
		msg(types.RoleUser, "Old msg 0"), msg(types.RoleUser, "Old msg 1"), msg(types.RoleUser, "Old msg 2"))

	assert.Equal(t, 3, w.PendingCount())
	assert.Empty(t, w.SummarizedHistory())

	require.NoError(t, w.Compact(ctx))
	assert.Zero(t, w.PendingCount())
	assert.NotEmpty(t, w.SummarizedHistory())
}

func TestMergeSummaries(t *testing.T) {
	ctx := context.Background()
	w := NewWindow(2, 8000, TrivialSummarizer{})
	w.compactionThreshold = 2
	for i := 0; i < 6; i++ {
		require.NoError(t, w.AddMessage(ctx, msg(types.RoleUser, "m")))
	}
	assert.Contains(t, w.SummarizedHistory(), "[Later in conversation]")
}
