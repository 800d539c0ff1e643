package frontend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectTestSession(t *testing.T, mux *fakeMux, state *State) *fakeSession {
	t.Helper()
	state.HandleInput(context.Background(), "/connect /tmp/app -a claude -n app")
	require.True(t, state.Connected())
	return mux.sessions["commander-app"]
}

func TestSendProtocolBaselineAndDelivery(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	sess := connectTestSession(t, mux, state)
	sess.output = "old line\n❯"

	state.SendToSession(context.Background(), "run the tests")

	assert.Equal(t, []string{"run the tests"}, sess.sent)
	assert.True(t, state.Working())
	assert.Contains(t, state.lastOutput, "old line")
	assert.Empty(t, state.buffer)
}

func TestTickCollectsOnlyNewNonNoiseLines(t *testing.T) {
	mux := newFakeMux()
	state, clock := newTestState(t, mux)
	sess := connectTestSession(t, mux, state)
	sess.output = "old line"
	ctx := context.Background()

	state.SendToSession(ctx, "do it")

	sess.output = "old line\nfresh output\n\x1b[2K\nanother line"
	clock.advance(100 * time.Millisecond)
	state.Tick(ctx)

	assert.Equal(t, []string{"fresh output", "another line"}, state.buffer)
}

func TestIdleTriggerFiresSummarization(t *testing.T) {
	mux := newFakeMux()
	state, clock := newTestState(t, mux)
	sess := connectTestSession(t, mux, state)
	sess.output = ""
	ctx := context.Background()

	state.SendToSession(ctx, "explain")

	// Output arrives, session returns to its prompt.
	sess.output = "the answer is 42\n❯"
	clock.advance(100 * time.Millisecond)
	state.Tick(ctx)
	require.NotEmpty(t, state.buffer)

	// Still within the idle window: nothing fires.
	clock.advance(time.Second)
	state.Tick(ctx)
	assert.False(t, state.isSummarizing)

	// Past the idle window with a ready prompt: summarization starts.
	clock.advance(time.Second)
	state.Tick(ctx)
	require.True(t, state.isSummarizing)

	// The worker delivers over the one-shot channel; the next tick
	// consumes it.
	require.Eventually(t, func() bool {
		state.Tick(ctx)
		return !state.Working()
	}, time.Second, 10*time.Millisecond)

	msg := lastMessage(state)
	assert.Equal(t, KindReceived, msg.Kind)
	assert.Contains(t, msg.Text, "the answer is 42")
}

func TestIdleTriggerRequiresReadiness(t *testing.T) {
	mux := newFakeMux()
	state, clock := newTestState(t, mux)
	sess := connectTestSession(t, mux, state)
	sess.output = ""
	ctx := context.Background()

	state.SendToSession(ctx, "long task")
	sess.output = "still running..."
	clock.advance(100 * time.Millisecond)
	state.Tick(ctx)

	// Quiet long past the trigger, but no prompt: keep waiting.
	clock.advance(10 * time.Second)
	state.Tick(ctx)
	assert.False(t, state.isSummarizing)
	assert.True(t, state.Working())
}

func TestResetCollectionDiscardsLateSummary(t *testing.T) {
	mux := newFakeMux()
	state, clock := newTestState(t, mux)
	sess := connectTestSession(t, mux, state)
	sess.output = ""
	ctx := context.Background()

	state.SendToSession(ctx, "q")
	sess.output = "some output\n❯"
	clock.advance(100 * time.Millisecond)
	state.Tick(ctx)
	clock.advance(2 * time.Second)
	state.Tick(ctx)
	require.True(t, state.isSummarizing)

	// The frontend moves on; the worker's late result is discarded.
	state.resetCollection()
	assert.False(t, state.Working())

	before := len(state.Messages())
	time.Sleep(50 * time.Millisecond)
	state.Tick(ctx)
	assert.Len(t, state.Messages(), before)
}

func TestHistoryNavigation(t *testing.T) {
	h := NewHistory()
	h.Push("first")
	h.Push("second")
	h.Push("second") // consecutive duplicate collapses
	assert.Equal(t, 2, h.Len())

	line, ok := h.Prev("draft in progress")
	require.True(t, ok)
	assert.Equal(t, "second", line)

	line, ok = h.Prev("")
	require.True(t, ok)
	assert.Equal(t, "first", line)

	// At the oldest entry.
	_, ok = h.Prev("")
	assert.False(t, ok)

	line, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "second", line)

	// Past the newest: the draft comes back.
	line, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "draft in progress", line)

	_, ok = h.Next()
	assert.False(t, ok)
}

func TestTabCompletionCycles(t *testing.T) {
	c := NewCompletion([]string{"connect", "clear", "status"})

	first, ok := c.Next("/c")
	require.True(t, ok)
	assert.Equal(t, "/connect", first)

	second, ok := c.Next("/connect")
	require.True(t, ok)
	assert.Equal(t, "/clear", second)

	// Wraps around.
	third, ok := c.Next("/clear")
	require.True(t, ok)
	assert.Equal(t, "/connect", third)

	// An edit resets the cache.
	c.Reset()
	fresh, ok := c.Next("/s")
	require.True(t, ok)
	assert.Equal(t, "/status", fresh)
}

func TestTabCompletionIgnoresNonCommands(t *testing.T) {
	c := NewCompletion([]string{"connect"})
	_, ok := c.Next("plain text")
	assert.False(t, ok)
	_, ok = c.Next("/connect myproj")
	assert.False(t, ok)
}

func TestParseRoute(t *testing.T) {
	route := ParseRoute("@a @b run tests")
	require.NotNil(t, route)
	assert.Equal(t, []string{"a", "b"}, route.Aliases)
	assert.Equal(t, "run tests", route.Text)

	assert.Nil(t, ParseRoute("@only-aliases"))
	assert.Nil(t, ParseRoute("no aliases here"))
	assert.Nil(t, ParseRoute("@ bare at"))
}

func TestRouteResolutionOrder(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	connectTestSession(t, mux, state)
	// A literal session that is not commander-prefixed.
	require.NoError(t, mux.CreateSession(ctx, "literal", ""))
	// The conventional target for an unknown alias.
	require.NoError(t, mux.CreateSession(ctx, "commander-other", ""))

	// In-memory map wins.
	assert.Equal(t, "commander-app", state.resolveAlias(ctx, "app"))
	// Literal session name next.
	assert.Equal(t, "literal", state.resolveAlias(ctx, "literal"))
	// Convention last.
	assert.Equal(t, "commander-other", state.resolveAlias(ctx, "other"))
}

func TestRoutedSendReportsPerTargetFailures(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	connectTestSession(t, mux, state)
	require.NoError(t, mux.CreateSession(ctx, "commander-good", ""))

	state.HandleInput(ctx, "@good @missing hello out there")

	assert.Equal(t, []string{"hello out there"}, mux.sessions["commander-good"].sent)

	var sawFailure, sawSuccess bool
	for _, m := range state.Messages() {
		if m.Kind == KindError && strings.Contains(m.Text, "@missing") {
			sawFailure = true
		}
		if m.Kind == KindSystem && strings.Contains(m.Text, "@good") {
			sawSuccess = true
		}
	}
	assert.True(t, sawSuccess)
	assert.True(t, sawFailure)
}
