package frontend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/commander/internal/store"
	"github.com/haasonsaas/commander/internal/tmux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMux is an in-memory Mux for exercising the state machine
// without a live multiplexer.
type fakeMux struct {
	sessions map[string]*fakeSession
	current  string
}

type fakeSession struct {
	dir    string
	output string
	sent   []string
}

func newFakeMux() *fakeMux {
	return &fakeMux{sessions: map[string]*fakeSession{}}
}

func (m *fakeMux) CreateSession(_ context.Context, name, dir string) error {
	if _, ok := m.sessions[name]; ok {
		return fmt.Errorf("duplicate session: %s", name)
	}
	m.sessions[name] = &fakeSession{dir: dir}
	return nil
}

func (m *fakeMux) DestroySession(_ context.Context, name string) error {
	if _, ok := m.sessions[name]; !ok {
		return tmux.ErrSessionNotFound
	}
	delete(m.sessions, name)
	return nil
}

func (m *fakeMux) SessionExists(_ context.Context, name string) bool {
	_, ok := m.sessions[name]
	return ok
}

func (m *fakeMux) ListSessions(_ context.Context) ([]tmux.Session, error) {
	var out []tmux.Session
	for name := range m.sessions {
		out = append(out, tmux.Session{Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *fakeMux) SendLine(_ context.Context, session, _ string, text string) error {
	sess, ok := m.sessions[session]
	if !ok {
		return tmux.ErrSessionNotFound
	}
	sess.sent = append(sess.sent, text)
	return nil
}

func (m *fakeMux) CaptureOutput(_ context.Context, session, _ string, _ int) (string, error) {
	sess, ok := m.sessions[session]
	if !ok {
		return "", tmux.ErrSessionNotFound
	}
	return sess.output, nil
}

func (m *fakeMux) RenameSession(_ context.Context, oldName, newName string) error {
	sess, ok := m.sessions[oldName]
	if !ok {
		return tmux.ErrSessionNotFound
	}
	delete(m.sessions, oldName)
	m.sessions[newName] = sess
	return nil
}

func (m *fakeMux) CurrentSessionName(_ context.Context) (string, error) {
	return m.current, nil
}

// echoSummarizer summarizes by joining lines with a marker prefix.
type echoSummarizer struct{}

func (echoSummarizer) SummarizeResponse(_ context.Context, _ string, lines []string) (string, error) {
	return "summary: " + strings.Join(lines, " | "), nil
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time        { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestState(t *testing.T, mux Mux) (*State, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Now()}
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	state := NewState(Config{Mux: mux, Summarizer: echoSummarizer{}, Now: clock.now})
	state.SetProjects(NewStoreDirectory(st))
	return state, clock
}

func lastMessage(s *State) Message {
	msgs := s.Messages()
	return msgs[len(msgs)-1]
}

func TestConnectCreateThenConnect(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/app -a claude -n app")
	require.True(t, state.Connected())
	assert.Equal(t, "app", state.Connection().Project)
	assert.True(t, mux.SessionExists(ctx, "commander-app"))
	assert.Equal(t, KindSystem, lastMessage(state).Kind)
}

func TestConnectExistingByName(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/app -a claude -n app")
	state.HandleInput(ctx, "/disconnect")
	require.False(t, state.Connected())

	state.HandleInput(ctx, "/connect app")
	require.True(t, state.Connected())
	assert.Equal(t, "/tmp/app", state.Connection().Path)
}

func TestConnectUnknownProject(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	state.HandleInput(context.Background(), "/connect nonesuch")
	assert.False(t, state.Connected())
	assert.Equal(t, KindError, lastMessage(state).Kind)
}

func TestConnectArgValidation(t *testing.T) {
	_, err := parseConnectArgs([]string{"/tmp/x", "-a", "claude"})
	assert.ErrorContains(t, err, "-n")

	_, err = parseConnectArgs([]string{"/tmp/x", "-n", "x"})
	assert.ErrorContains(t, err, "-a")

	_, err = parseConnectArgs(nil)
	assert.Error(t, err)

	parsed, err := parseConnectArgs([]string{"myproj"})
	require.NoError(t, err)
	assert.Equal(t, "myproj", parsed.Existing)
}

func TestStartAliasForConnect(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	state.HandleInput(context.Background(), "/start /tmp/app -a claude -n app")
	assert.True(t, state.Connected())
}

func TestListShowsConnectedMarker(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/a -a claude -n alpha")
	state.HandleInput(ctx, "/list")

	text := lastMessage(state).Text
	assert.Contains(t, text, "* alpha")
}

func TestStopEnumeratesActions(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/a -a claude -n a")
	state.HandleInput(ctx, "/stop")

	text := lastMessage(state).Text
	assert.Contains(t, text, "destroyed session commander-a")
	assert.Contains(t, text, "disconnected")
	assert.False(t, state.Connected())
	assert.False(t, mux.SessionExists(ctx, "commander-a"))
}

func TestStatusReportsReadiness(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/a -a claude -n a")
	mux.sessions["commander-a"].output = "doing things\ncompiling..."
	state.HandleInput(ctx, "/status")
	assert.Contains(t, lastMessage(state).Text, "working")

	mux.sessions["commander-a"].output = "done\n❯"
	state.HandleInput(ctx, "/status")
	assert.Contains(t, lastMessage(state).Text, "idle at prompt")
}

func TestRenameUpdatesSessionAndMapping(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/a -a claude -n old")
	state.HandleInput(ctx, "/rename new")

	assert.Equal(t, "new", state.Connection().Project)
	assert.True(t, mux.SessionExists(ctx, "commander-new"))
	assert.False(t, mux.SessionExists(ctx, "commander-old"))

	// The project record follows.
	p, err := state.projects.FindByName("new")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a", p.Path)
}

func TestUnknownCommand(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	state.HandleInput(context.Background(), "/frobnicate")
	msg := lastMessage(state)
	assert.Equal(t, KindError, msg.Kind)
	assert.Contains(t, msg.Text, "frobnicate")
}

func TestQuit(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	state.HandleInput(context.Background(), "/quit")
	assert.True(t, state.ShouldQuit())
}

func TestDisconnectedTextWithoutChatterErrors(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	state.HandleInput(context.Background(), "hello there")
	assert.Equal(t, KindError, lastMessage(state).Kind)
}

type cannedChatter struct{ reply string }

func (c cannedChatter) Chat(_ context.Context, _ string) (string, error) { return c.reply, nil }

func TestDisconnectedTextFallsBackToChat(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	state.SetChatter(cannedChatter{reply: "hi from the model"})
	state.HandleInput(context.Background(), "hello there")

	msg := lastMessage(state)
	assert.Equal(t, KindReceived, msg.Kind)
	assert.Equal(t, "hi from the model", msg.Text)
}

func TestConnectedFsCommandRunsLocally(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	dir := t.TempDir()
	state.HandleInput(ctx, "/connect "+dir+" -a claude -n fsproj")
	state.HandleInput(ctx, "ls")

	assert.Equal(t, KindSystem, lastMessage(state).Kind)
	// Nothing was forwarded to the session.
	assert.Empty(t, mux.sessions["commander-fsproj"].sent)
}

func TestTelegramMintsCode(t *testing.T) {
	mux := newFakeMux()
	clock := &testClock{t: time.Now()}
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	state := NewState(Config{Mux: mux, Now: clock.now, Pairer: stubPairer{code: "ABC234"}})
	state.SetProjects(NewStoreDirectory(st))

	ctx := context.Background()
	state.HandleInput(ctx, "/connect /tmp/p -a claude -n p")
	state.HandleInput(ctx, "/telegram")
	assert.Contains(t, lastMessage(state).Text, "ABC234")
}

type stubPairer struct{ code string }

func (p stubPairer) Mint(_, _ string) (string, error) { return p.code, nil }

func TestSessionsViewDestroy(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/a -a claude -n a")
	require.NoError(t, mux.CreateSession(ctx, "external", ""))

	state.EnterSessions(ctx)
	assert.Equal(t, ViewSessions, state.ViewMode())
	require.Len(t, state.SessionsList(), 2)

	// Select and destroy commander-a; the alias mapping is cleaned.
	idx := 0
	for i, sess := range state.SessionsList() {
		if sess.Name == "commander-a" {
			idx = i
		}
	}
	state.SessionsMove(idx)
	state.SessionsDestroySelected(ctx)

	assert.False(t, mux.SessionExists(ctx, "commander-a"))
	assert.NotContains(t, state.Connection().Sessions, "a")
}

func TestInspectSnapshotIsFrozen(t *testing.T) {
	mux := newFakeMux()
	state, _ := newTestState(t, mux)
	ctx := context.Background()

	state.HandleInput(ctx, "/connect /tmp/a -a claude -n a")
	mux.sessions["commander-a"].output = "line1\nline2\nline3"
	state.EnterInspect(ctx)

	require.Equal(t, ViewInspect, state.ViewMode())
	assert.Equal(t, []string{"line1", "line2", "line3"}, state.InspectBuffer())

	// Live output changes do not touch the snapshot.
	mux.sessions["commander-a"].output = "different"
	state.InspectScroll(2)
	assert.Equal(t, 2, state.inspectScroll)
	assert.Equal(t, []string{"line1", "line2", "line3"}, state.InspectBuffer())

	state.ExitView()
	assert.Equal(t, ViewNormal, state.ViewMode())
}

func TestScrollMessagesTogglesMode(t *testing.T) {
	state, _ := newTestState(t, newFakeMux())
	for i := 0; i < 10; i++ {
		state.System("line")
	}

	assert.Equal(t, ModeNormal, state.InputMode())
	state.ScrollMessages(4)
	assert.Equal(t, 4, state.ScrollOffset())
	assert.Equal(t, ModeScrolling, state.InputMode())

	// Clamped at the oldest message.
	state.ScrollMessages(100)
	assert.Equal(t, 9, state.ScrollOffset())

	// Back to the bottom restores normal mode.
	state.ScrollMessages(-100)
	assert.Equal(t, 0, state.ScrollOffset())
	assert.Equal(t, ModeNormal, state.InputMode())

	// A new message snaps to the bottom.
	state.ScrollMessages(3)
	state.System("fresh")
	assert.Equal(t, 0, state.ScrollOffset())
}
