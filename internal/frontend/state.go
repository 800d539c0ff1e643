// Package frontend is the state machine shared by every frontend:
// the local terminal UI, the chat-messenger backend and the REPL
// all own one State and differ only in how they render it and
// feed it input.
package frontend

import (
	"context"
	"log/slog"
	"time"

	"github.com/haasonsaas/commander/internal/changedetect"
	"github.com/haasonsaas/commander/internal/tmux"
)

// InputMode is the keyboard focus state.
type InputMode int

const (
	// ModeNormal edits the input line.
	ModeNormal InputMode = iota
	// ModeScrolling navigates the message log.
	ModeScrolling
)

// ViewMode selects what the frontend renders.
type ViewMode int

const (
	// ViewNormal shows the message log and input line.
	ViewNormal ViewMode = iota
	// ViewInspect shows a frozen scrollback snapshot.
	ViewInspect
	// ViewSessions shows the multiplexer session list.
	ViewSessions
)

// MessageKind classifies a log line for rendering.
type MessageKind int

const (
	// KindUser is input the user submitted.
	KindUser MessageKind = iota
	// KindReceived is assistant output (summarized or raw).
	KindReceived
	// KindSystem is a command outcome line.
	KindSystem
	// KindError is a failed command outcome line.
	KindError
)

// Message is one line of the frontend's log.
type Message struct {
	Kind MessageKind
	Text string
	At   time.Time
}

// Connection binds the frontend to one project.
type Connection struct {
	Project string
	Path    string
	Adapter string
	// Sessions maps alias -> multiplexer session name.
	Sessions map[string]string
}

// MuxSessionName is the conventional session name for a project.
func MuxSessionName(project string) string { return "commander-" + project }

// Mux is the slice of the multiplexer orchestrator the frontend
// needs. *tmux.Orchestrator satisfies it.
type Mux interface {
	CreateSession(ctx context.Context, name, dir string) error
	DestroySession(ctx context.Context, name string) error
	SessionExists(ctx context.Context, name string) bool
	ListSessions(ctx context.Context) ([]tmux.Session, error)
	SendLine(ctx context.Context, session, pane, text string) error
	CaptureOutput(ctx context.Context, session, pane string, lastN int) (string, error)
	RenameSession(ctx context.Context, oldName, newName string) error
	CurrentSessionName(ctx context.Context) (string, error)
}

// Summarizer condenses collected response lines into one reply. Runs
// on a background worker; a result arriving after the frontend moved
// on is discarded.
type Summarizer interface {
	SummarizeResponse(ctx context.Context, query string, lines []string) (string, error)
}

// Pairer mints pairing codes for the chat-messenger handoff.
type Pairer interface {
	Mint(projectName, sessionName string) (string, error)
}

// captureLines is how much scrollback each capture pulls.
const captureLines = 200

// idleTrigger is how long the session must stay quiet, with the
// readiness probe positive, before summarization fires.
const idleTrigger = 1500 * time.Millisecond

// State is one frontend instance's complete state.
type State struct {
	mux        Mux
	summarizer Summarizer
	pairer     Pairer
	projects   ProjectDirectory
	chat       Chatter
	detector   *changedetect.Detector
	logger     *slog.Logger
	now        func() time.Time

	conn *Connection

	input  []rune
	cursor int

	messages     []Message
	scrollOffset int

	inputMode InputMode
	viewMode  ViewMode

	inspectBuffer []string
	inspectScroll int

	sessionsList []tmux.Session
	sessionIndex int

	// Response collection.
	pendingQuery  string
	lastOutput    []string
	buffer        []string
	lastActivity  time.Time
	summaryCh     chan string
	isSummarizing bool

	history    *History
	completion *Completion

	quit bool
}

// Config wires a State's collaborators.
type Config struct {
	Mux        Mux
	Summarizer Summarizer
	Pairer     Pairer
	Logger     *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewState creates a frontend State.
func NewState(cfg Config) *State {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &State{
		mux:        cfg.Mux,
		summarizer: cfg.Summarizer,
		pairer:     cfg.Pairer,
		detector:   changedetect.NewDetector(),
		logger:     logger,
		now:        now,
		history:    NewHistory(),
		completion: NewCompletion(commandNames()),
	}
}

// Connected reports whether a project connection is active.
func (s *State) Connected() bool { return s.conn != nil }

// Connection returns the active connection, or nil.
func (s *State) Connection() *Connection { return s.conn }

// Messages returns the message log.
func (s *State) Messages() []Message { return s.messages }

// ShouldQuit reports whether a quit command was handled.
func (s *State) ShouldQuit() bool { return s.quit }

// ViewMode returns the current view mode.
func (s *State) ViewMode() ViewMode { return s.viewMode }

// InputMode returns the current input mode.
func (s *State) InputMode() InputMode { return s.inputMode }

// Working reports whether a response is being collected.
func (s *State) Working() bool { return s.pendingQuery != "" }

// Input returns the current input line.
func (s *State) Input() string { return string(s.input) }

// SetInput replaces the input line, placing the cursor at the end.
func (s *State) SetInput(text string) {
	s.input = []rune(text)
	s.cursor = len(s.input)
	s.completion.Reset()
}

// InsertRune inserts a character at the cursor.
func (s *State) InsertRune(r rune) {
	s.input = append(s.input[:s.cursor], append([]rune{r}, s.input[s.cursor:]...)...)
	s.cursor++
	s.completion.Reset()
}

// Backspace deletes the character before the cursor.
func (s *State) Backspace() {
	if s.cursor == 0 {
		return
	}
	s.input = append(s.input[:s.cursor-1], s.input[s.cursor:]...)
	s.cursor--
	s.completion.Reset()
}

// appendMessage adds a line to the log and snaps scroll to the
// bottom.
func (s *State) appendMessage(kind MessageKind, text string) {
	s.messages = append(s.messages, Message{Kind: kind, Text: text, At: s.now()})
	s.scrollOffset = 0
}

// System appends a system-role outcome line.
func (s *State) System(text string) { s.appendMessage(KindSystem, text) }

// Error appends an error outcome line.
func (s *State) Error(text string) { s.appendMessage(KindError, text) }

// ClearMessages empties the message log.
func (s *State) ClearMessages() {
	s.messages = nil
	s.scrollOffset = 0
}

// ScrollOffset returns how many lines the log view is scrolled up
// from the bottom.
func (s *State) ScrollOffset() int { return s.scrollOffset }

// ScrollMessages moves the log view by delta lines (positive is up,
// into history), entering scrolling mode while off the bottom.
func (s *State) ScrollMessages(delta int) {
	s.scrollOffset += delta
	if max := len(s.messages) - 1; s.scrollOffset > max {
		s.scrollOffset = max
	}
	if s.scrollOffset <= 0 {
		s.scrollOffset = 0
		s.inputMode = ModeNormal
		return
	}
	s.inputMode = ModeScrolling
}

// HistoryPrev recalls the previous submitted line into the input.
func (s *State) HistoryPrev() {
	if line, ok := s.history.Prev(string(s.input)); ok {
		s.SetInput(line)
	}
}

// HistoryNext recalls the next line, restoring the saved draft past
// the newest entry.
func (s *State) HistoryNext() {
	if line, ok := s.history.Next(); ok {
		s.SetInput(line)
	}
}

// TabComplete cycles command completion for a "/"-prefixed input.
func (s *State) TabComplete() {
	if completed, ok := s.completion.Next(string(s.input)); ok {
		s.input = []rune(completed)
		s.cursor = len(s.input)
	}
}

// EnterInspect snapshots the connected session's scrollback into the
// inspect buffer and switches view mode. Inspect scrolling never
// touches live state.
func (s *State) EnterInspect(ctx context.Context) {
	if s.conn == nil {
		s.Error("Not connected to a project")
		return
	}
	output, err := s.mux.CaptureOutput(ctx, MuxSessionName(s.conn.Project), "", 0)
	if err != nil {
		s.Error("Cannot inspect session: " + err.Error())
		return
	}
	s.inspectBuffer = splitLines(output)
	s.inspectScroll = 0
	s.viewMode = ViewInspect
}

// InspectBuffer returns the frozen inspect snapshot.
func (s *State) InspectBuffer() []string { return s.inspectBuffer }

// InspectOffset returns the current scroll position within the
// inspect buffer.
func (s *State) InspectOffset() int { return s.inspectScroll }

// InspectScroll moves within the inspect buffer by delta lines,
// clamped to the buffer.
func (s *State) InspectScroll(delta int) {
	s.inspectScroll += delta
	if s.inspectScroll < 0 {
		s.inspectScroll = 0
	}
	if max := len(s.inspectBuffer) - 1; s.inspectScroll > max && max >= 0 {
		s.inspectScroll = max
	}
}

// ExitView returns to the normal view.
func (s *State) ExitView() { s.viewMode = ViewNormal }

// EnterSessions refreshes the multiplexer session list and switches
// view mode.
func (s *State) EnterSessions(ctx context.Context) {
	sessions, err := s.mux.ListSessions(ctx)
	if err != nil {
		s.Error("Cannot list sessions: " + err.Error())
		return
	}
	s.sessionsList = sessions
	s.sessionIndex = 0
	s.viewMode = ViewSessions
}

// SessionsList returns the session list shown in sessions view.
func (s *State) SessionsList() []tmux.Session { return s.sessionsList }

// SessionIndex returns the selected row in sessions view.
func (s *State) SessionIndex() int { return s.sessionIndex }

// SessionsMove moves the sessions-view selection by delta, clamped.
func (s *State) SessionsMove(delta int) {
	s.sessionIndex += delta
	if s.sessionIndex < 0 {
		s.sessionIndex = 0
	}
	if s.sessionIndex >= len(s.sessionsList) {
		s.sessionIndex = len(s.sessionsList) - 1
	}
	if s.sessionIndex < 0 {
		s.sessionIndex = 0
	}
}

// SessionsDestroySelected destroys the selected session and cleans up
// any alias mapping pointing at it.
func (s *State) SessionsDestroySelected(ctx context.Context) {
	if s.sessionIndex < 0 || s.sessionIndex >= len(s.sessionsList) {
		return
	}
	name := s.sessionsList[s.sessionIndex].Name
	if err := s.mux.DestroySession(ctx, name); err != nil {
		s.Error("Cannot destroy session " + name + ": " + err.Error())
		return
	}
	if s.conn != nil {
		for alias, mapped := range s.conn.Sessions {
			if mapped == name {
				delete(s.conn.Sessions, alias)
			}
		}
	}
	s.sessionsList = append(s.sessionsList[:s.sessionIndex], s.sessionsList[s.sessionIndex+1:]...)
	s.SessionsMove(0)
	s.System("Destroyed session " + name)
}

func splitLines(output string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(output); i++ {
		if output[i] == '\n' {
			lines = append(lines, output[start:i])
			start = i + 1
		}
	}
	if start < len(output) {
		lines = append(lines, output[start:])
	}
	return lines
}
