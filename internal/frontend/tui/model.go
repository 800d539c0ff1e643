// Package tui is the local terminal frontend: a bubbletea model
// rendering the shared frontend state machine.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/haasonsaas/commander/internal/frontend"
)

// tickInterval drives response collection while a send is pending.
const tickInterval = 500 * time.Millisecond

// tickMsg is the periodic poll message.
type tickMsg time.Time

var (
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	receivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	systemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	workingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
)

// Model is the bubbletea model wrapping the shared state machine.
type Model struct {
	state *frontend.State
	ctx   context.Context

	width  int
	height int
}

// NewModel creates a Model over a frontend State.
func NewModel(ctx context.Context, state *frontend.State) Model {
	return Model{state: state, ctx: ctx, width: 80, height: 24}
}

// Init starts the poll ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles keys and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.state.Tick(m.ctx)
		if m.state.ShouldQuit() {
			return m, tea.Quit
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state.ViewMode() {
	case frontend.ViewInspect:
		return m.handleInspectKey(msg)
	case frontend.ViewSessions:
		return m.handleSessionsKey(msg)
	default:
		return m.handleNormalKey(msg)
	}
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.state.HandleInput(m.ctx, m.state.Input())
		if m.state.ShouldQuit() {
			return m, tea.Quit
		}
	case "up":
		m.state.HistoryPrev()
	case "down":
		m.state.HistoryNext()
	case "tab":
		m.state.TabComplete()
	case "backspace":
		m.state.Backspace()
	case "pgup":
		m.state.ScrollMessages(m.height / 2)
	case "pgdown":
		m.state.ScrollMessages(-m.height / 2)
	default:
		if len(msg.Runes) > 0 {
			for _, r := range msg.Runes {
				m.state.InsertRune(r)
			}
		}
	}
	return m, nil
}

func (m Model) handleInspectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.state.ExitView()
	case "up":
		m.state.InspectScroll(-1)
	case "down":
		m.state.InspectScroll(1)
	case "pgup":
		m.state.InspectScroll(-(m.height - 4))
	case "pgdown":
		m.state.InspectScroll(m.height - 4)
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.state.ExitView()
	case "up":
		m.state.SessionsMove(-1)
	case "down":
		m.state.SessionsMove(1)
	case "enter":
		sessions := m.state.SessionsList()
		if idx := m.state.SessionIndex(); idx >= 0 && idx < len(sessions) {
			name := strings.TrimPrefix(sessions[idx].Name, "commander-")
			m.state.ExitView()
			m.state.HandleInput(m.ctx, "/connect "+name)
		}
	case "delete", "backspace":
		m.state.SessionsDestroySelected(m.ctx)
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// View renders the active view mode.
func (m Model) View() string {
	switch m.state.ViewMode() {
	case frontend.ViewInspect:
		return m.viewInspect()
	case frontend.ViewSessions:
		return m.viewSessions()
	default:
		return m.viewNormal()
	}
}

func (m Model) viewNormal() string {
	var b strings.Builder

	title := "commander"
	if conn := m.state.Connection(); conn != nil {
		title += " — " + conn.Project
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	visible := m.height - 5
	if visible < 1 {
		visible = 1
	}
	messages := m.state.Messages()
	end := len(messages) - m.state.ScrollOffset()
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}
	for _, msg := range messages[start:end] {
		b.WriteString(renderMessage(msg) + "\n")
	}

	b.WriteString("\n")
	if m.state.Working() {
		b.WriteString(workingStyle.Render("… working") + "\n")
	}
	b.WriteString(promptStyle.Render("❯ ") + m.state.Input())
	return b.String()
}

func renderMessage(msg frontend.Message) string {
	switch msg.Kind {
	case frontend.KindUser:
		return userStyle.Render("you: ") + msg.Text
	case frontend.KindReceived:
		return receivedStyle.Render(msg.Text)
	case frontend.KindError:
		return errorStyle.Render("error: " + msg.Text)
	default:
		return systemStyle.Render(msg.Text)
	}
}

func (m Model) viewInspect() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("inspect — esc to return") + "\n\n")

	buffer := m.state.InspectBuffer()
	start := m.state.InspectOffset()
	end := start + m.height - 4
	if end > len(buffer) {
		end = len(buffer)
	}
	for _, line := range buffer[start:end] {
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewSessions() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("sessions — enter connects, delete destroys, esc returns") + "\n\n")

	conn := m.state.Connection()
	for i, sess := range m.state.SessionsList() {
		indicator := "  "
		if strings.HasPrefix(sess.Name, "commander-") {
			indicator = "◆ "
		}
		if conn != nil && sess.Name == frontend.MuxSessionName(conn.Project) {
			indicator = "● "
		}
		line := fmt.Sprintf("%s%s", indicator, sess.Name)
		if !sess.CreatedAt.IsZero() {
			line += systemStyle.Render("  " + sess.CreatedAt.Format("15:04:05"))
		}
		if i == m.state.SessionIndex() {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Run starts the TUI program and blocks until exit.
func Run(ctx context.Context, state *frontend.State) error {
	program := tea.NewProgram(NewModel(ctx, state), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
