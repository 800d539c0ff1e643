package frontend

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/haasonsaas/commander/internal/changedetect"
	"github.com/haasonsaas/commander/internal/frontend/fsparser"
	"github.com/haasonsaas/commander/internal/types"
)

// envNestedMux is set by the multiplexer inside a live session; rename
// uses it to locate the current session when not connected.
const envNestedMux = "TMUX"

// ProjectDirectory is the slice of the persistence layer the command
// handlers need.
type ProjectDirectory interface {
	List() ([]*types.Project, error)
	FindByName(name string) (*types.Project, error)
	Create(path, name, adapter string) (*types.Project, error)
	Rename(oldName, newName string) error
}

// Chatter handles non-command input when no project is connected,
// falling back to a direct model conversation.
type Chatter interface {
	Chat(ctx context.Context, message string) (string, error)
}

// SetProjects attaches the project directory.
func (s *State) SetProjects(projects ProjectDirectory) { s.projects = projects }

// SetChatter attaches the disconnected-chat fallback.
func (s *State) SetChatter(chat Chatter) { s.chat = chat }

// Command is one parsed control command.
type Command struct {
	Name string
	Args []string
}

// commandNames returns the control command set in insertion order,
// which is also tab-completion order.
func commandNames() []string {
	return []string{
		"connect", "disconnect", "list", "status", "sessions", "inspect",
		"stop", "rename", "send", "telegram", "clear", "help", "quit",
	}
}

// commandAliases maps shorthand to canonical names. "start" is the
// REPL alias for the create-then-connect form of connect.
var commandAliases = map[string]string{
	"c":     "connect",
	"dc":    "disconnect",
	"ls":    "list",
	"l":     "list",
	"s":     "status",
	"h":     "help",
	"?":     "help",
	"q":     "quit",
	"exit":  "quit",
	"start": "connect",
}

// ParseCommand parses a "/"-prefixed control line.
func ParseCommand(line string) *Command {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if canonical, ok := commandAliases[name]; ok {
		name = canonical
	}
	return &Command{Name: name, Args: fields[1:]}
}

// ConnectArgs is the parsed argument form of connect.
type ConnectArgs struct {
	// Existing is the project name for the by-name form.
	Existing string
	// Path, Adapter, Name describe the create-then-connect form.
	Path    string
	Adapter string
	Name    string
}

// parseConnectArgs recognizes both connect forms: an existing name, or
// "<path> -a <adapter> -n <name>".
func parseConnectArgs(args []string) (*ConnectArgs, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("connect requires a project name or <path> -a <adapter> -n <name>")
	}
	if len(args) == 1 {
		return &ConnectArgs{Existing: args[0]}, nil
	}

	out := &ConnectArgs{Path: args[0]}
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-a":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-a requires an adapter name")
			}
			i++
			out.Adapter = args[i]
		case "-n":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-n requires a project name")
			}
			i++
			out.Name = args[i]
		default:
			return nil, fmt.Errorf("unexpected argument: %s", args[i])
		}
	}
	if out.Adapter == "" {
		return nil, fmt.Errorf("connect with a path requires -a <adapter>")
	}
	if out.Name == "" {
		return nil, fmt.Errorf("connect with a path requires -n <name>")
	}
	return out, nil
}

// HandleInput routes one submitted line per the command grammar:
// "/" control commands, "@" routed sends, filesystem subcommands,
// direct sends to the connected session, or the chat fallback.
func (s *State) HandleInput(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	s.history.Push(line)
	s.SetInput("")

	switch {
	case strings.HasPrefix(line, "/"):
		s.handleCommand(ctx, line)
	case strings.HasPrefix(line, "@"):
		s.handleRoute(ctx, line)
	default:
		s.handleText(ctx, line)
	}
}

func (s *State) handleText(ctx context.Context, line string) {
	if s.conn != nil {
		if cmd, ok := fsparser.Parse(line, s.conn.Path); ok {
			res := fsparser.Execute(cmd)
			if res.Success {
				text := res.Message
				if res.Details != "" {
					text += "\n" + res.Details
				}
				s.System(text)
			} else {
				s.Error(res.Message)
			}
			return
		}
		s.appendMessage(KindUser, line)
		s.SendToSession(ctx, line)
		return
	}

	if s.chat != nil {
		s.appendMessage(KindUser, line)
		reply, err := s.chat.Chat(ctx, line)
		if err != nil {
			s.Error("Chat failed: " + err.Error())
			return
		}
		s.appendMessage(KindReceived, reply)
		return
	}

	s.Error("Not connected. Use /connect, or set an API key to chat directly.")
}

func (s *State) handleCommand(ctx context.Context, line string) {
	cmd := ParseCommand(line)
	if cmd == nil {
		return
	}

	switch cmd.Name {
	case "connect":
		s.cmdConnect(ctx, cmd.Args)
	case "disconnect":
		s.cmdDisconnect()
	case "list":
		s.cmdList()
	case "status":
		s.cmdStatus(ctx, cmd.Args)
	case "sessions":
		s.EnterSessions(ctx)
	case "inspect":
		s.EnterInspect(ctx)
	case "stop":
		s.cmdStop(ctx, cmd.Args)
	case "rename":
		s.cmdRename(ctx, cmd.Args)
	case "send":
		s.cmdSend(ctx, cmd.Args)
	case "telegram":
		s.cmdTelegram()
	case "clear":
		s.ClearMessages()
	case "help":
		s.cmdHelp(cmd.Args)
	case "quit":
		s.quit = true
	default:
		s.Error("Unknown command: /" + cmd.Name + " (try /help)")
	}
}

func (s *State) cmdConnect(ctx context.Context, args []string) {
	parsed, err := parseConnectArgs(args)
	if err != nil {
		s.Error(err.Error())
		return
	}
	if s.projects == nil {
		s.Error("No project directory configured")
		return
	}

	var project *types.Project
	if parsed.Existing != "" {
		project, err = s.projects.FindByName(parsed.Existing)
		if err != nil {
			s.Error("Project not found: " + parsed.Existing)
			return
		}
	} else {
		project, err = s.projects.Create(parsed.Path, parsed.Name, parsed.Adapter)
		if err != nil {
			s.Error("Cannot create project: " + err.Error())
			return
		}
	}

	muxName := MuxSessionName(project.DisplayName)
	if !s.mux.SessionExists(ctx, muxName) {
		if err := s.mux.CreateSession(ctx, muxName, project.Path); err != nil {
			s.Error("Cannot create session " + muxName + ": " + err.Error())
			return
		}
	}

	s.conn = &Connection{
		Project: project.DisplayName,
		Path:    project.Path,
		Adapter: project.Adapter,
		Sessions: map[string]string{
			project.DisplayName: muxName,
		},
	}
	s.System("Connected to " + project.DisplayName + " (" + muxName + ")")
}

func (s *State) cmdDisconnect() {
	if s.conn == nil {
		s.Error("Not connected")
		return
	}
	name := s.conn.Project
	s.conn = nil
	s.resetCollection()
	s.System("Disconnected from " + name + " (session left running)")
}

func (s *State) cmdList() {
	if s.projects == nil {
		s.Error("No project directory configured")
		return
	}
	projects, err := s.projects.List()
	if err != nil {
		s.Error("Cannot list projects: " + err.Error())
		return
	}
	if len(projects) == 0 {
		s.System("No projects")
		return
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].DisplayName < projects[j].DisplayName })

	var b strings.Builder
	b.WriteString("Projects:")
	for _, p := range projects {
		marker := " "
		if s.conn != nil && s.conn.Project == p.DisplayName {
			marker = "*"
		}
		fmt.Fprintf(&b, "\n%s %s [%s] %s (%s)", marker, p.DisplayName, p.State, p.Path, p.Adapter)
	}
	s.System(b.String())
}

func (s *State) cmdStatus(ctx context.Context, args []string) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	} else if s.conn != nil {
		name = s.conn.Project
	}
	if name == "" {
		s.Error("Not connected; use /status <name>")
		return
	}

	muxName := MuxSessionName(name)
	if !s.mux.SessionExists(ctx, muxName) {
		s.System(name + ": no running session")
		return
	}

	output, err := s.mux.CaptureOutput(ctx, muxName, "", captureLines)
	if err != nil {
		s.Error("Cannot read session " + muxName + ": " + err.Error())
		return
	}
	if changedetect.IsReady(output) {
		s.System(name + ": idle at prompt")
	} else {
		s.System(name + ": working")
	}
}

func (s *State) cmdStop(ctx context.Context, args []string) {
	var muxName string
	switch {
	case len(args) > 0:
		muxName = args[0]
		if !s.mux.SessionExists(ctx, muxName) {
			muxName = MuxSessionName(args[0])
		}
	case s.conn != nil:
		muxName = MuxSessionName(s.conn.Project)
	default:
		s.Error("Not connected; use /stop <session>")
		return
	}

	var actions []string
	if err := s.mux.DestroySession(ctx, muxName); err != nil {
		s.Error("Cannot stop " + muxName + ": " + err.Error())
		return
	}
	actions = append(actions, "destroyed session "+muxName)

	if s.conn != nil {
		for alias, mapped := range s.conn.Sessions {
			if mapped == muxName {
				delete(s.conn.Sessions, alias)
			}
		}
		if MuxSessionName(s.conn.Project) == muxName {
			s.conn = nil
			s.resetCollection()
			actions = append(actions, "disconnected")
		}
	}
	s.System("Stopped: " + strings.Join(actions, ", "))
}

func (s *State) cmdRename(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.Error("rename requires a new name")
		return
	}
	newName := args[0]

	if s.conn != nil {
		oldMux := MuxSessionName(s.conn.Project)
		newMux := MuxSessionName(newName)
		if err := s.mux.RenameSession(ctx, oldMux, newMux); err != nil {
			s.Error("Cannot rename session: " + err.Error())
			return
		}
		if s.projects != nil {
			if err := s.projects.Rename(s.conn.Project, newName); err != nil {
				s.Error("Session renamed but project record failed: " + err.Error())
			}
		}
		old := s.conn.Project
		s.conn.Project = newName
		delete(s.conn.Sessions, old)
		s.conn.Sessions[newName] = newMux
		s.System("Renamed " + old + " to " + newName)
		return
	}

	// Not connected: only meaningful inside a live multiplexer, where
	// the nested-session variable locates the current session.
	if os.Getenv(envNestedMux) == "" {
		s.Error("Not connected and not inside a multiplexer session")
		return
	}
	current, err := s.mux.CurrentSessionName(ctx)
	if err != nil {
		s.Error("Cannot determine current session: " + err.Error())
		return
	}
	if err := s.mux.RenameSession(ctx, current, newName); err != nil {
		s.Error("Cannot rename session: " + err.Error())
		return
	}
	s.System("Renamed " + current + " to " + newName)
}

func (s *State) cmdSend(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.Error("send requires a message")
		return
	}
	if s.conn == nil {
		s.Error("Not connected")
		return
	}
	s.SendToSession(ctx, strings.Join(args, " "))
}

func (s *State) cmdTelegram() {
	if s.pairer == nil {
		s.Error("Pairing is not configured")
		return
	}
	if s.conn == nil {
		s.Error("Connect to a project before pairing")
		return
	}
	code, err := s.pairer.Mint(s.conn.Project, MuxSessionName(s.conn.Project))
	if err != nil {
		s.Error("Cannot mint pairing code: " + err.Error())
		return
	}
	s.System(fmt.Sprintf("Pairing code: %s (valid 5 minutes, one use)", code))
}

var helpTopics = map[string]string{
	"connect":    "/connect <name> — connect to an existing project\n/connect <path> -a <adapter> -n <name> — create a project and connect",
	"disconnect": "/disconnect — detach from the current project, leaving its session running",
	"list":       "/list — list known projects",
	"status":     "/status [name] — show whether a session is idle or working",
	"sessions":   "/sessions — browse multiplexer sessions (Enter connects, Delete destroys)",
	"inspect":    "/inspect — freeze and scroll the current session's output",
	"stop":       "/stop [session] — destroy a session and disconnect if it was yours",
	"rename":     "/rename <name> — rename the connected project and its session",
	"send":       "/send <msg> — send a raw line to the connected session",
	"telegram":   "/telegram — mint a one-shot pairing code for the messenger backend",
	"clear":      "/clear — clear the message log",
	"help":       "/help [cmd] — this help",
	"quit":       "/quit — exit",
}

func (s *State) cmdHelp(args []string) {
	if len(args) > 0 {
		name := strings.ToLower(args[0])
		if canonical, ok := commandAliases[name]; ok {
			name = canonical
		}
		if topic, ok := helpTopics[name]; ok {
			s.System(topic)
			return
		}
		s.Error("No help for: " + args[0])
		return
	}

	var b strings.Builder
	b.WriteString("Commands:")
	for _, name := range commandNames() {
		b.WriteString("\n  " + helpTopics[name])
	}
	b.WriteString("\nUse @alias <text> to route a message to one or more sessions.")
	s.System(b.String())
}
