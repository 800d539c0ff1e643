package frontend

import (
	"context"
	"strings"
)

// Route is a parsed "@alias[ @alias2…] text" line.
type Route struct {
	Aliases []string
	Text    string
}

// ParseRoute recognizes the routed-send grammar: one or more leading
// @aliases followed by the message. Returns nil when line does not
// start with an alias or carries no message text.
func ParseRoute(line string) *Route {
	fields := strings.Fields(line)
	var aliases []string
	i := 0
	for ; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "@") || len(fields[i]) < 2 {
			break
		}
		aliases = append(aliases, fields[i][1:])
	}
	if len(aliases) == 0 || i >= len(fields) {
		return nil
	}
	return &Route{Aliases: aliases, Text: strings.Join(fields[i:], " ")}
}

// resolveAlias maps an alias to a multiplexer session name: the
// connection's session map first, then the alias as a literal session
// name, then the commander-{alias} convention.
func (s *State) resolveAlias(ctx context.Context, alias string) string {
	if s.conn != nil {
		if name, ok := s.conn.Sessions[alias]; ok {
			return name
		}
	}
	if s.mux.SessionExists(ctx, alias) {
		return alias
	}
	return MuxSessionName(alias)
}

// handleRoute delivers a routed send to each matched target
// independently, reporting per-target failures.
func (s *State) handleRoute(ctx context.Context, line string) {
	route := ParseRoute(line)
	if route == nil {
		s.Error("Routed send needs @alias and a message, like: @myproject run the tests")
		return
	}

	s.appendMessage(KindUser, line)

	for _, alias := range route.Aliases {
		target := s.resolveAlias(ctx, alias)
		if err := s.mux.SendLine(ctx, target, "", route.Text); err != nil {
			s.Error("Cannot send to @" + alias + " (" + target + "): " + err.Error())
			continue
		}
		s.System("Sent to @" + alias + " (" + target + ")")
	}
}
