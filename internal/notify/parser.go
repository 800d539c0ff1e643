// Package notify turns free-form session notification lines into
// structured records and manages one-shot pairing codes for
// handing off authorization between processes on the same host.
package notify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Extraction regexes, applied in order. pathRegex stops at
// whitespace: paths containing spaces are intentionally unsupported.
var (
	ansiRegex    = regexp.MustCompile(`\x1B\[[0-9;]*[a-zA-Z]`)
	sessionRegex = regexp.MustCompile(`(?:^|\s)@([a-zA-Z0-9_-]+)`)
	pathRegex    = regexp.MustCompile(`([^@\s]+)@([^:\s]+):([^\s(]+)`)
	branchRegex  = regexp.MustCompile(`\(([a-zA-Z0-9_/.-]{2,})([*?!+-]*)\)`)
	modelRegex   = regexp.MustCompile(`\[([^|\]]+)\|([^|\]]+)\|([0-9]+)%\]`)
)

// SessionStatus is the structured result of parsing one notification
// line: session name, working path, git branch and flags, model info
// and context-window usage.
type SessionStatus struct {
	Name         string
	Path         string
	Branch       string
	GitStatus    string
	Model        string
	Framework    string
	ContextUsage int // percentage 0-100, -1 when absent
}

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// Parse extracts a SessionStatus from a raw notification line. Returns
// nil when the line carries no @session mention.
func Parse(raw string) *SessionStatus {
	clean := StripANSI(raw)

	sessionMatch := sessionRegex.FindStringSubmatch(clean)
	if sessionMatch == nil {
		return nil
	}

	status := &SessionStatus{Name: sessionMatch[1], ContextUsage: -1}

	if m := pathRegex.FindStringSubmatch(clean); m != nil {
		status.Path = m[3]
	}
	if m := branchRegex.FindStringSubmatch(clean); m != nil {
		status.Branch = m[1]
		status.GitStatus = m[2]
	}
	if m := modelRegex.FindStringSubmatch(clean); m != nil {
		status.Model = strings.TrimSpace(m[1])
		status.Framework = strings.TrimSpace(m[2])
		if usage, err := strconv.Atoi(m[3]); err == nil && usage <= 100 {
			status.ContextUsage = usage
		}
	}

	return status
}

// Project returns the path basename, or the session name when no path
// was parsed.
func (s *SessionStatus) Project() string {
	if s.Path == "" {
		return s.Name
	}
	if idx := strings.LastIndexByte(s.Path, '/'); idx >= 0 {
		return s.Path[idx+1:]
	}
	return s.Path
}

// Conversational renders the status as a sentence mentioning session,
// project, branch with human-readable flags, context-usage band and a
// simplified model family.
func (s *SessionStatus) Conversational() string {
	parts := []string{fmt.Sprintf("%q", s.Name)}

	if s.Path != "" {
		parts = append(parts, "project "+s.Project())
	}

	if s.Branch != "" {
		if desc := describeGitStatus(s.GitStatus); desc != "" {
			parts = append(parts, fmt.Sprintf("branch %s (%s)", s.Branch, desc))
		} else {
			parts = append(parts, "branch "+s.Branch)
		}
	}

	if s.ContextUsage >= 0 {
		switch {
		case s.ContextUsage >= 90:
			parts = append(parts, fmt.Sprintf("%d%% context (critical)", s.ContextUsage))
		case s.ContextUsage >= 70:
			parts = append(parts, fmt.Sprintf("%d%% context (getting full)", s.ContextUsage))
		default:
			parts = append(parts, fmt.Sprintf("%d%% context", s.ContextUsage))
		}
	}

	if family := simplifyModelName(s.Model); family != "" {
		parts = append(parts, family)
	}

	if len(parts) == 1 {
		return "Session " + parts[0]
	}
	return fmt.Sprintf("Session %s: %s", parts[0], strings.Join(parts[1:], ", "))
}

// Brief renders a short "{project} on {branch}[ with changes] ({N}%
// ctx)" status line.
func (s *SessionStatus) Brief() string {
	var b strings.Builder
	b.WriteString(s.Project())

	if s.Branch != "" {
		b.WriteString(" on " + s.Branch)
		if strings.ContainsAny(s.GitStatus, "*?") {
			b.WriteString(" with changes")
		}
	}

	if s.ContextUsage >= 0 {
		fmt.Fprintf(&b, " (%d%% ctx)", s.ContextUsage)
	}
	return b.String()
}

// describeGitStatus maps flag characters to human-readable words.
func describeGitStatus(flags string) string {
	var descriptions []string
	if strings.ContainsRune(flags, '*') {
		descriptions = append(descriptions, "modified")
	}
	if strings.ContainsRune(flags, '?') {
		descriptions = append(descriptions, "untracked files")
	}
	if strings.ContainsRune(flags, '+') {
		descriptions = append(descriptions, "staged")
	}
	if strings.ContainsRune(flags, '-') {
		descriptions = append(descriptions, "deleted")
	}
	if strings.ContainsRune(flags, '!') {
		descriptions = append(descriptions, "ignored")
	}
	return strings.Join(descriptions, ", ")
}

// simplifyModelName collapses long model identifiers into a family
// name, or empty for unknown models.
func simplifyModelName(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "opus"):
		return "Claude Opus"
	case strings.Contains(lower, "sonnet"):
		return "Claude Sonnet"
	case strings.Contains(lower, "haiku"):
		return "Claude Haiku"
	case strings.Contains(lower, "claude"):
		return "Claude"
	case strings.Contains(lower, "gpt-4"):
		return "GPT-4"
	case strings.Contains(lower, "gpt-3"):
		return "GPT-3.5"
	default:
		return ""
	}
}
