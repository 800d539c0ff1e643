// Package fsparser parses and executes the thin filesystem
// subcommands (ls, cat, head, tail) that a connected frontend handles
// locally instead of forwarding to the assistant.
package fsparser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// RangeKind selects which slice of a file a Read returns.
type RangeKind int

const (
	// RangeAll reads the whole file.
	RangeAll RangeKind = iota
	// RangeHead reads the first N lines.
	RangeHead
	// RangeTail reads the last N lines.
	RangeTail
)

// LineRange is a proper sum over all/head/tail reads.
type LineRange struct {
	Kind RangeKind
	N    int
}

// CommandKind discriminates a parsed Command.
type CommandKind int

const (
	// KindList lists a directory.
	KindList CommandKind = iota
	// KindRead reads a file, optionally a head or tail slice.
	KindRead
)

// Command is a parsed filesystem subcommand.
type Command struct {
	Kind  CommandKind
	Path  string
	Range LineRange
}

// Result is the outcome of executing a Command.
type Result struct {
	Success bool
	Message string
	Details string
}

func ok(message, details string) Result {
	return Result{Success: true, Message: message, Details: details}
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

// defaultSliceLines is head/tail's line count when no -N flag is
// given.
const defaultSliceLines = 10

// resolvePath anchors relative paths at workingDir.
func resolvePath(p, workingDir string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workingDir, p)
}

// Parse recognizes a filesystem subcommand in input, resolving paths
// against workingDir. Returns (nil, false) when the input is not a
// filesystem subcommand and should be routed elsewhere.
func Parse(input, workingDir string) (*Command, bool) {
	words := strings.Fields(strings.TrimSpace(input))
	if len(words) == 0 {
		return nil, false
	}

	switch strings.ToLower(words[0]) {
	case "ls", "list", "dir":
		path := "."
		if len(words) > 1 && !strings.HasPrefix(words[1], "-") {
			path = words[1]
		}
		return &Command{Kind: KindList, Path: resolvePath(path, workingDir)}, true

	case "cat", "show", "view":
		if len(words) < 2 {
			return nil, false
		}
		return &Command{
			Kind:  KindRead,
			Path:  resolvePath(words[1], workingDir),
			Range: LineRange{Kind: RangeAll},
		}, true

	case "head", "tail":
		if len(words) < 2 {
			return nil, false
		}
		n := defaultSliceLines
		for _, w := range words[1 : len(words)-1] {
			if strings.HasPrefix(w, "-") {
				if parsed, err := strconv.Atoi(w[1:]); err == nil && parsed > 0 {
					n = parsed
				}
			}
		}
		kind := RangeHead
		if strings.ToLower(words[0]) == "tail" {
			kind = RangeTail
		}
		return &Command{
			Kind:  KindRead,
			Path:  resolvePath(words[len(words)-1], workingDir),
			Range: LineRange{Kind: kind, N: n},
		}, true
	}

	return nil, false
}

// Execute runs a parsed Command against the filesystem.
func Execute(cmd *Command) Result {
	switch cmd.Kind {
	case KindList:
		return executeList(cmd.Path)
	case KindRead:
		return executeRead(cmd.Path, cmd.Range)
	default:
		return fail("unknown filesystem command")
	}
}

func executeList(path string) Result {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fail(fmt.Sprintf("cannot list %s: %v", path, err))
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return ok(fmt.Sprintf("%d entries in %s", len(names), path), strings.Join(names, "\n"))
}

func executeRead(path string, r LineRange) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Sprintf("cannot read %s: %v", path, err))
	}

	content := strings.TrimRight(string(data), "\n")
	lines := strings.Split(content, "\n")

	switch r.Kind {
	case RangeHead:
		if r.N < len(lines) {
			lines = lines[:r.N]
		}
	case RangeTail:
		if r.N < len(lines) {
			lines = lines[len(lines)-r.N:]
		}
	}

	return ok(fmt.Sprintf("%s (%d lines)", path, len(lines)), strings.Join(lines, "\n"))
}
