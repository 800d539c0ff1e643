package changedetect

import (
	"regexp"
	"strings"
)

var (
	promptGlyphRe  = regexp.MustCompile(`❯\s*$`)
	bypassHintRe   = regexp.MustCompile(`(?i)bypass permissions`)
	boxTopBottomRe = regexp.MustCompile(`^[╭╮╯╰─━═┌┐└┘]+$`)
	barePromptRe   = regexp.MustCompile(`^>\s*$`)
)

// IsReady is a heuristic readiness probe answering "is the assistant idle
// at a prompt?" by inspecting the last ~10 non-empty lines of a capture.
// It is tightly bound to one assistant's UI glyphs and is deliberately
// table-driven so adapters can layer their own heuristics on top; it says
// nothing about significance and is consumed only by frontend idle
// detection.
func IsReady(output string) bool {
	lines := strings.Split(output, "\n")
	var tail []string
	for i := len(lines) - 1; i >= 0 && len(tail) < 10; i-- {
		trimmed := strings.TrimRight(lines[i], " \t\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		tail = append([]string{trimmed}, tail...)
	}
	if len(tail) == 0 {
		return false
	}

	if promptGlyphRe.MatchString(tail[len(tail)-1]) {
		return true
	}

	if barePromptRe.MatchString(tail[len(tail)-1]) {
		return true
	}

	// Bordered input box: a top/bottom rule line with a "❯" line inside.
	sawBox := false
	sawGlyph := false
	for _, l := range tail {
		if boxTopBottomRe.MatchString(strings.TrimSpace(l)) {
			sawBox = true
		}
		if promptGlyphRe.MatchString(l) || strings.Contains(l, "❯") {
			sawGlyph = true
		}
	}
	if sawBox && sawGlyph {
		return true
	}

	checkFrom := 0
	if len(tail) > 5 {
		checkFrom = len(tail) - 5
	}
	for _, l := range tail[checkFrom:] {
		if bypassHintRe.MatchString(l) {
			return true
		}
	}

	return false
}
