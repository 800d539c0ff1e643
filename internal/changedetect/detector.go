// Package changedetect implements the deterministic hash+regex change
// classifier and the adaptive poller that derives cadence from it.
// Nothing in this package ever performs I/O or suspends.
package changedetect

import (
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/haasonsaas/commander/internal/types"
)

// typeLabel is the human-readable prefix prepended to a change summary.
func typeLabel(t types.ChangeType) string {
	switch t {
	case types.ChangeCompletion:
		return "Completed: "
	case types.ChangeError:
		return "Error: "
	case types.ChangeWaitingForInput:
		return "Waiting for input: "
	case types.ChangeProgress:
		return "Progress: "
	case types.ChangeAddition:
		return "New output: "
	default:
		return ""
	}
}

// Detector converts a raw scrollback capture into a classified
// types.ChangeEvent relative to the previous capture. A zero-value
// Detector is usable; NewDetector only exists to install the default
// pattern tables.
type Detector struct {
	prevHash   uint64
	hasPrev    bool
	prevOutput string

	significant []significantPattern
	ignore      []*regexp.Regexp
}

// NewDetector returns a Detector initialized with the default pattern
// tables.
func NewDetector() *Detector {
	return &Detector{
		significant: defaultSignificantPatterns(),
		ignore:      defaultIgnorePatterns(),
	}
}

// AddSignificantPattern appends a custom classification row, evaluated
// after the built-in table.
func (d *Detector) AddSignificantPattern(pattern string, changeType types.ChangeType, significance types.Significance) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	d.significant = append(d.significant, significantPattern{re: re, changeType: changeType, significance: significance})
	return nil
}

// AddIgnorePattern appends a custom noise pattern.
func (d *Detector) AddIgnorePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	d.ignore = append(d.ignore, re)
	return nil
}

// Reset clears detector state, as if observing a brand-new session.
func (d *Detector) Reset() {
	d.hasPrev = false
	d.prevHash = 0
	d.prevOutput = ""
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func (d *Detector) isNoise(trimmed string) bool {
	if trimmed == "" {
		return true
	}
	for _, re := range d.ignore {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// clean strips noise lines and returns the remaining trimmed, non-empty
// lines in order.
func (d *Detector) clean(output string) []string {
	lines := strings.Split(output, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if d.isNoise(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// CleanLines strips noise lines from a capture and returns the
// remaining trimmed, non-empty lines in order. Frontends use this to
// collect response lines without the detector's diff state.
func (d *Detector) CleanLines(output string) []string {
	return d.clean(output)
}

// findNewLines returns lines present in current but absent from prev,
// preserving current's order. Comparison set is built from prev.
func findNewLines(prev, current []string) []string {
	seen := make(map[string]struct{}, len(prev))
	for _, l := range prev {
		seen[l] = struct{}{}
	}
	var fresh []string
	for _, l := range current {
		if _, ok := seen[l]; !ok {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

// classify walks the ordered pattern table for each new line; the first
// matching entry wins for that line, and the event's overall significance
// is the maximum across lines. Ties prefer the non-addition type that
// first reached that significance.
func (d *Detector) classify(newLines []string) (types.ChangeType, types.Significance) {
	if len(newLines) == 0 {
		return types.ChangeNone, types.SigIgnore
	}

	bestType := types.ChangeAddition
	bestSig := types.SigLow

	for _, line := range newLines {
		for _, p := range d.significant {
			if p.re.MatchString(line) {
				if p.significance > bestSig || (p.significance == bestSig && bestType == types.ChangeAddition) {
					bestSig = p.significance
					bestType = p.changeType
				}
				break // first matching pattern wins for this line
			}
		}
	}

	return bestType, bestSig
}

// summarize picks the highest-significance matched line (or the first new
// line), truncates it, and prefixes it with a type label.
func (d *Detector) summarize(newLines []string, changeType types.ChangeType) string {
	if len(newLines) == 0 {
		return ""
	}

	relevant := newLines[0]
	bestSig := types.SigIgnore
	for _, line := range newLines {
		for _, p := range d.significant {
			if p.re.MatchString(line) {
				if p.significance > bestSig {
					bestSig = p.significance
					relevant = line
				}
				break // first matching pattern wins for this line
			}
		}
	}

	truncated := relevant
	if len(truncated) > 100 {
		truncated = truncated[:97] + "..."
	}

	return typeLabel(changeType) + truncated
}

// Detect classifies the delta between currentOutput and whatever was
// passed to the previous call. The first call has no baseline, so every
// non-noise line of that capture counts as new.
func (d *Detector) Detect(currentOutput string) *types.ChangeEvent {
	currentHash := hashString(currentOutput)
	if d.hasPrev && d.prevHash == currentHash {
		return &types.ChangeEvent{ChangeType: types.ChangeNone, Significance: types.SigIgnore}
	}

	cleanedCurrent := d.clean(currentOutput)
	var cleanedPrev []string
	if d.hasPrev {
		cleanedPrev = d.clean(d.prevOutput)
	}

	newLines := findNewLines(cleanedPrev, cleanedCurrent)
	changeType, significance := d.classify(newLines)
	summary := d.summarize(newLines, changeType)

	d.prevHash = currentHash
	d.prevOutput = currentOutput
	d.hasPrev = true

	return &types.ChangeEvent{
		ChangeType:   changeType,
		Summary:      summary,
		DiffLines:    newLines,
		Significance: significance,
	}
}
