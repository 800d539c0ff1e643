// Package driver is the push-to-completion state machine: a
// pure should-continue oracle over goals, blockers and an iteration
// cap. It never suspends and never fails; every consultation yields a
// defined decision.
package driver

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/commander/internal/types"
)

// DefaultMaxIterations bounds autonomous iterations before forcing a
// user check-in.
const DefaultMaxIterations = 50

// DecisionKind discriminates a Decision.
type DecisionKind int

const (
	// DecideContinue means keep working autonomously.
	DecideContinue DecisionKind = iota
	// DecideStopForUser means blockers require user input.
	DecideStopForUser
	// DecideCheckIn means the iteration cap was hit; confirm course.
	DecideCheckIn
	// DecideComplete means every goal is recursively complete.
	DecideComplete
)

// Decision is the outcome of one should-continue consultation.
type Decision struct {
	Kind     DecisionKind
	Reason   string
	Progress string
	Summary  string
	Blockers []types.Blocker
}

// Driver tracks goals and blockers for one autonomous loop. Not safe
// for concurrent use; each loop owns its driver.
type Driver struct {
	maxIterations  int
	iterationCount int
	goals          []*types.Goal
	blockers       []types.Blocker
}

// New creates a Driver with the default iteration cap.
func New() *Driver { return WithMaxIterations(DefaultMaxIterations) }

// WithMaxIterations creates a Driver with a custom iteration cap.
func WithMaxIterations(max int) *Driver {
	return &Driver{maxIterations: max}
}

// ShouldContinue is the decision oracle. Precedence: blockers, then
// the iteration cap, then all-goals-complete, then continue.
func (d *Driver) ShouldContinue() Decision {
	if len(d.blockers) > 0 {
		return Decision{
			Kind:     DecideStopForUser,
			Reason:   d.formatBlockers(),
			Blockers: append([]types.Blocker(nil), d.blockers...),
		}
	}

	if d.iterationCount >= d.maxIterations {
		return Decision{
			Kind:     DecideCheckIn,
			Reason:   "Completed many iterations, checking if on track",
			Progress: d.FormatProgress(),
		}
	}

	if d.AllGoalsComplete() {
		return Decision{
			Kind:    DecideComplete,
			Summary: d.formatCompletionSummary(),
		}
	}

	return Decision{Kind: DecideContinue}
}

// AddGoal appends a goal to track.
func (d *Driver) AddGoal(g *types.Goal) { d.goals = append(d.goals, g) }

// SetGoals replaces all tracked goals.
func (d *Driver) SetGoals(goals []*types.Goal) { d.goals = goals }

// Goals returns the tracked goals.
func (d *Driver) Goals() []*types.Goal { return d.goals }

// UpdateGoalStatus sets the status of the goal with the given
// description, if present.
func (d *Driver) UpdateGoalStatus(description string, status types.GoalStatus) {
	for _, g := range d.goals {
		if g.Description == description {
			g.Status = status
			return
		}
	}
}

// CompleteGoal marks the named goal completed.
func (d *Driver) CompleteGoal(description string) {
	d.UpdateGoalStatus(description, types.GoalCompleted)
}

// BlockGoal marks the named goal blocked with a reason.
func (d *Driver) BlockGoal(description, reason string) {
	for _, g := range d.goals {
		if g.Description == description {
			g.Status = types.GoalBlocked
			g.BlockReason = reason
			return
		}
	}
}

// AddBlocker records a blocker requiring user input.
func (d *Driver) AddBlocker(b types.Blocker) { d.blockers = append(d.blockers, b) }

// ClearBlockers removes all blockers, after the user has responded.
func (d *Driver) ClearBlockers() { d.blockers = nil }

// Blockers returns the current blockers.
func (d *Driver) Blockers() []types.Blocker { return d.blockers }

// HasBlockers reports whether any blockers are recorded.
func (d *Driver) HasBlockers() bool { return len(d.blockers) > 0 }

// IncrementIteration advances the iteration counter.
func (d *Driver) IncrementIteration() { d.iterationCount++ }

// IterationCount returns the current iteration count.
func (d *Driver) IterationCount() int { return d.iterationCount }

// ResetIterations zeroes the iteration counter, after a user check-in.
func (d *Driver) ResetIterations() { d.iterationCount = 0 }

// AllGoalsComplete reports whether goals exist and every one is
// recursively complete.
func (d *Driver) AllGoalsComplete() bool {
	if len(d.goals) == 0 {
		return false
	}
	for _, g := range d.goals {
		if !g.IsComplete() {
			return false
		}
	}
	return true
}

// NextPendingGoal returns the first pending goal, or nil.
func (d *Driver) NextPendingGoal() *types.Goal {
	for _, g := range d.goals {
		if g.Status == types.GoalPending {
			return g
		}
	}
	return nil
}

// CurrentGoal returns the first in-progress goal, or nil.
func (d *Driver) CurrentGoal() *types.Goal {
	for _, g := range d.goals {
		if g.Status == types.GoalInProgress {
			return g
		}
	}
	return nil
}

// FormatProgress renders a goal checklist for prompts and check-ins.
func (d *Driver) FormatProgress() string {
	if len(d.goals) == 0 {
		return "No goals defined"
	}

	var b strings.Builder
	completed := 0
	for _, g := range d.goals {
		if g.IsComplete() {
			completed++
		}
	}
	fmt.Fprintf(&b, "Progress: %d/%d goals complete\n", completed, len(d.goals))
	for _, g := range d.goals {
		var mark string
		switch g.Status {
		case types.GoalPending:
			mark = "[ ]"
		case types.GoalInProgress:
			mark = "[~]"
		case types.GoalCompleted:
			mark = "[x]"
		case types.GoalBlocked:
			mark = "[!]"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, g.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (d *Driver) formatBlockers() string {
	reasons := make([]string, len(d.blockers))
	for i, b := range d.blockers {
		reasons[i] = b.Reason
	}
	return strings.Join(reasons, "; ")
}

func (d *Driver) formatCompletionSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "All %d goals completed:\n", len(d.goals))
	for _, g := range d.goals {
		fmt.Fprintf(&b, "- %s\n", g.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewBlocker creates a blocker of the given kind.
func NewBlocker(kind types.BlockerKind, reason string, options ...string) types.Blocker {
	return types.Blocker{Kind: kind, Reason: reason, Options: options}
}
