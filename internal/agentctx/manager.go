package agentctx

import "fmt"

// StrategyKind selects how a Manager reacts to a Critical action.
type StrategyKind int

const (
	// StrategyPauseResume pauses the session and instructs the caller
	// to resume it later.
	StrategyPauseResume StrategyKind = iota
	// StrategyCompaction compacts context and continues.
	StrategyCompaction
	// StrategyWarnAndContinue alerts the user and continues.
	StrategyWarnAndContinue
)

// Strategy configures how Manager.Update resolves a Critical action.
type Strategy struct {
	Kind          StrategyKind
	PauseCommand  string
	ResumeCommand string
}

// PauseResumeStrategy builds a StrategyPauseResume.
func PauseResumeStrategy(pauseCommand, resumeCommand string) Strategy {
	return Strategy{Kind: StrategyPauseResume, PauseCommand: pauseCommand, ResumeCommand: resumeCommand}
}

// CompactionStrategy builds a StrategyCompaction.
func CompactionStrategy() Strategy { return Strategy{Kind: StrategyCompaction} }

// WarnAndContinueStrategy builds a StrategyWarnAndContinue.
func WarnAndContinueStrategy() Strategy { return Strategy{Kind: StrategyWarnAndContinue} }

// ActionKind discriminates the Action sum type returned by Update.
type ActionKind int

const (
	ActionContinue ActionKind = iota
	ActionWarn
	ActionCritical
)

// CriticalKind discriminates the CriticalAction sum type.
type CriticalKind int

const (
	CriticalPause CriticalKind = iota
	CriticalCompact
	CriticalAlert
)

// CriticalAction is the action a Manager recommends once remaining
// context drops at or below the critical threshold.
type CriticalAction struct {
	Kind                CriticalKind
	Command             string
	StateSummary        string
	MessagesToSummarize int
	Message             string
}

// Action is the result of Manager.Update.
type Action struct {
	Kind             ActionKind
	RemainingPercent float32
	Critical         CriticalAction
}

// SessionSnapshot supplies the session state a PauseResume critical
// action folds into its generated state summary when the caller hasn't
// set one explicitly via SetStateSummary.
type SessionSnapshot struct {
	CurrentTask     string
	Goals           []string
	Blockers        []string
	ModifiedFiles   []string
	ProgressPercent float32
}

// Manager tracks token usage against a budget and dispatches a
// Strategy once usage crosses the warning or critical threshold.
type Manager struct {
	maxTokens         int
	currentTokens     int
	warningThreshold  float32
	criticalThreshold float32
	strategy          Strategy
	stateSummary      string
	compactionTarget  int
}

// NewManager creates a Manager with the default 20%/10% thresholds.
func NewManager(strategy Strategy, maxTokens int) *Manager {
	return NewManagerWithThresholds(strategy, maxTokens, 0.20, 0.10)
}

// NewManagerWithThresholds creates a Manager with explicit thresholds,
// clamped to [0, 1].
func NewManagerWithThresholds(strategy Strategy, maxTokens int, warningThreshold, criticalThreshold float32) *Manager {
	return &Manager{
		maxTokens:         maxTokens,
		warningThreshold:  clamp01(warningThreshold),
		criticalThreshold: clamp01(criticalThreshold),
		strategy:          strategy,
		compactionTarget:  10,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Update records the current estimated token usage and returns the
// resulting Action.
func (m *Manager) Update(estimatedTokens int, snapshot *SessionSnapshot) Action {
	m.currentTokens = estimatedTokens
	remaining := m.RemainingPercent()

	switch {
	case remaining <= m.criticalThreshold:
		return m.criticalAction(remaining, snapshot)
	case remaining <= m.warningThreshold:
		return Action{Kind: ActionWarn, RemainingPercent: remaining}
	default:
		return Action{Kind: ActionContinue}
	}
}

// RemainingPercent returns 1 - current/max, or 0 if max is 0.
func (m *Manager) RemainingPercent() float32 {
	if m.maxTokens == 0 {
		return 0
	}
	return 1 - float32(m.currentTokens)/float32(m.maxTokens)
}

// CurrentTokens returns the last recorded token usage.
func (m *Manager) CurrentTokens() int { return m.currentTokens }

// MaxTokens returns the configured token budget.
func (m *Manager) MaxTokens() int { return m.maxTokens }

// WarningThreshold returns the configured warning threshold.
func (m *Manager) WarningThreshold() float32 { return m.warningThreshold }

// CriticalThreshold returns the configured critical threshold.
func (m *Manager) CriticalThreshold() float32 { return m.criticalThreshold }

// Strategy returns the configured strategy.
func (m *Manager) Strategy() Strategy { return m.strategy }

// SetStateSummary overrides the generated state summary used by a
// PauseResume critical action.
func (m *Manager) SetStateSummary(summary string) { m.stateSummary = summary }

// SetCompactionTarget sets the baseline message count a Compaction
// critical action summarizes, before criticality scaling.
func (m *Manager) SetCompactionTarget(target int) { m.compactionTarget = target }

func (m *Manager) generateStateSummary(snapshot *SessionSnapshot) string {
	if m.stateSummary != "" {
		return m.stateSummary
	}
	if snapshot == nil {
		return fmt.Sprintf("Session paused at %.1f%% context usage (%d/%d tokens)",
			(1-m.RemainingPercent())*100, m.currentTokens, m.maxTokens)
	}

	summary := fmt.Sprintf("Session paused at %.1f%% context usage (%d/%d tokens). Task: %s. Progress: %.0f%%.",
		(1-m.RemainingPercent())*100, m.currentTokens, m.maxTokens, snapshot.CurrentTask, snapshot.ProgressPercent)
	if len(snapshot.Goals) > 0 {
		summary += fmt.Sprintf(" Goals: %d.", len(snapshot.Goals))
	}
	if len(snapshot.Blockers) > 0 {
		summary += fmt.Sprintf(" Blockers: %v.", snapshot.Blockers)
	}
	if len(snapshot.ModifiedFiles) > 0 {
		summary += fmt.Sprintf(" Modified files: %d.", len(snapshot.ModifiedFiles))
	}
	return summary
}

// calculateCompactionTarget scales the baseline compaction target up as
// remaining context approaches zero.
func (m *Manager) calculateCompactionTarget() int {
	remaining := m.RemainingPercent()
	overageRatio := float32(2.0)
	if remaining > 0 {
		overageRatio = m.criticalThreshold / remaining
	}

	target := int(ceilf32(float32(m.compactionTarget) * overageRatio))
	if target < m.compactionTarget {
		return m.compactionTarget
	}
	return target
}

func ceilf32(v float32) float32 {
	i := float32(int(v))
	if i < v {
		return i + 1
	}
	return i
}

func (m *Manager) criticalAction(remaining float32, snapshot *SessionSnapshot) Action {
	switch m.strategy.Kind {
	case StrategyPauseResume:
		return Action{
			Kind:             ActionCritical,
			RemainingPercent: remaining,
			Critical: CriticalAction{
				Kind:         CriticalPause,
				Command:      m.strategy.PauseCommand,
				StateSummary: m.generateStateSummary(snapshot),
			},
		}
	case StrategyCompaction:
		return Action{
			Kind:             ActionCritical,
			RemainingPercent: remaining,
			Critical: CriticalAction{
				Kind:                CriticalCompact,
				MessagesToSummarize: m.calculateCompactionTarget(),
			},
		}
	default: // StrategyWarnAndContinue
		return Action{
			Kind:             ActionCritical,
			RemainingPercent: remaining,
			Critical: CriticalAction{
				Kind:    CriticalAlert,
				Message: fmt.Sprintf("Context is at %.0f%% capacity. Consider starting a new session.", remaining*100),
			},
		}
	}
}

// IsWarning reports whether remaining context is between the critical
// and warning thresholds.
func (m *Manager) IsWarning() bool {
	remaining := m.RemainingPercent()
	return remaining <= m.warningThreshold && remaining > m.criticalThreshold
}

// IsCritical reports whether remaining context is at or below the
// critical threshold.
func (m *Manager) IsCritical() bool {
	return m.RemainingPercent() <= m.criticalThreshold
}

// Reset clears token usage and any explicit state summary for a new
// session.
func (m *Manager) Reset() {
	m.currentTokens = 0
	m.stateSummary = ""
}
