package agentctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerNew(t *testing.T) {
	m := NewManager(CompactionStrategy(), 200_000)
	assert.Equal(t, 200_000, m.MaxTokens())
	assert.Equal(t, 0, m.CurrentTokens())
	assert.InDelta(t, 0.20, m.WarningThreshold(), 0.001)
	assert.InDelta(t, 0.10, m.CriticalThreshold(), 0.001)
}

func TestManagerWithThresholds(t *testing.T) {
	m := NewManagerWithThresholds(WarnAndContinueStrategy(), 100_000, 0.30, 0.15)
	assert.InDelta(t, 0.30, m.WarningThreshold(), 0.001)
	assert.InDelta(t, 0.15, m.CriticalThreshold(), 0.001)
}

func TestManagerThresholdClamping(t *testing.T) {
	m := NewManagerWithThresholds(WarnAndContinueStrategy(), 100_000, 1.5, -0.5)
	assert.Equal(t, float32(1.0), m.WarningThreshold())
	assert.Equal(t, float32(0.0), m.CriticalThreshold())
}

func TestRemainingPercent(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)
	assert.InDelta(t, 1.0, m.RemainingPercent(), 0.001)

	m.Update(50_000, nil)
	assert.InDelta(t, 0.5, m.RemainingPercent(), 0.001)

	m.Update(90_000, nil)
	assert.InDelta(t, 0.1, m.RemainingPercent(), 0.001)
}

func TestUpdateContinue(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)
	action := m.Update(50_000, nil)
	assert.Equal(t, ActionContinue, action.Kind)
}

func TestUpdateWarning(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)
	action := m.Update(85_000, nil)
	require.Equal(t, ActionWarn, action.Kind)
	assert.InDelta(t, 0.15, action.RemainingPercent, 0.001)
}

func TestUpdateCriticalCompaction(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)
	action := m.Update(95_000, nil)
	require.Equal(t, ActionCritical, action.Kind)
	require.Equal(t, CriticalCompact, action.Critical.Kind)
	assert.GreaterOrEqual(t, action.Critical.MessagesToSummarize, 10)
}

func TestUpdateCriticalPauseResume(t *testing.T) {
	m := NewManager(PauseResumeStrategy("/mpm-session-pause", "/mpm-session-resume"), 100_000)
	action := m.Update(95_000, nil)
	require.Equal(t, ActionCritical, action.Kind)
	require.Equal(t, CriticalPause, action.Critical.Kind)
	assert.Equal(t, "/mpm-session-pause", action.Critical.Command)
}

func TestUpdateCriticalAlert(t *testing.T) {
	m := NewManager(WarnAndContinueStrategy(), 100_000)
	action := m.Update(95_000, nil)
	require.Equal(t, ActionCritical, action.Kind)
	require.Equal(t, CriticalAlert, action.Critical.Kind)
	assert.Contains(t, action.Critical.Message, "capacity")
}

func TestIsWarningIsCritical(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)

	m.Update(50_000, nil)
	assert.False(t, m.IsWarning())
	assert.False(t, m.IsCritical())

	m.Update(85_000, nil)
	assert.True(t, m.IsWarning())
	assert.False(t, m.IsCritical())

	m.Update(91_000, nil)
	assert.False(t, m.IsWarning())
	assert.True(t, m.IsCritical())
}

func TestStateSummary(t *testing.T) {
	m := NewManager(PauseResumeStrategy("/pause", "/resume"), 100_000)

	action := m.Update(95_000, nil)
	assert.Contains(t, action.Critical.StateSummary, "95000")

	m.SetStateSummary("Custom pause state: working on feature X")
	action = m.Update(95_000, nil)
	assert.Equal(t, "Custom pause state: working on feature X", action.Critical.StateSummary)
}

func TestStateSummaryFromSnapshot(t *testing.T) {
	m := NewManager(PauseResumeStrategy("/pause", "/resume"), 100_000)
	snapshot := &SessionSnapshot{
		CurrentTask:     "implement feature",
		Goals:           []string{"g1", "g2"},
		Blockers:        []string{"waiting on review"},
		ModifiedFiles:   []string{"a.go", "b.go"},
		ProgressPercent: 60,
	}
	action := m.Update(95_000, snapshot)
	assert.Contains(t, action.Critical.StateSummary, "implement feature")
	assert.Contains(t, action.Critical.StateSummary, "waiting on review")
}

func TestManagerReset(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)
	m.Update(50_000, nil)
	m.SetStateSummary("some state")
	assert.Equal(t, 50_000, m.CurrentTokens())

	m.Reset()
	assert.Equal(t, 0, m.CurrentTokens())
}

func TestCompactionTargetIncreasesWithCriticality(t *testing.T) {
	m := NewManager(CompactionStrategy(), 100_000)
	m.SetCompactionTarget(10)

	m.currentTokens = 85_000
	warning := m.calculateCompactionTarget()

	m.currentTokens = 95_000
	critical := m.calculateCompactionTarget()

	assert.GreaterOrEqual(t, critical, warning)
}

func TestZeroMaxTokens(t *testing.T) {
	m := NewManager(CompactionStrategy(), 0)
	assert.Equal(t, float32(0), m.RemainingPercent())

	action := m.Update(100, nil)
	assert.Equal(t, ActionCritical, action.Kind)
}
