package useragent

import (
	"context"
	"testing"

	"github.com/haasonsaas/commander/internal/driver"
	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGoalsNumberedList(t *testing.T) {
	client := &scriptedCompleter{responses: []*llm.Response{
		text("1. Set up the repository\n2. Write the parser\n- Add tests"),
	}}
	a := newTestAgent(client)

	goals, err := a.parseGoals(context.Background(), "build a parser")
	require.NoError(t, err)
	require.Len(t, goals, 3)
	assert.Equal(t, "Set up the repository", goals[0].Description)
	assert.Equal(t, "Write the parser", goals[1].Description)
	assert.Equal(t, "Add tests", goals[2].Description)
	for _, g := range goals {
		assert.Equal(t, types.GoalPending, g.Status)
	}
}

func TestParseGoalsFallbackToWholeRequest(t *testing.T) {
	client := &scriptedCompleter{responses: []*llm.Response{text("   \n  \n")}}
	a := newTestAgent(client)

	goals, err := a.parseGoals(context.Background(), "just do the thing")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "just do the thing", goals[0].Description)
}

func TestProcessAutonomousCompletes(t *testing.T) {
	client := &scriptedCompleter{responses: []*llm.Response{
		text("1. Write the feature"),    // goal decomposition
		text("[GOAL COMPLETE] done it"), // first action completes the goal
	}}
	a := newTestAgent(client)

	result, d, err := a.ProcessAutonomous(context.Background(), "write the feature")
	require.NoError(t, err)
	assert.Equal(t, ResultComplete, result.Kind)
	assert.Contains(t, result.Summary, "All 1 goals completed")
	require.Len(t, result.GoalsAchieved, 1)
	assert.True(t, d.AllGoalsComplete())
}

func TestProcessAutonomousBlockerScenario(t *testing.T) {
	client := &scriptedCompleter{responses: []*llm.Response{
		text("1. Deploy to production"),
		text("[BLOCKED] I need the production API key\nOptions:\n1. Use staging\n2. Skip"),
	}}
	a := newTestAgent(client)

	result, d, err := a.ProcessAutonomous(context.Background(), "deploy the service")
	require.NoError(t, err)
	require.Equal(t, ResultNeedsInput, result.Kind)
	require.Len(t, result.Blockers, 1)

	blocker := result.Blockers[0]
	assert.Equal(t, types.ExternalDependency, blocker.Kind)
	assert.Contains(t, blocker.Reason, "API key")
	assert.Equal(t, []string{"Use staging", "Skip"}, blocker.Options)
	assert.True(t, d.HasBlockers())
}

func TestProcessAutonomousIterationCapChecksIn(t *testing.T) {
	client := &scriptedCompleter{responses: []*llm.Response{
		text("1. Endless task"),
		text("Still working on it."), // never completes, never blocks
	}}
	a := newTestAgent(client)

	// Shrink the cap via a custom driver-driven run.
	d := driver.WithMaxIterations(3)
	goals, err := a.parseGoals(context.Background(), "do the endless task")
	require.NoError(t, err)
	d.SetGoals(goals)

	result, err := a.runLoop(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, ResultCheckIn, result.Kind)
	assert.Equal(t, 3, d.IterationCount())
}

func TestResumeAutonomousClearsBlockersAndContinues(t *testing.T) {
	client := &scriptedCompleter{responses: []*llm.Response{
		text("Understood, using staging."), // processing the user input
		text("[GOAL COMPLETE]"),            // next action completes
	}}
	a := newTestAgent(client)

	d := driver.New()
	d.SetGoals([]*types.Goal{{Description: "deploy", Status: types.GoalInProgress}})
	d.AddBlocker(driver.NewBlocker(types.ExternalDependency, "missing API key"))

	result, err := a.ResumeAutonomous(context.Background(), "use the staging key", d)
	require.NoError(t, err)
	assert.Equal(t, ResultComplete, result.Kind)
	assert.False(t, d.HasBlockers())
}

func TestClassifyErrorAsBlocker(t *testing.T) {
	a := newTestAgent(&scriptedCompleter{responses: []*llm.Response{text("")}})

	cfg := a.classifyErrorAsBlocker(&ConfigurationError{Message: "no API key set"})
	require.NotNil(t, cfg)
	assert.Equal(t, types.ExternalDependency, cfg.Kind)

	maxIter := a.classifyErrorAsBlocker(&MaxIterationsExceededError{Limit: 10})
	require.NotNil(t, maxIter)
	assert.Equal(t, types.DecisionNeeded, maxIter.Kind)

	perm := a.classifyErrorAsBlocker(&ToolExecutionError{Tool: "delegate_to_session", Message: "permission denied"})
	require.NotNil(t, perm)
	assert.Equal(t, types.ErrorRequiresJudgment, perm.Kind)
	assert.Equal(t, []string{"Retry", "Skip this step", "Try alternative"}, perm.Options)

	recoverable := a.classifyErrorAsBlocker(&ToolExecutionError{Tool: "x", Message: "transient network blip"})
	assert.Nil(t, recoverable)
}

func TestExtractBlockerReason(t *testing.T) {
	assert.Equal(t, "missing credentials",
		extractBlockerReason("[BLOCKED] missing credentials\nmore text"))
	assert.Equal(t, "I need more information about the schema",
		extractBlockerReason("I need more information about the schema"))
	assert.Equal(t, "User input needed to proceed",
		extractBlockerReason("something unrelated"))
}

func TestClassifyBlockerKind(t *testing.T) {
	assert.Equal(t, types.ExternalDependency, classifyBlockerKind("I need the api key"))
	assert.Equal(t, types.DecisionNeeded, classifyBlockerKind("please choose a decision"))
	assert.Equal(t, types.ErrorRequiresJudgment, classifyBlockerKind("the build failed badly"))
	assert.Equal(t, types.AmbiguousRequirements, classifyBlockerKind("requirements are unclear to me"))
	assert.Equal(t, types.InformationNeeded, classifyBlockerKind("tell me more"))
}

func TestExtractOptions(t *testing.T) {
	options := extractOptions("choose:\n1. Use staging\n2) Skip\nnot an option\n3: Retry")
	assert.Equal(t, []string{"Use staging", "Skip", "Retry"}, options)
	assert.Empty(t, extractOptions("no numbered lines here"))
}
