package bindings

import (
	"testing"

	"github.com/maya/stride/internal/observability"
	"github.com/maya/stride/internal/plan"
	"github.com/stretchr/testify/require"
)

func newBinder(t *testing.T) *Binder {
	t.Helper()
	return NewBinder(plan.NewStore(), observability.NewLogger(t.TempDir()), "s1")
}

func TestHandleToolResult_CreatePlan(t *testing.T) {
	b := newBinder(t)

	view := b.HandleToolResult(ToolCreatePlan, map[string]any{
		"plan": map[string]any{"steps": []any{
			map[string]any{"description": "a"},
		}},
	}, CallComplete)

	require.NotNil(t, view.Plan)
	require.Len(t, view.Plan.Steps, 1)
	require.Equal(t, "a", view.Plan.Steps[0].Description)
	require.Equal(t, plan.StatusPending, view.Plan.Steps[0].Status)
	require.Equal(t, view.Plan, b.Store().Current())
}

func TestHandleToolResult_CreatePlanUnusableKeepsPrior(t *testing.T) {
	b := newBinder(t)
	prior := &plan.Plan{Steps: []plan.Step{{Description: "keep me", Status: plan.StatusPending}}}
	b.Store().SetPlan(prior)

	view := b.HandleToolResult(ToolCreatePlan, `{"steps": []}`, CallComplete)

	require.Same(t, prior, b.Store().Current(), "unusable result must not clear the plan")
	require.Same(t, prior, view.Plan, "display falls back to the stored plan")
}

func TestHandleToolResult_CreatePlanInFlightResultIsDisplayed(t *testing.T) {
	b := newBinder(t)

	// While the call is still streaming, an in-flight but well-formed
	// result is already displayable.
	view := b.HandleToolResult(ToolCreatePlan, `{"plan":{"steps":[{"description":"x"}]}}`, CallRunning)
	require.NotNil(t, view.Plan)
	require.Equal(t, "x", view.Plan.Steps[0].Description)
}

func TestHandleToolResult_UpdateStepStringIndexEndToEnd(t *testing.T) {
	b := newBinder(t)
	b.Store().SetPlan(&plan.Plan{Steps: []plan.Step{
		{Description: "one", Status: plan.StatusPending},
		{Description: "two", Status: plan.StatusPending},
		{Description: "three", Status: plan.StatusPending},
	}})

	view := b.HandleToolResult(ToolUpdatePlanStep, `{"index":"2","status":"completed"}`, CallComplete)
	require.Nil(t, view.Plan, "step updates produce no visible output")
	require.Nil(t, view.Table)

	got := b.Store().Current()
	require.Equal(t, plan.StatusCompleted, got.Steps[2].Status)
	require.Equal(t, "three", got.Steps[2].Description, "description unchanged by a status-only update")
}

func TestHandleToolResult_UpdateStepRedeliveryIsIdempotent(t *testing.T) {
	b := newBinder(t)
	b.Store().SetPlan(&plan.Plan{Steps: []plan.Step{
		{Description: "one", Status: plan.StatusPending},
	}})

	result := map[string]any{"index": 0.0, "status": "completed"}
	b.HandleToolResult(ToolUpdatePlanStep, result, CallRunning)
	once := b.Store().Current()
	b.HandleToolResult(ToolUpdatePlanStep, result, CallComplete)
	twice := b.Store().Current()

	require.Equal(t, once, twice)
}

func TestHandleToolResult_UpdateStepOutOfRangeIsSilent(t *testing.T) {
	b := newBinder(t)
	p := &plan.Plan{Steps: []plan.Step{{Description: "only", Status: plan.StatusPending}}}
	b.Store().SetPlan(p)

	b.HandleToolResult(ToolUpdatePlanStep, map[string]any{"index": 5.0, "status": "completed"}, CallComplete)
	require.Same(t, p, b.Store().Current())
}

func TestHandleToolResult_TableStates(t *testing.T) {
	b := newBinder(t)

	view := b.HandleToolResult("get_econ_data", nil, CallRunning)
	require.NotNil(t, view.Table)
	require.Equal(t, TableLoading, view.Table.State, "no usable rows while running means loading")

	view = b.HandleToolResult("get_econ_data", `[]`, CallComplete)
	require.Equal(t, TableEmpty, view.Table.State, "no usable rows once complete means nothing to show")

	view = b.HandleToolResult("get_econ_data", `[{"indicator":"gdp","value":430}]`, CallComplete)
	require.Equal(t, TableReady, view.Table.State)
	require.Len(t, view.Table.Rows, 1)
	require.Equal(t, "gdp", view.Table.Rows[0]["indicator"])
}
