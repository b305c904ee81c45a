// Package bindings reacts to tool results arriving from the backend and
// drives the plan store. Each binding is tolerant of re-delivery: the
// transport may report the same logical result first while the call is
// running and again when it completes.
package bindings

import (
	"github.com/maya/stride/internal/normalize"
	"github.com/maya/stride/internal/observability"
	"github.com/maya/stride/internal/plan"
)

// Tool names the backend's planning tools report under.
const (
	ToolCreatePlan     = "create_plan"
	ToolUpdatePlanStep = "update_plan_step"
)

// CallStatus is the lifecycle state of the underlying tool call.
type CallStatus string

const (
	CallRunning  CallStatus = "running"
	CallComplete CallStatus = "complete"
)

// TableState distinguishes "no data yet" from "nothing to show".
type TableState string

const (
	TableLoading TableState = "loading"
	TableEmpty   TableState = "empty"
	TableReady   TableState = "ready"
)

// Table is the presentation value for a tabular tool result.
type Table struct {
	State TableState
	Rows  []map[string]any
}

// View is what a tool result leaves behind for presentation: a plan for
// the planning tool, a table for data tools. The step-update binding
// mutates the store and produces no visible output.
type View struct {
	Plan  *plan.Plan
	Table *Table
}

// Binder applies normalized tool results to the session's plan store.
type Binder struct {
	store     *plan.Store
	logger    *observability.Logger
	sessionID string
}

func NewBinder(store *plan.Store, logger *observability.Logger, sessionID string) *Binder {
	return &Binder{store: store, logger: logger, sessionID: sessionID}
}

// HandleToolResult dispatches one tool-result delivery. The result
// value is untrusted; anything unusable is ignored after a diagnostic.
func (b *Binder) HandleToolResult(toolName string, result any, status CallStatus) View {
	b.logger.LogToolResult(b.sessionID, toolName, string(status))

	switch toolName {
	case ToolCreatePlan:
		return View{Plan: b.handleCreatePlan(result)}
	case ToolUpdatePlanStep:
		b.handleUpdateStep(result)
		return View{}
	default:
		return View{Table: b.handleTable(toolName, result, status)}
	}
}

// handleCreatePlan commits a newly created plan and returns the plan to
// display. The store's plan wins once set; before that, the
// just-normalized value is shown so a fresh result does not wait for a
// second delivery.
func (b *Binder) handleCreatePlan(result any) *plan.Plan {
	p, ok := normalize.CreateResult(result)
	if ok {
		b.store.SetPlan(p)
		b.logger.LogPlan(b.sessionID, len(p.Steps))
	} else if result != nil {
		b.logger.LogWarning(b.sessionID, "create_plan result not usable")
	}

	if current := b.store.Current(); current != nil {
		return current
	}
	return p
}

func (b *Binder) handleUpdateStep(result any) {
	u, ok := normalize.UpdateResult(result)
	if !ok {
		if result != nil {
			b.logger.LogWarning(b.sessionID, "update_plan_step result not usable")
		}
		return
	}
	b.store.UpdateStep(u)
	b.logger.LogStep(b.sessionID, u.Index)
}

func (b *Binder) handleTable(toolName string, result any, status CallStatus) *Table {
	rows, ok := normalize.Records(result)
	if !ok {
		if status == CallRunning {
			return &Table{State: TableLoading}
		}
		return &Table{State: TableEmpty}
	}
	b.logger.LogTable(b.sessionID, toolName, len(rows))
	return &Table{State: TableReady, Rows: rows}
}

// Store exposes the bound plan store for presentation reads.
func (b *Binder) Store() *plan.Store {
	return b.store
}

// SessionID returns the session this binder logs events under.
func (b *Binder) SessionID() string {
	return b.sessionID
}
