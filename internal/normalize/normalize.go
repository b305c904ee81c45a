// Package normalize turns untrusted tool-result payloads into validated
// domain values. Tool results cross a trust boundary: they are
// agent-generated and may arrive as structured JSON, stringified JSON,
// or partially malformed objects. Every function here is total — a
// payload that cannot be used resolves to ok=false, never to a panic or
// a propagated error.
package normalize

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/maya/stride/internal/plan"
)

// ToRecord resolves a payload to a JSON object. Strings are parsed as
// JSON; parse failures are logged and reported as unusable rather than
// returned as errors.
func ToRecord(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case string:
		var rec map[string]any
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			log.Printf("Warning: failed to parse tool result as JSON: %v", err)
			return nil, false
		}
		return rec, true
	case map[string]any:
		return val, true
	default:
		return nil, false
	}
}

// Step validates a single plan step. A step needs a non-empty
// description; status is completed only on an exact "completed" match
// and defaults to pending for anything else.
func Step(v any) (plan.Step, bool) {
	rec, ok := ToRecord(v)
	if !ok {
		return plan.Step{}, false
	}

	desc, _ := rec["description"].(string)
	if desc == "" {
		return plan.Step{}, false
	}

	status := plan.StatusPending
	if s, _ := rec["status"].(string); s == string(plan.StatusCompleted) {
		status = plan.StatusCompleted
	}

	return plan.Step{Description: desc, Status: status}, true
}

// PlanFrom validates a whole plan. Entries that fail step validation
// are discarded; a plan left with zero usable steps is rejected.
func PlanFrom(v any) (*plan.Plan, bool) {
	rec, ok := ToRecord(v)
	if !ok {
		return nil, false
	}

	raw, _ := rec["steps"].([]any)

	var steps []plan.Step
	for _, entry := range raw {
		if step, ok := Step(entry); ok {
			steps = append(steps, step)
		}
	}
	if len(steps) == 0 {
		return nil, false
	}

	return &plan.Plan{Steps: steps}, true
}

// CreateResult validates the result of the create_plan tool. The
// backend wraps the plan in a "plan" field, but an unwrapped plan is
// tolerated too.
func CreateResult(v any) (*plan.Plan, bool) {
	rec, ok := ToRecord(v)
	if !ok {
		return nil, false
	}
	if nested, exists := rec["plan"]; exists {
		return PlanFrom(nested)
	}
	return PlanFrom(rec)
}

// UpdateResult validates the result of the update_plan_step tool. The
// index may arrive as a JSON number or a numeric string; description
// and status are copied only when well-typed.
func UpdateResult(v any) (plan.Update, bool) {
	rec, ok := ToRecord(v)
	if !ok {
		return plan.Update{}, false
	}

	index, ok := intField(rec["index"])
	if !ok || index < 0 {
		return plan.Update{}, false
	}

	u := plan.Update{Index: index}
	if desc, ok := rec["description"].(string); ok {
		u.Description = &desc
	}
	if s, _ := rec["status"].(string); s == string(plan.StatusPending) || s == string(plan.StatusCompleted) {
		status := plan.StepStatus(s)
		u.Status = &status
	}
	return u, true
}

// Records validates a tabular tool result: an ordered sequence of
// uniform objects. The sequence may arrive directly, stringified, or
// wrapped in a record's "data"/"records" field. Non-object entries are
// discarded.
func Records(v any) ([]map[string]any, bool) {
	seq := toSequence(v)
	if seq == nil {
		if rec, ok := ToRecord(v); ok {
			if nested := toSequence(rec["data"]); nested != nil {
				seq = nested
			} else if nested := toSequence(rec["records"]); nested != nil {
				seq = nested
			}
		}
	}
	if seq == nil {
		return nil, false
	}

	var rows []map[string]any
	for _, entry := range seq {
		if row, ok := entry.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

func toSequence(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case string:
		var seq []any
		if err := json.Unmarshal([]byte(val), &seq); err != nil {
			return nil
		}
		return seq
	default:
		return nil
	}
}

// intField reads an integer from the decoded-JSON representations it
// can show up as: float64 from the decoder, a numeric string from a
// sloppy tool, or a native int from code composing records directly.
func intField(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case int:
		return val, true
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, false
		}
		return n, true
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
