package plan

import "sync"

// StepStatus is the progress state of a single plan step.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusCompleted StepStatus = "completed"
)

// Step is a single sub-task reported by the planning tool.
type Step struct {
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// Plan is an ordered, non-empty sequence of steps. A plan with zero
// steps is rejected at normalization time and never stored.
type Plan struct {
	Steps []Step `json:"steps"`
}

// Update is a partial patch to one step, addressed by position.
// Nil fields mean "keep the existing value".
type Update struct {
	Index       int         `json:"index"`
	Description *string     `json:"description,omitempty"`
	Status      *StepStatus `json:"status,omitempty"`
}

// Store holds the single current plan for a session. All mutations go
// through SetPlan/UpdateStep so index bounds and optional-field merging
// are enforced in one place.
type Store struct {
	mu   sync.RWMutex
	plan *Plan
}

func NewStore() *Store {
	return &Store{}
}

// SetPlan replaces the current plan unconditionally. Passing nil clears it.
func (s *Store) SetPlan(p *Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = p
}

// Current returns the plan currently held by the store, or nil.
func (s *Store) Current() *Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// UpdateStep applies a partial patch to one step. A missing plan or an
// out-of-range index is a silent no-op: tool results are untrusted and
// a stale or malformed patch must never disturb the session.
func (s *Store) UpdateStep(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.plan == nil || u.Index < 0 || u.Index >= len(s.plan.Steps) {
		return
	}

	steps := make([]Step, len(s.plan.Steps))
	copy(steps, s.plan.Steps)

	step := steps[u.Index]
	if u.Description != nil {
		step.Description = *u.Description
	}
	if u.Status != nil {
		step.Status = *u.Status
	}
	steps[u.Index] = step

	s.plan = &Plan{Steps: steps}
}

// Progress reports how many steps are completed out of the total, and
// the description of the first step still pending ("" when done or no
// plan is set).
func (s *Store) Progress() (completed, total int, current string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.plan == nil {
		return 0, 0, ""
	}
	total = len(s.plan.Steps)
	for _, st := range s.plan.Steps {
		if st.Status == StatusCompleted {
			completed++
		} else if current == "" {
			current = st.Description
		}
	}
	return completed, total, current
}
