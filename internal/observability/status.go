package observability

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseThinking  Phase = "THINKING"
	PhaseExecuting Phase = "EXECUTING"
)

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentPhase  Phase
	PlanCompleted int
	PlanTotal     int
	CurrentStep   string
	LastHeartbeat time.Time
}

var globalStatus = &SystemStatus{
	CurrentPhase:  PhaseIdle,
	LastHeartbeat: time.Now(),
}

// SetPhase updates the session phase shown on the status line.
func SetPhase(phase Phase) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentPhase = phase
}

// SetPlanProgress updates the plan progress shown on the status line.
func SetPlanProgress(completed, total int, current string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.PlanCompleted = completed
	globalStatus.PlanTotal = total
	globalStatus.CurrentStep = current
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() (Phase, int, int, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.CurrentPhase, globalStatus.PlanCompleted,
		globalStatus.PlanTotal, globalStatus.CurrentStep, globalStatus.LastHeartbeat
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}
