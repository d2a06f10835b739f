package service

import (
	"sync"
	"time"

	"marketsynth/internal/models"
)

// Tracker records polled job status. Progress is monotonically
// non-decreasing per job; terminal states are COMPLETED and FAILED.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*models.JobStatus
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*models.JobStatus)}
}

// Start registers a job in the RUNNING state at zero progress.
func (t *Tracker) Start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.jobs[id] = &models.JobStatus{
		ID:        id,
		State:     models.JobRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SetProgress updates a running job's progress. Values are clamped to
// [0, 1] and never move backwards.
func (t *Tracker) SetProgress(id string, frac float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok || j.State != models.JobRunning {
		return
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	if frac > j.Progress {
		j.Progress = frac
		j.UpdatedAt = time.Now()
	}
}

// Complete marks a job COMPLETED at full progress.
func (t *Tracker) Complete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[id]; ok {
		j.State = models.JobCompleted
		j.Progress = 1
		j.UpdatedAt = time.Now()
	}
}

// Fail marks a job FAILED and records the error message. Progress stays
// where it was; partial results are discarded by the caller.
func (t *Tracker) Fail(id string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[id]; ok {
		j.State = models.JobFailed
		if err != nil {
			j.Error = err.Error()
		}
		j.UpdatedAt = time.Now()
	}
}

// Status returns a snapshot of the job's status.
func (t *Tracker) Status(id string) (models.JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return models.JobStatus{}, false
	}
	return *j, true
}
