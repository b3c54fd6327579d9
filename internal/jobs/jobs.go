// Package jobs models pipeline batch runs: identifiers, progress counters,
// per-subject errors, and the persisted job record callers poll. The
// pipeline drives a Tracker through a run; the Store and Handler expose the
// records over the blob store and HTTP.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job types.
const (
	TypeRefreshAll      = "refresh-all"
	TypeRefreshSubjects = "refresh-subjects"
)

// Job statuses. Transitions run strictly forward:
// pending → running → completed | failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Progress counts batch units. Completed plus Failed reaches Total exactly
// when every subject was attempted.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Error records one failed unit inside a batch. Stage names the pipeline
// stage that failed.
type Error struct {
	SubjectID string    `json:"subject_id,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Error     string    `json:"error"`
	At        time.Time `json:"at"`
}

// Job is one batch run's persisted record.
type Job struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    Progress   `json:"progress"`
	Errors      []Error    `json:"errors,omitempty"`
}

// New creates a pending job. IDs embed the UTC creation time so that
// lexicographic key order matches chronological order.
func New(jobType string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        "job-" + now.Format("20060102-150405") + "-" + uuid.NewString()[:8],
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
	}
}

// Key returns the blob key for a job record.
func Key(jobID string) string {
	return "jobs/" + jobID + ".json"
}

// Tracker guards one job's mutable state during a batch run. All counter
// and status mutation goes through it; workers share one lock.
type Tracker struct {
	mu  sync.Mutex
	job *Job
}

// NewTracker wraps a job for concurrent mutation.
func NewTracker(job *Job) *Tracker {
	return &Tracker{job: job}
}

// Start moves the job to running with the given unit total.
func (t *Tracker) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.job.Status = StatusRunning
	t.job.StartedAt = &now
	t.job.Progress = Progress{Total: total}
}

// Complete counts one successful unit.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.job.Progress.Completed++
}

// Fail counts one failed unit and records its error.
func (t *Tracker) Fail(subjectID, stage string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.job.Progress.Failed++
	t.job.Errors = append(t.job.Errors, Error{
		SubjectID: subjectID,
		Stage:     stage,
		Error:     err.Error(),
		At:        time.Now().UTC(),
	})
}

// Finish moves the job to completed. Failed units do not fail the job;
// only setup does.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.job.Status = StatusCompleted
	t.job.CompletedAt = &now
}

// FailSetup moves the job to failed with the setup error recorded. Used
// only when the batch could not enumerate its subjects.
func (t *Tracker) FailSetup(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().UTC()
	t.job.Status = StatusFailed
	t.job.CompletedAt = &now
	t.job.Errors = append(t.job.Errors, Error{
		Stage: "setup",
		Error: err.Error(),
		At:    now,
	})
}

// Snapshot returns a copy of the job safe to persist or serve while
// workers keep mutating the original.
func (t *Tracker) Snapshot() Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := *t.job
	snap.Errors = append([]Error(nil), t.job.Errors...)
	return snap
}

// Completed returns the completed-unit count.
func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job.Progress.Completed
}
