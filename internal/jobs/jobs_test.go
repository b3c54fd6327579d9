package jobs_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opendocket/docket/internal/jobs"
)

func TestNew(t *testing.T) {
	job := jobs.New(jobs.TypeRefreshAll)

	if job.Status != jobs.StatusPending {
		t.Errorf("Status = %s, want pending", job.Status)
	}
	if job.Type != jobs.TypeRefreshAll {
		t.Errorf("Type = %s, want refresh-all", job.Type)
	}
	if !strings.HasPrefix(job.ID, "job-") {
		t.Errorf("ID = %s, want job- prefix", job.ID)
	}
	if len(job.ID) != len("job-20060102-150405-")+8 {
		t.Errorf("ID = %s, unexpected length %d", job.ID, len(job.ID))
	}
	if job.CreatedAt.IsZero() || job.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want a UTC timestamp", job.CreatedAt)
	}
	if job.StartedAt != nil || job.CompletedAt != nil {
		t.Error("pending job should have no start or completion time")
	}

	other := jobs.New(jobs.TypeRefreshAll)
	if other.ID == job.ID {
		t.Errorf("two jobs share id %s", job.ID)
	}
}

func TestKey(t *testing.T) {
	if got := jobs.Key("job-20260301-100000-abcd1234"); got != "jobs/job-20260301-100000-abcd1234.json" {
		t.Errorf("Key() = %s", got)
	}
}

func TestTrackerRun(t *testing.T) {
	job := jobs.New(jobs.TypeRefreshSubjects)
	tracker := jobs.NewTracker(job)

	tracker.Start(5)
	snap := tracker.Snapshot()
	if snap.Status != jobs.StatusRunning {
		t.Errorf("Status = %s, want running", snap.Status)
	}
	if snap.StartedAt == nil {
		t.Error("StartedAt = nil after Start")
	}
	if snap.Progress.Total != 5 {
		t.Errorf("Total = %d, want 5", snap.Progress.Total)
	}

	tracker.Complete()
	tracker.Complete()
	tracker.Complete()
	tracker.Fail("ca-12", "fetch", errors.New("feed unreachable"))
	tracker.Fail("ny-03", "persist", errors.New("storage write refused"))
	tracker.Finish()

	snap = tracker.Snapshot()
	if snap.Status != jobs.StatusCompleted {
		t.Errorf("Status = %s, want completed despite unit failures", snap.Status)
	}
	if snap.CompletedAt == nil {
		t.Error("CompletedAt = nil after Finish")
	}
	if snap.Progress.Completed != 3 || snap.Progress.Failed != 2 {
		t.Errorf("Progress = %+v, want 3 completed, 2 failed", snap.Progress)
	}
	if len(snap.Errors) != 2 {
		t.Fatalf("Errors = %d entries, want 2", len(snap.Errors))
	}

	first := snap.Errors[0]
	if first.SubjectID != "ca-12" || first.Stage != "fetch" || first.Error != "feed unreachable" {
		t.Errorf("Errors[0] = %+v", first)
	}
	if first.At.IsZero() {
		t.Error("Errors[0].At is zero")
	}
}

func TestTrackerFailSetup(t *testing.T) {
	tracker := jobs.NewTracker(jobs.New(jobs.TypeRefreshAll))

	tracker.FailSetup(errors.New("roster query failed"))

	snap := tracker.Snapshot()
	if snap.Status != jobs.StatusFailed {
		t.Errorf("Status = %s, want failed", snap.Status)
	}
	if snap.CompletedAt == nil {
		t.Error("CompletedAt = nil after FailSetup")
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Stage != "setup" {
		t.Errorf("Errors = %+v, want one setup error", snap.Errors)
	}
}

func TestTrackerSnapshotIsolation(t *testing.T) {
	tracker := jobs.NewTracker(jobs.New(jobs.TypeRefreshAll))
	tracker.Start(2)
	tracker.Fail("ca-12", "fetch", errors.New("first"))

	snap := tracker.Snapshot()
	tracker.Fail("ny-03", "diff", errors.New("second"))

	if len(snap.Errors) != 1 {
		t.Errorf("snapshot Errors = %d entries, want 1 taken at snapshot time", len(snap.Errors))
	}
	if got := tracker.Snapshot(); len(got.Errors) != 2 {
		t.Errorf("tracker Errors = %d entries, want 2", len(got.Errors))
	}
}

func TestTrackerConcurrentCounts(t *testing.T) {
	tracker := jobs.NewTracker(jobs.New(jobs.TypeRefreshAll))
	tracker.Start(100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%4 == 0 {
				tracker.Fail("ca-12", "fetch", errors.New("transient"))
			} else {
				tracker.Complete()
			}
		}(i)
	}
	wg.Wait()

	snap := tracker.Snapshot()
	if snap.Progress.Completed != 75 || snap.Progress.Failed != 25 {
		t.Errorf("Progress = %+v, want 75 completed, 25 failed", snap.Progress)
	}
	if tracker.Completed() != 75 {
		t.Errorf("Completed() = %d, want 75", tracker.Completed())
	}
}
