package jobs

import (
	"context"
	"fmt"
	"slices"

	"github.com/opendocket/docket/pkg/storage"
)

// Store persists job records in the blob store.
type Store struct {
	storage storage.System
}

// NewStore creates a job store over the blob store.
func NewStore(store storage.System) *Store {
	return &Store{storage: store}
}

// Save overwrites the job's persisted record.
func (s *Store) Save(ctx context.Context, job *Job) error {
	if err := storage.PutJSON(ctx, s.storage, Key(job.ID), job); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Find returns a job by id. Returns storage.ErrNotFound when no such job
// exists.
func (s *Store) Find(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := storage.GetJSON(ctx, s.storage, Key(jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns up to limit jobs, newest first. Job ids embed their creation
// time, so reversed key order is chronological.
func (s *Store) List(ctx context.Context, limit int) ([]Job, error) {
	keys, err := s.storage.List(ctx, "jobs/", 0)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	slices.Sort(keys)
	slices.Reverse(keys)

	jobs := make([]Job, 0, min(len(keys), limit))
	for _, key := range keys {
		if len(jobs) >= limit {
			break
		}

		var job Job
		if err := storage.GetJSON(ctx, s.storage, key, &job); err != nil {
			return nil, fmt.Errorf("load job %s: %w", key, err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}
