package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/opendocket/docket/internal/jobs"
	"github.com/opendocket/docket/pkg/lifecycle"
	"github.com/opendocket/docket/pkg/storage"
)

// memStore is an in-memory storage.System for exercising persistence logic
// without a blob account.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (m *memStore) Start(*lifecycle.Coordinator) error { return nil }

func (m *memStore) Put(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(slices.Clone(data))), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memStore) List(_ context.Context, prefix string, max int32) ([]string, error) {
	if max <= 0 || max > storage.MaxListCap {
		max = storage.MaxListCap
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.blobs))
	for key := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	if int32(len(keys)) > max {
		keys = keys[:max]
	}
	return keys, nil
}

func seedJob(t *testing.T, store *jobs.Store, id string) {
	t.Helper()
	job := &jobs.Job{ID: id, Type: jobs.TypeRefreshAll, Status: jobs.StatusCompleted}
	if err := store.Save(context.Background(), job); err != nil {
		t.Fatalf("Save(%s) error = %v", id, err)
	}
}

func TestStoreSaveFind(t *testing.T) {
	store := jobs.NewStore(newMemStore())
	ctx := context.Background()

	job := jobs.New(jobs.TypeRefreshSubjects)
	job.Status = jobs.StatusRunning
	job.Progress = jobs.Progress{Total: 3, Completed: 1}

	if err := store.Save(ctx, job); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Find(ctx, job.ID)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.ID != job.ID || got.Status != jobs.StatusRunning {
		t.Errorf("Find() = %+v, want saved job", got)
	}
	if got.Progress.Total != 3 || got.Progress.Completed != 1 {
		t.Errorf("Progress = %+v, want total 3, completed 1", got.Progress)
	}
}

func TestStoreFindMissing(t *testing.T) {
	store := jobs.NewStore(newMemStore())

	_, err := store.Find(context.Background(), "job-20260301-100000-missing1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Find() error = %v, want storage.ErrNotFound", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := jobs.NewStore(newMemStore())

	seedJob(t, store, "job-20260225-090000-aaaa1111")
	seedJob(t, store, "job-20260301-100000-bbbb2222")
	seedJob(t, store, "job-20260228-230000-cccc3333")

	t.Run("full list", func(t *testing.T) {
		list, err := store.List(context.Background(), 10)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("List() = %d jobs, want 3", len(list))
		}

		wantOrder := []string{
			"job-20260301-100000-bbbb2222",
			"job-20260228-230000-cccc3333",
			"job-20260225-090000-aaaa1111",
		}
		for i, want := range wantOrder {
			if list[i].ID != want {
				t.Errorf("list[%d].ID = %s, want %s", i, list[i].ID, want)
			}
		}
	})

	t.Run("limit keeps the newest", func(t *testing.T) {
		list, err := store.List(context.Background(), 1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 1 || list[0].ID != "job-20260301-100000-bbbb2222" {
			t.Errorf("List(1) = %+v, want only the newest job", list)
		}
	})
}
