package scores_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/opendocket/docket/internal/promises"
	"github.com/opendocket/docket/internal/redflags"
	"github.com/opendocket/docket/internal/scores"
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

func TestAnalysisRoundTrip(t *testing.T) {
	sys := scores.NewSystem(newMemStore())
	ctx := context.Background()

	analysis := &scores.Analysis{
		SubjectID: "ca-12",
		Promises: &promises.Result{
			SubjectID: "ca-12",
			Summary:   promises.Summary{Total: 2, Kept: 1, NotAddressed: 1, Score: 50},
		},
		RedFlags:  []redflags.Flag{{ID: "f1", Type: redflags.TypeNoOutreach, Severity: redflags.SeverityHigh}},
		UpdatedAt: scoredAt,
	}

	if err := sys.SaveAnalysis(ctx, analysis); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}

	got, err := sys.LoadAnalysis(ctx, "ca-12")
	if err != nil {
		t.Fatalf("LoadAnalysis() error = %v", err)
	}
	if got.SubjectID != "ca-12" {
		t.Errorf("SubjectID = %s, want ca-12", got.SubjectID)
	}
	if got.Promises == nil || got.Promises.Summary.Score != 50 {
		t.Errorf("Promises = %+v, want summary score 50", got.Promises)
	}
	if len(got.RedFlags) != 1 || got.RedFlags[0].Type != redflags.TypeNoOutreach {
		t.Errorf("RedFlags = %+v, want the stored outreach flag", got.RedFlags)
	}
	if !got.UpdatedAt.Equal(scoredAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, scoredAt)
	}
}

func TestLoadAnalysisMissing(t *testing.T) {
	sys := scores.NewSystem(newMemStore())

	_, err := sys.LoadAnalysis(context.Background(), "vt-sen-1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LoadAnalysis() error = %v, want storage.ErrNotFound", err)
	}
}

func TestHistoryMissingIsEmpty(t *testing.T) {
	sys := scores.NewSystem(newMemStore())

	history, err := sys.History(context.Background(), "vt-sen-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History() = %+v, want empty", history)
	}
}

func TestAppendKeepsOrder(t *testing.T) {
	sys := scores.NewSystem(newMemStore())
	ctx := context.Background()

	first := scores.Score{SubjectID: "ca-12", Overall: 61, Grade: "D", ScoredAt: scoredAt}
	second := scores.Score{SubjectID: "ca-12", Overall: 65, Grade: "D", ScoredAt: scoredAt.AddDate(0, 0, 7)}

	if err := sys.Append(ctx, first); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := sys.Append(ctx, second); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	history, err := sys.History(ctx, "ca-12")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() = %d entries, want 2", len(history))
	}
	if history[0].Overall != 61 || history[1].Overall != 65 {
		t.Errorf("history overall = %d, %d, want 61 then 65 (newest last)", history[0].Overall, history[1].Overall)
	}
}

func TestStorageKeys(t *testing.T) {
	if got := scores.AnalysisKey("ca-12"); got != "analysis/ca-12.json" {
		t.Errorf("AnalysisKey() = %s", got)
	}
	if got := scores.HistoryKey("ca-12"); got != "scores/ca-12.json" {
		t.Errorf("HistoryKey() = %s", got)
	}
}
