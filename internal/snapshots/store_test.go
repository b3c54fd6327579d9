package snapshots_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opendocket/docket/internal/records"
	"github.com/opendocket/docket/internal/snapshots"
	"github.com/opendocket/docket/pkg/lifecycle"
	"github.com/opendocket/docket/pkg/storage"
)

const votesPayloadAmended = `{
	"source": "propublica",
	"votes": [
		{"id": "rc-210", "billNumber": "H.R. 88", "title": "Prescription Drug Pricing Act", "date": "2024-05-02", "vote": "No", "billSummary": "Caps prescription drug prices under medicare", "result": "Failed"},
		{"id": "rc-101", "billNumber": "H.R. 12", "title": "Clean Water Restoration Act", "date": "2024-03-15", "vote": "Yes", "billSummary": "Restores clean water protections", "result": "Passed"},
		{"id": "rc-305", "billNumber": "H.R. 201", "title": "Broadband Access Act", "date": "2024-06-20", "vote": "Yes", "billSummary": "Expands rural broadband", "result": "Passed"}
	]
}`

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

func normalizeOne(t *testing.T, subjectID string, category records.Category, doc string) snapshots.Snapshot {
	t.Helper()

	snaps, errs := snapshots.Normalize(subjectID, map[records.Category][]byte{
		category: []byte(doc),
	}, capturedAt)
	if len(errs) != 0 {
		t.Fatalf("Normalize() errors = %v", errs)
	}
	if len(snaps) != 1 {
		t.Fatalf("Normalize() = %d snapshots, want 1", len(snaps))
	}
	return snaps[0]
}

func TestSnapshotRoundTrip(t *testing.T) {
	sys := snapshots.NewSystem(newMemStore())
	ctx := context.Background()

	snap := normalizeOne(t, "ca-12", records.CategoryVotes, votesPayload)
	if err := sys.Save(ctx, &snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := sys.Load(ctx, "ca-12", records.CategoryVotes)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Fingerprint != snap.Fingerprint {
		t.Errorf("Fingerprint = %s, want %s", loaded.Fingerprint, snap.Fingerprint)
	}
	if len(loaded.Votes) != len(snap.Votes) {
		t.Errorf("votes = %d, want %d", len(loaded.Votes), len(snap.Votes))
	}
	if !loaded.CapturedAt.Equal(snap.CapturedAt) {
		t.Errorf("CapturedAt = %v, want %v", loaded.CapturedAt, snap.CapturedAt)
	}

	if _, err := sys.Load(ctx, "ca-12", records.CategoryDonations); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() missing category error = %v, want ErrNotFound", err)
	}
}

func TestDiffFirstRun(t *testing.T) {
	sys := snapshots.NewSystem(newMemStore())

	snaps := []snapshots.Snapshot{
		normalizeOne(t, "ca-12", records.CategoryVotes, votesPayload),
		normalizeOne(t, "ca-12", records.CategoryDonations, donationsPayload),
	}

	changes, err := sys.Diff(context.Background(), "ca-12", snaps)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}

	if changes.Empty() {
		t.Fatal("Empty() = true, want every category changed on first run")
	}
	want := []records.Category{records.CategoryVotes, records.CategoryDonations}
	if got := changes.List(); !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestDiffUnchanged(t *testing.T) {
	sys := snapshots.NewSystem(newMemStore())
	ctx := context.Background()

	snap := normalizeOne(t, "ca-12", records.CategoryVotes, votesPayload)
	if err := sys.UpdateMeta(ctx, "ca-12", []snapshots.Snapshot{snap}, capturedAt); err != nil {
		t.Fatalf("UpdateMeta() error = %v", err)
	}

	again := normalizeOne(t, "ca-12", records.CategoryVotes, votesPayloadReordered)
	changes, err := sys.Diff(ctx, "ca-12", []snapshots.Snapshot{again})
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !changes.Empty() {
		t.Errorf("List() = %v, want no changes for identical content", changes.List())
	}
}

func TestDiffDetectsChange(t *testing.T) {
	sys := snapshots.NewSystem(newMemStore())
	ctx := context.Background()

	prior := normalizeOne(t, "ca-12", records.CategoryVotes, votesPayload)
	if err := sys.UpdateMeta(ctx, "ca-12", []snapshots.Snapshot{prior}, capturedAt); err != nil {
		t.Fatalf("UpdateMeta() error = %v", err)
	}

	amended := normalizeOne(t, "ca-12", records.CategoryVotes, votesPayloadAmended)
	changes, err := sys.Diff(ctx, "ca-12", []snapshots.Snapshot{amended})
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if !changes.Has(records.CategoryVotes) {
		t.Error("Has(votes) = false, want amended votes detected")
	}
}

func TestUpdateMetaMergesFingerprints(t *testing.T) {
	sys := snapshots.NewSystem(newMemStore())
	ctx := context.Background()

	votes := normalizeOne(t, "ca-12", records.CategoryVotes, votesPayload)
	donations := normalizeOne(t, "ca-12", records.CategoryDonations, donationsPayload)
	later := capturedAt.Add(time.Hour)

	if err := sys.UpdateMeta(ctx, "ca-12", []snapshots.Snapshot{votes}, capturedAt); err != nil {
		t.Fatalf("UpdateMeta() error = %v", err)
	}
	if err := sys.UpdateMeta(ctx, "ca-12", []snapshots.Snapshot{donations}, later); err != nil {
		t.Fatalf("UpdateMeta() error = %v", err)
	}

	meta, err := sys.LoadMeta(ctx, "ca-12")
	if err != nil {
		t.Fatalf("LoadMeta() error = %v", err)
	}
	if got := meta.Fingerprints[records.CategoryVotes]; got != votes.Fingerprint {
		t.Errorf("votes fingerprint = %s, want %s retained", got, votes.Fingerprint)
	}
	if got := meta.Fingerprints[records.CategoryDonations]; got != donations.Fingerprint {
		t.Errorf("donations fingerprint = %s, want %s", got, donations.Fingerprint)
	}
	if !meta.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", meta.UpdatedAt, later)
	}
}

func TestStorageKeys(t *testing.T) {
	if got := snapshots.SnapshotKey("ca-12", records.CategoryVotes); got != "snapshots/ca-12/votes.json" {
		t.Errorf("SnapshotKey() = %s", got)
	}
	if got := snapshots.MetaKey("ca-12"); got != "meta/ca-12.json" {
		t.Errorf("MetaKey() = %s", got)
	}
}
