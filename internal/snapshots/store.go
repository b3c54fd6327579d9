package snapshots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opendocket/docket/internal/records"
	"github.com/opendocket/docket/pkg/storage"
)

// System persists snapshots and fingerprint indexes in the blob store and
// performs change detection against the last persisted run.
type System struct {
	storage storage.System
}

// NewSystem creates a snapshot persistence system over the blob store.
func NewSystem(store storage.System) *System {
	return &System{storage: store}
}

// Diff compares new snapshots against the subject's persisted fingerprint
// index. A category is included iff its fingerprint differs from the prior
// one or no prior exists; a subject with no index yields a full change set.
// The only side effect is reading prior state.
func (s *System) Diff(ctx context.Context, subjectID string, snaps []Snapshot) (ChangeSet, error) {
	meta, err := s.LoadMeta(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("load fingerprint index for %s: %w", subjectID, err)
		}
		meta = &Meta{SubjectID: subjectID}
	}

	changes := ChangeSet{}
	for _, snap := range snaps {
		if meta.Fingerprints[snap.Category] != snap.Fingerprint {
			changes[snap.Category] = true
		}
	}

	return changes, nil
}

// Save persists a snapshot under its subject and category key, overwriting
// any prior snapshot for that category.
func (s *System) Save(ctx context.Context, snap *Snapshot) error {
	key := SnapshotKey(snap.SubjectID, snap.Category)
	if err := storage.PutJSON(ctx, s.storage, key, snap); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// Load returns the last persisted snapshot for a subject's category.
// Returns storage.ErrNotFound when none exists.
func (s *System) Load(ctx context.Context, subjectID string, category records.Category) (*Snapshot, error) {
	var snap Snapshot
	if err := storage.GetJSON(ctx, s.storage, SnapshotKey(subjectID, category), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// LoadMeta returns the subject's persisted fingerprint index.
// Returns storage.ErrNotFound when the subject has never been persisted.
func (s *System) LoadMeta(ctx context.Context, subjectID string) (*Meta, error) {
	var meta Meta
	if err := storage.GetJSON(ctx, s.storage, MetaKey(subjectID), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// UpdateMeta merges the given snapshots' fingerprints into the subject's
// index and persists it. Categories absent from snaps keep their prior
// fingerprints, so carried-forward categories stay diffable.
func (s *System) UpdateMeta(ctx context.Context, subjectID string, snaps []Snapshot, now time.Time) error {
	meta, err := s.LoadMeta(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load fingerprint index for %s: %w", subjectID, err)
		}
		meta = &Meta{SubjectID: subjectID}
	}

	if meta.Fingerprints == nil {
		meta.Fingerprints = make(map[records.Category]string, len(snaps))
	}
	for _, snap := range snaps {
		meta.Fingerprints[snap.Category] = snap.Fingerprint
	}
	meta.UpdatedAt = now

	if err := storage.PutJSON(ctx, s.storage, MetaKey(subjectID), meta); err != nil {
		return fmt.Errorf("save fingerprint index for %s: %w", subjectID, err)
	}
	return nil
}
