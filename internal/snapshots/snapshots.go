// Package snapshots implements snapshot normalization, change detection, and
// persistence for subject data categories. Raw provider payloads are converted
// into canonical records through per-provider adapters, canonically ordered,
// fingerprinted, and diffed against the last persisted run to decide which
// scoring work is worth doing.
package snapshots

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/opendocket/docket/internal/records"
)

// Snapshot is one category's normalized record set for a subject at a point
// in time. Exactly one payload field is populated, matching Category. The
// fingerprint covers only record content; SubjectID and CapturedAt are
// volatile and excluded.
type Snapshot struct {
	SubjectID   string           `json:"subject_id"`
	Category    records.Category `json:"category"`
	Fingerprint string           `json:"fingerprint"`
	CapturedAt  time.Time        `json:"captured_at"`

	Votes     []records.VoteEvent     `json:"votes,omitempty"`
	Donations *records.DonationSet    `json:"donations,omitempty"`
	Trades    *records.TradeSet       `json:"trades,omitempty"`
	Promises  []records.PromiseRecord `json:"promises,omitempty"`
}

// Meta is the per-subject fingerprint index persisted after each successful
// run. Diff compares new snapshots against it.
type Meta struct {
	SubjectID    string                      `json:"subject_id"`
	Fingerprints map[records.Category]string `json:"fingerprints"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// ChangeSet is the set of categories whose fingerprints differ from the last
// persisted run. Created once per pipeline run and never persisted.
type ChangeSet map[records.Category]bool

// Has reports whether the category's content changed.
func (cs ChangeSet) Has(c records.Category) bool { return cs[c] }

// Empty reports whether nothing changed.
func (cs ChangeSet) Empty() bool { return len(cs) == 0 }

// List returns the changed categories in canonical order.
func (cs ChangeSet) List() []records.Category {
	var changed []records.Category
	for _, c := range records.Categories() {
		if cs[c] {
			changed = append(changed, c)
		}
	}
	return changed
}

// SnapshotKey returns the blob key for a subject's category snapshot.
func SnapshotKey(subjectID string, category records.Category) string {
	return fmt.Sprintf("snapshots/%s/%s.json", subjectID, category)
}

// MetaKey returns the blob key for a subject's fingerprint index.
func MetaKey(subjectID string) string {
	return fmt.Sprintf("meta/%s.json", subjectID)
}

// canonicalize sorts the snapshot's records into canonical order and computes
// the fingerprint. Votes and trades order by date then id; donors by date
// then name; industries and promises by their stable keys.
func (s *Snapshot) canonicalize() error {
	switch s.Category {
	case records.CategoryVotes:
		slices.SortFunc(s.Votes, func(a, b records.VoteEvent) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
		return s.fingerprint(s.Votes)

	case records.CategoryDonations:
		if s.Donations != nil {
			slices.SortFunc(s.Donations.TopDonors, func(a, b records.DonationEvent) int {
				if c := a.Date.Compare(b.Date); c != 0 {
					return c
				}
				return strings.Compare(a.Donor, b.Donor)
			})
			slices.SortFunc(s.Donations.TopIndustries, func(a, b records.IndustryTotal) int {
				return strings.Compare(a.Industry, b.Industry)
			})
		}
		return s.fingerprint(s.Donations)

	case records.CategoryTrades:
		if s.Trades != nil {
			slices.SortFunc(s.Trades.Trades, func(a, b records.TradeEvent) int {
				if c := a.Date.Compare(b.Date); c != 0 {
					return c
				}
				return strings.Compare(a.ID, b.ID)
			})
			slices.SortFunc(s.Trades.Conflicts, func(a, b records.ConflictNote) int {
				if c := strings.Compare(a.TradeID, b.TradeID); c != 0 {
					return c
				}
				return strings.Compare(a.Reason, b.Reason)
			})
		}
		return s.fingerprint(s.Trades)

	case records.CategoryPromises:
		slices.SortFunc(s.Promises, func(a, b records.PromiseRecord) int {
			if c := strings.Compare(a.ID, b.ID); c != 0 {
				return c
			}
			return strings.Compare(a.Text, b.Text)
		})
		return s.fingerprint(s.Promises)
	}

	return fmt.Errorf("unknown category %q", s.Category)
}

// fingerprint digests the canonical JSON encoding of the record payload.
func (s *Snapshot) fingerprint(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", s.Category, err)
	}

	sum := sha256.Sum256(data)
	s.Fingerprint = hex.EncodeToString(sum[:])
	return nil
}
