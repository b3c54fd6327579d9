// Package promises tracks campaign promises against the subject's voting
// record. Each promise is matched to votes tagged with its category, the
// classifier calls each vote supporting or contradicting, and a status is
// derived from the balance of evidence.
package promises

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/opendocket/docket/internal/classify"
	"github.com/opendocket/docket/internal/records"
)

// Promise statuses, from best to worst evidence.
const (
	StatusKept         = "kept"
	StatusInProgress   = "in-progress"
	StatusBroken       = "broken"
	StatusNotAddressed = "not-addressed"
)

// Status thresholds. The ratio is contradicting votes over classified votes
// (supporting + contradicting); neutral votes carry no weight.
const (
	BrokenRatio     = 0.70
	InProgressRatio = 0.40
	KeptSupportMin  = 3
)

// Evidence caps keep per-promise output readable. Contradicting votes are
// the interesting ones, so they get the larger share.
const (
	maxContradictingEvidence = 10
	maxSupportingEvidence    = 5
)

// Evidence is one classified vote attached to a promise.
type Evidence struct {
	VoteID      string `json:"vote_id"`
	BillNumber  string `json:"bill_number,omitempty"`
	Title       string `json:"title"`
	Position    string `json:"position"`
	Date        string `json:"date"`
	Contradicts bool   `json:"contradicts"`
}

// Promise is one promise's derived status and evidence for a run.
type Promise struct {
	ID            string     `json:"id"`
	Category      string     `json:"category"`
	Text          string     `json:"text"`
	Source        string     `json:"source,omitempty"`
	Status        string     `json:"status"`
	RelatedVotes  int        `json:"related_votes"`
	Supporting    int        `json:"supporting"`
	Contradicting int        `json:"contradicting"`
	Evidence      []Evidence `json:"evidence,omitempty"`
}

// Summary rolls up status counts. Score is 100 × kept / total, one decimal,
// 0 when there are no promises.
type Summary struct {
	Total        int     `json:"total_promises"`
	Kept         int     `json:"kept"`
	Broken       int     `json:"broken"`
	InProgress   int     `json:"in_progress"`
	NotAddressed int     `json:"not_addressed"`
	Score        float64 `json:"promise_keeping_score"`
}

// Result is the tracker output for one subject. Promises are ordered by
// contradicting-vote count descending so the worst ones lead.
type Result struct {
	SubjectID string    `json:"subject_id"`
	Summary   Summary   `json:"summary"`
	Promises  []Promise `json:"promises"`
}

// Worst returns the promise with the most contradicting votes, nil when the
// result holds no promises.
func (r *Result) Worst() *Promise {
	if r == nil || len(r.Promises) == 0 {
		return nil
	}
	return &r.Promises[0]
}

// Tracker derives promise statuses. The classifier may be slow or fallible;
// a classification failure degrades that one promise to not-addressed and
// the run continues.
type Tracker struct {
	classifier classify.Classifier
	logger     *slog.Logger
}

// NewTracker creates a Tracker around the given classifier.
func NewTracker(classifier classify.Classifier, logger *slog.Logger) *Tracker {
	return &Tracker{
		classifier: classifier,
		logger:     logger.With("system", "promises"),
	}
}

// Track analyzes every promise against the vote record and returns the
// rolled-up result. Only the context error is fatal.
func (t *Tracker) Track(ctx context.Context, subjectID string, promises []records.PromiseRecord, votes []records.VoteEvent) (*Result, error) {
	result := &Result{
		SubjectID: subjectID,
		Promises:  make([]Promise, 0, len(promises)),
	}

	for _, promise := range promises {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Promises = append(result.Promises, t.track(ctx, promise, votes))
	}

	slices.SortFunc(result.Promises, func(a, b Promise) int {
		if a.Contradicting != b.Contradicting {
			return b.Contradicting - a.Contradicting
		}
		return strings.Compare(a.ID, b.ID)
	})

	for _, p := range result.Promises {
		switch p.Status {
		case StatusKept:
			result.Summary.Kept++
		case StatusBroken:
			result.Summary.Broken++
		case StatusInProgress:
			result.Summary.InProgress++
		default:
			result.Summary.NotAddressed++
		}
	}

	result.Summary.Total = len(result.Promises)
	if result.Summary.Total > 0 {
		score := 100 * float64(result.Summary.Kept) / float64(result.Summary.Total)
		result.Summary.Score = math.Round(score*10) / 10
	}

	return result, nil
}

func (t *Tracker) track(ctx context.Context, promise records.PromiseRecord, votes []records.VoteEvent) Promise {
	p := Promise{
		ID:       promise.ID,
		Category: promise.Category,
		Text:     promise.Text,
		Source:   promise.Source,
	}

	var supporting, contradicting []records.VoteEvent
	for _, vote := range votes {
		if !vote.TaggedWith(promise.Category) {
			continue
		}
		p.RelatedVotes++

		verdict, err := t.classifier.Classify(ctx, promise, vote)
		if err != nil {
			t.logger.Warn("classification failed, promise degraded to not-addressed",
				"promise", promise.ID,
				"vote", vote.ID,
				"error", err,
			)
			p.Status = StatusNotAddressed
			p.Supporting = 0
			p.Contradicting = 0
			p.Evidence = nil
			return p
		}

		switch {
		case verdict.Contradicts:
			contradicting = append(contradicting, vote)
		case verdict.Supports:
			supporting = append(supporting, vote)
		}
	}

	p.Supporting = len(supporting)
	p.Contradicting = len(contradicting)
	p.Status = statusFor(p.Supporting, p.Contradicting)
	p.Evidence = buildEvidence(contradicting, supporting)

	return p
}

// statusFor applies the status rules in priority order. Classified is the
// denominator; a promise whose related votes were all neutral counts as
// not-addressed.
func statusFor(supporting, contradicting int) string {
	classified := supporting + contradicting
	if classified == 0 {
		return StatusNotAddressed
	}

	ratio := float64(contradicting) / float64(classified)
	switch {
	case ratio >= BrokenRatio:
		return StatusBroken
	case ratio >= InProgressRatio:
		return StatusInProgress
	case supporting >= KeptSupportMin:
		return StatusKept
	default:
		return StatusNotAddressed
	}
}

func buildEvidence(contradicting, supporting []records.VoteEvent) []Evidence {
	var evidence []Evidence
	for i, vote := range contradicting {
		if i >= maxContradictingEvidence {
			break
		}
		evidence = append(evidence, newEvidence(vote, true))
	}
	for i, vote := range supporting {
		if i >= maxSupportingEvidence {
			break
		}
		evidence = append(evidence, newEvidence(vote, false))
	}
	return evidence
}

func newEvidence(vote records.VoteEvent, contradicts bool) Evidence {
	return Evidence{
		VoteID:      vote.ID,
		BillNumber:  vote.BillNumber,
		Title:       vote.Title,
		Position:    vote.Position,
		Date:        vote.Date.Format("2006-01-02"),
		Contradicts: contradicts,
	}
}
