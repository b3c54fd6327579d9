package promises_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/opendocket/docket/internal/classify"
	"github.com/opendocket/docket/internal/promises"
	"github.com/opendocket/docket/internal/records"
)

// scripted returns canned verdicts by vote id and can fail on one vote.
type scripted struct {
	verdicts map[string]classify.Verdict
	failOn   string
}

func (s *scripted) Classify(_ context.Context, _ records.PromiseRecord, vote records.VoteEvent) (classify.Verdict, error) {
	if s.failOn != "" && vote.ID == s.failOn {
		return classify.Verdict{}, errors.New("classifier unavailable")
	}
	return s.verdicts[vote.ID], nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func taggedVote(id, category string) records.VoteEvent {
	return records.VoteEvent{
		ID:         id,
		Title:      "Test Act",
		Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Position:   records.PositionYes,
		Categories: []string{category},
	}
}

// classifiedVotes builds votes on one category with the given number of
// supporting and contradicting verdicts scripted for them.
func classifiedVotes(category string, supporting, contradicting int) ([]records.VoteEvent, *scripted) {
	stub := &scripted{verdicts: map[string]classify.Verdict{}}
	var votes []records.VoteEvent

	for i := 0; i < supporting; i++ {
		id := fmt.Sprintf("s%d", i)
		votes = append(votes, taggedVote(id, category))
		stub.verdicts[id] = classify.Verdict{Supports: true}
	}
	for i := 0; i < contradicting; i++ {
		id := fmt.Sprintf("c%d", i)
		votes = append(votes, taggedVote(id, category))
		stub.verdicts[id] = classify.Verdict{Contradicts: true}
	}

	return votes, stub
}

func TestTrackStatus(t *testing.T) {
	tests := []struct {
		name          string
		supporting    int
		contradicting int
		neutral       int
		want          string
	}{
		{"ratio at broken threshold", 3, 7, 0, promises.StatusBroken},
		{"all contradicting", 0, 2, 0, promises.StatusBroken},
		{"ratio just under broken", 1, 2, 0, promises.StatusInProgress},
		{"ratio at in-progress threshold", 3, 2, 0, promises.StatusInProgress},
		{"low ratio with enough support", 3, 1, 0, promises.StatusKept},
		{"clean support", 3, 0, 0, promises.StatusKept},
		{"support below kept minimum", 2, 0, 0, promises.StatusNotAddressed},
		{"all neutral votes", 0, 0, 4, promises.StatusNotAddressed},
		{"no related votes", 0, 0, 0, promises.StatusNotAddressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			votes, stub := classifiedVotes("healthcare", tt.supporting, tt.contradicting)
			for i := 0; i < tt.neutral; i++ {
				votes = append(votes, taggedVote(fmt.Sprintf("n%d", i), "healthcare"))
			}

			tracker := promises.NewTracker(stub, discard())
			result, err := tracker.Track(context.Background(), "ca-12", []records.PromiseRecord{
				{ID: "p1", Text: "Expand rural healthcare", Category: "healthcare"},
			}, votes)
			if err != nil {
				t.Fatalf("Track() error = %v", err)
			}

			p := result.Promises[0]
			if p.Status != tt.want {
				t.Errorf("Status = %s, want %s (supporting %d, contradicting %d)",
					p.Status, tt.want, p.Supporting, p.Contradicting)
			}
		})
	}
}

func TestTrackIgnoresUnrelatedVotes(t *testing.T) {
	votes := []records.VoteEvent{
		taggedVote("v1", "healthcare"),
		taggedVote("v2", "energy"),
		taggedVote("v3", "energy"),
	}
	stub := &scripted{verdicts: map[string]classify.Verdict{
		"v1": {Supports: true},
		"v2": {Supports: true},
		"v3": {Supports: true},
	}}

	tracker := promises.NewTracker(stub, discard())
	result, err := tracker.Track(context.Background(), "ca-12", []records.PromiseRecord{
		{ID: "p1", Text: "Expand rural healthcare", Category: "healthcare"},
	}, votes)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	p := result.Promises[0]
	if p.RelatedVotes != 1 {
		t.Errorf("RelatedVotes = %d, want 1", p.RelatedVotes)
	}
	if p.Supporting != 1 {
		t.Errorf("Supporting = %d, want 1", p.Supporting)
	}
}

func TestTrackClassifierFailureDegradesPromise(t *testing.T) {
	votes := []records.VoteEvent{
		taggedVote("h1", "healthcare"),
		taggedVote("h2", "healthcare"),
		taggedVote("e1", "energy"),
		taggedVote("e2", "energy"),
		taggedVote("e3", "energy"),
	}
	stub := &scripted{
		verdicts: map[string]classify.Verdict{
			"h1": {Supports: true},
			"e1": {Supports: true},
			"e2": {Supports: true},
			"e3": {Supports: true},
		},
		failOn: "h2",
	}

	tracker := promises.NewTracker(stub, discard())
	result, err := tracker.Track(context.Background(), "ca-12", []records.PromiseRecord{
		{ID: "p1", Text: "Expand rural healthcare", Category: "healthcare"},
		{ID: "p2", Text: "Expand renewable energy", Category: "energy"},
	}, votes)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	byID := map[string]promises.Promise{}
	for _, p := range result.Promises {
		byID[p.ID] = p
	}

	degraded := byID["p1"]
	if degraded.Status != promises.StatusNotAddressed {
		t.Errorf("degraded Status = %s, want %s", degraded.Status, promises.StatusNotAddressed)
	}
	if degraded.Supporting != 0 || degraded.Contradicting != 0 || degraded.Evidence != nil {
		t.Errorf("degraded promise kept partial evidence: %+v", degraded)
	}

	if byID["p2"].Status != promises.StatusKept {
		t.Errorf("unaffected promise Status = %s, want %s", byID["p2"].Status, promises.StatusKept)
	}
}

func TestTrackOrdersByContradicting(t *testing.T) {
	votes := []records.VoteEvent{}
	stub := &scripted{verdicts: map[string]classify.Verdict{}}

	add := func(category string, contradicting int) {
		for i := 0; i < contradicting; i++ {
			id := fmt.Sprintf("%s-%d", category, i)
			votes = append(votes, taggedVote(id, category))
			stub.verdicts[id] = classify.Verdict{Contradicts: true}
		}
	}
	add("healthcare", 2)
	add("energy", 5)
	add("economy", 2)

	tracker := promises.NewTracker(stub, discard())
	result, err := tracker.Track(context.Background(), "ca-12", []records.PromiseRecord{
		{ID: "p-health", Text: "Expand rural healthcare", Category: "healthcare"},
		{ID: "p-energy", Text: "Expand renewable energy", Category: "energy"},
		{ID: "p-econ", Text: "Support small business", Category: "economy"},
	}, votes)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	gotOrder := []string{result.Promises[0].ID, result.Promises[1].ID, result.Promises[2].ID}
	wantOrder := []string{"p-energy", "p-econ", "p-health"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}

	if worst := result.Worst(); worst == nil || worst.ID != "p-energy" {
		t.Errorf("Worst() = %+v, want p-energy", worst)
	}
}

func TestTrackSummary(t *testing.T) {
	votes := []records.VoteEvent{}
	stub := &scripted{verdicts: map[string]classify.Verdict{}}

	add := func(category string, supporting, contradicting int) {
		catVotes, catStub := classifiedVotes(category, supporting, contradicting)
		for i := range catVotes {
			catVotes[i].ID = category + "-" + catVotes[i].ID
		}
		for id, v := range catStub.verdicts {
			stub.verdicts[category+"-"+id] = v
		}
		votes = append(votes, catVotes...)
	}
	add("healthcare", 3, 0)
	add("energy", 0, 5)
	add("economy", 0, 0)

	tracker := promises.NewTracker(stub, discard())
	result, err := tracker.Track(context.Background(), "ca-12", []records.PromiseRecord{
		{ID: "p1", Text: "Expand rural healthcare", Category: "healthcare"},
		{ID: "p2", Text: "Expand renewable energy", Category: "energy"},
		{ID: "p3", Text: "Support small business", Category: "economy"},
	}, votes)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	s := result.Summary
	if s.Total != 3 || s.Kept != 1 || s.Broken != 1 || s.NotAddressed != 1 {
		t.Errorf("Summary = %+v, want total 3, kept 1, broken 1, not-addressed 1", s)
	}
	if s.Score != 33.3 {
		t.Errorf("Score = %v, want 33.3", s.Score)
	}
}

func TestTrackEmpty(t *testing.T) {
	tracker := promises.NewTracker(&scripted{}, discard())

	result, err := tracker.Track(context.Background(), "ca-12", nil, nil)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if result.Summary.Total != 0 || result.Summary.Score != 0 {
		t.Errorf("Summary = %+v, want zero totals", result.Summary)
	}
}

func TestTrackCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tracker := promises.NewTracker(&scripted{}, discard())
	_, err := tracker.Track(ctx, "ca-12", []records.PromiseRecord{
		{ID: "p1", Text: "Expand rural healthcare", Category: "healthcare"},
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Track() error = %v, want context.Canceled", err)
	}
}

func TestTrackEvidenceCaps(t *testing.T) {
	votes, stub := classifiedVotes("healthcare", 8, 12)

	tracker := promises.NewTracker(stub, discard())
	result, err := tracker.Track(context.Background(), "ca-12", []records.PromiseRecord{
		{ID: "p1", Text: "Expand rural healthcare", Category: "healthcare"},
	}, votes)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	p := result.Promises[0]
	if p.Supporting != 8 || p.Contradicting != 12 {
		t.Fatalf("counts = %d supporting, %d contradicting, want 8 and 12", p.Supporting, p.Contradicting)
	}

	var contradicting, supporting int
	for _, e := range p.Evidence {
		if e.Contradicts {
			contradicting++
		} else {
			supporting++
		}
	}
	if contradicting != 10 {
		t.Errorf("contradicting evidence = %d, want capped at 10", contradicting)
	}
	if supporting != 5 {
		t.Errorf("supporting evidence = %d, want capped at 5", supporting)
	}

	// Contradicting evidence leads the list.
	if len(p.Evidence) == 0 || !p.Evidence[0].Contradicts {
		t.Error("evidence should lead with contradicting votes")
	}
}
