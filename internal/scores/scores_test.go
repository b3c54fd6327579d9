package scores_test

import (
	"testing"
	"time"

	"github.com/opendocket/docket/internal/influence"
	"github.com/opendocket/docket/internal/records"
	"github.com/opendocket/docket/internal/scores"
)

var scoredAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// flat builds inputs where every component carries the same value, so the
// weighted blend equals that value.
func flat(v float64) scores.Inputs {
	return scores.Inputs{
		Promise:           v,
		Transparency:      v,
		Alignment:         v,
		Attendance:        v,
		DonorIndependence: v,
	}
}

func TestAggregateOverall(t *testing.T) {
	tests := []struct {
		name        string
		in          scores.Inputs
		wantOverall int
		wantGrade   string
	}{
		{
			"perfect components",
			flat(100),
			100, "A",
		},
		{
			"zero components",
			flat(0),
			0, "F",
		},
		{
			"weighted blend",
			scores.Inputs{Promise: 80, Transparency: 70, Alignment: 60, Attendance: 90, DonorIndependence: 50},
			72, "C",
		},
		{
			"promise keeping carries the most weight",
			scores.Inputs{Promise: 100, Transparency: 0, Alignment: 0, Attendance: 0, DonorIndependence: 0},
			40, "F",
		},
		{
			"broken record lands a failing grade",
			scores.Inputs{Promise: 0, Transparency: 25, Alignment: 45, Attendance: 65, DonorIndependence: 15},
			22, "F",
		},
		{
			"rounds up past half",
			flat(71.6),
			72, "C",
		},
		{
			"rounds down below half",
			flat(71.4),
			71, "C",
		},
		{
			"clamped above",
			flat(120),
			100, "A",
		},
		{
			"clamped below",
			flat(-10),
			0, "F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scores.Aggregate("ca-12", tt.in, nil, scoredAt)
			if got.Overall != tt.wantOverall {
				t.Errorf("Overall = %d, want %d", got.Overall, tt.wantOverall)
			}
			if got.Grade != tt.wantGrade {
				t.Errorf("Grade = %s, want %s", got.Grade, tt.wantGrade)
			}
		})
	}
}

func TestAggregateComponents(t *testing.T) {
	in := scores.Inputs{Promise: 33.33, Transparency: 65, Alignment: 50, Attendance: 88.2, DonorIndependence: 40}
	got := scores.Aggregate("ca-12", in, nil, scoredAt)

	if len(got.Components) != 5 {
		t.Fatalf("Components = %d entries, want 5", len(got.Components))
	}

	promise := got.Components[scores.ComponentPromiseKeeping]
	if promise.Score != 33.3 {
		t.Errorf("promise Score = %v, want 33.3", promise.Score)
	}
	if promise.Weight != 40 {
		t.Errorf("promise Weight = %d, want 40", promise.Weight)
	}
	if promise.WeightedContribution != 13.3 {
		t.Errorf("promise WeightedContribution = %v, want 13.3", promise.WeightedContribution)
	}

	attendance := got.Components[scores.ComponentAttendance]
	if attendance.Weight != 10 {
		t.Errorf("attendance Weight = %d, want 10", attendance.Weight)
	}
	if attendance.WeightedContribution != 8.8 {
		t.Errorf("attendance WeightedContribution = %v, want 8.8", attendance.WeightedContribution)
	}

	for name, c := range got.Components {
		if c.Description == "" {
			t.Errorf("component %s has no description", name)
		}
	}

	if got.ScoredAt != scoredAt {
		t.Errorf("ScoredAt = %v, want %v", got.ScoredAt, scoredAt)
	}
}

func TestAggregateTrend(t *testing.T) {
	history := func(overalls ...int) []scores.Score {
		var h []scores.Score
		for _, o := range overalls {
			h = append(h, scores.Score{SubjectID: "ca-12", Overall: o})
		}
		return h
	}

	tests := []struct {
		name      string
		history   []scores.Score
		newInput  float64
		wantTrend string
		wantDelta int
	}{
		{"first score is stable", nil, 50, scores.TrendStable, 0},
		{"improving past the band", history(50), 53, scores.TrendImproving, 3},
		{"declining past the band", history(50), 47, scores.TrendDeclining, -3},
		{"gain inside the band", history(50), 52, scores.TrendStable, 2},
		{"loss inside the band", history(50), 48, scores.TrendStable, -2},
		{"unchanged", history(50), 50, scores.TrendStable, 0},
		{"compares against the latest entry", history(30, 50), 53, scores.TrendImproving, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scores.Aggregate("ca-12", flat(tt.newInput), tt.history, scoredAt)
			if got.Trend != tt.wantTrend {
				t.Errorf("Trend = %s, want %s", got.Trend, tt.wantTrend)
			}
			if got.TrendDelta != tt.wantDelta {
				t.Errorf("TrendDelta = %d, want %d", got.TrendDelta, tt.wantDelta)
			}
		})
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		overall int
		want    string
	}{
		{100, "A"}, {90, "A"},
		{89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"},
		{69, "D"}, {60, "D"},
		{59, "F"}, {22, "F"}, {0, "F"},
	}

	for _, tt := range tests {
		if got := scores.Grade(tt.overall); got != tt.want {
			t.Errorf("Grade(%d) = %s, want %s", tt.overall, got, tt.want)
		}
	}
}

func TestAttendanceScore(t *testing.T) {
	vote := func(position string) records.VoteEvent {
		return records.VoteEvent{Position: position}
	}

	tests := []struct {
		name  string
		votes []records.VoteEvent
		want  float64
	}{
		{"no vote data is neutral", nil, 50},
		{
			"three of four cast",
			[]records.VoteEvent{
				vote(records.PositionYes),
				vote(records.PositionNo),
				vote(records.PositionYes),
				vote(records.PositionNotVoting),
			},
			75,
		},
		{
			"present does not count as cast",
			[]records.VoteEvent{
				vote(records.PositionPresent),
				vote(records.PositionNotVoting),
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scores.AttendanceScore(tt.votes); got != tt.want {
				t.Errorf("AttendanceScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissedVoteRate(t *testing.T) {
	votes := []records.VoteEvent{
		{Position: records.PositionYes},
		{Position: records.PositionNo},
		{Position: records.PositionYes},
		{Position: records.PositionNotVoting},
	}

	if got := scores.MissedVoteRate(votes); got != 0.25 {
		t.Errorf("MissedVoteRate() = %v, want 0.25", got)
	}
	if got := scores.MissedVoteRate(nil); got != 0 {
		t.Errorf("MissedVoteRate(nil) = %v, want 0", got)
	}
}

func TestDonorIndependenceScore(t *testing.T) {
	donations := &records.DonationSet{
		Summary: records.DonationSummary{
			TotalRaised:             1000,
			IndividualContributions: 600,
			PACContributions:        400,
		},
	}

	tests := []struct {
		name         string
		donations    *records.DonationSet
		correlations []influence.Correlation
		want         float64
	}{
		{"no donation data is neutral", nil, nil, 50},
		{
			"zero raised is neutral",
			&records.DonationSet{},
			nil,
			50,
		},
		{
			"individual share stands alone",
			donations,
			nil,
			60,
		},
		{
			"blended with the strongest correlation",
			donations,
			[]influence.Correlation{{Score: 40}, {Score: 80}},
			40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scores.DonorIndependenceScore(tt.donations, tt.correlations); got != tt.want {
				t.Errorf("DonorIndependenceScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransparencyScore(t *testing.T) {
	override := 42.0

	tests := []struct {
		name            string
		override        *float64
		email           bool
		phone           bool
		website         bool
		outreachFlagged bool
		want            float64
	}{
		{"override wins", &override, false, false, false, true, 42},
		{"full contact surface", nil, true, true, true, false, 100},
		{"missing email", nil, false, true, true, false, 85},
		{"missing phone", nil, true, false, true, false, 90},
		{"missing website", nil, true, true, false, false, 90},
		{"outreach gap flagged", nil, true, true, true, true, 85},
		{"everything deducted", nil, false, false, false, true, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scores.TransparencyScore(tt.override, tt.email, tt.phone, tt.website, tt.outreachFlagged)
			if got != tt.want {
				t.Errorf("TransparencyScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignmentScore(t *testing.T) {
	override := 72.5
	if got := scores.AlignmentScore(&override); got != 72.5 {
		t.Errorf("AlignmentScore(override) = %v, want 72.5", got)
	}
	if got := scores.AlignmentScore(nil); got != 50 {
		t.Errorf("AlignmentScore(nil) = %v, want 50", got)
	}
}
