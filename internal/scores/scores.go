// Package scores computes the composite accountability score from the
// five component metrics, grades it, tracks its trend against history, and
// persists analysis output and score history in the blob store.
package scores

import (
	"math"
	"time"
)

// Component names in the breakdown.
const (
	ComponentPromiseKeeping    = "promise_keeping"
	ComponentTransparency      = "transparency"
	ComponentAlignment         = "constituent_alignment"
	ComponentAttendance        = "attendance"
	ComponentDonorIndependence = "donor_independence"
)

// Component weights as fractions of the overall score. Must sum to 1.
const (
	WeightPromiseKeeping    = 0.40
	WeightTransparency      = 0.20
	WeightAlignment         = 0.20
	WeightAttendance        = 0.10
	WeightDonorIndependence = 0.10
)

// Trend values relative to the immediately prior stored score.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// TrendBand is the delta magnitude a score must exceed, in either
// direction, to count as moved.
const TrendBand = 2

var componentDescriptions = map[string]string{
	ComponentPromiseKeeping:    "How well campaign promises match voting record",
	ComponentTransparency:      "Accessibility and openness to constituents",
	ComponentAlignment:         "How well votes align with district priorities",
	ComponentAttendance:        "Participation in votes and committee meetings",
	ComponentDonorIndependence: "Independence from corporate and special interests",
}

// Component is one metric's share of the composite score.
type Component struct {
	Score                float64 `json:"score"`
	Weight               int     `json:"weight"`
	WeightedContribution float64 `json:"weighted_contribution"`
	Description          string  `json:"description"`
}

// Score is one composite accountability score at a point in time.
type Score struct {
	SubjectID  string               `json:"subject_id"`
	Overall    int                  `json:"overall_score"`
	Grade      string               `json:"grade"`
	Components map[string]Component `json:"components"`
	Trend      string               `json:"trend"`
	TrendDelta int                  `json:"trend_delta"`
	ScoredAt   time.Time            `json:"scored_at"`
}

// Inputs are the five component metrics, each already on a 0-100 scale.
type Inputs struct {
	Promise           float64
	Transparency      float64
	Alignment         float64
	Attendance        float64
	DonorIndependence float64
}

// Aggregate blends the component metrics into one graded score. History is
// the subject's stored scores, newest last; the trend compares against the
// final entry and a first-ever score is stable with delta 0.
func Aggregate(subjectID string, in Inputs, history []Score, now time.Time) Score {
	weighted := WeightPromiseKeeping*in.Promise +
		WeightTransparency*in.Transparency +
		WeightAlignment*in.Alignment +
		WeightAttendance*in.Attendance +
		WeightDonorIndependence*in.DonorIndependence

	overall := clamp(int(math.Round(weighted)))

	score := Score{
		SubjectID: subjectID,
		Overall:   overall,
		Grade:     Grade(overall),
		Components: map[string]Component{
			ComponentPromiseKeeping:    newComponent(in.Promise, WeightPromiseKeeping, ComponentPromiseKeeping),
			ComponentTransparency:      newComponent(in.Transparency, WeightTransparency, ComponentTransparency),
			ComponentAlignment:         newComponent(in.Alignment, WeightAlignment, ComponentAlignment),
			ComponentAttendance:        newComponent(in.Attendance, WeightAttendance, ComponentAttendance),
			ComponentDonorIndependence: newComponent(in.DonorIndependence, WeightDonorIndependence, ComponentDonorIndependence),
		},
		Trend:    TrendStable,
		ScoredAt: now,
	}

	if len(history) > 0 {
		prior := history[len(history)-1]
		score.TrendDelta = overall - prior.Overall
		switch {
		case score.TrendDelta > TrendBand:
			score.Trend = TrendImproving
		case score.TrendDelta < -TrendBand:
			score.Trend = TrendDeclining
		}
	}

	return score
}

// Grade maps a score to its letter grade; boundaries belong to the higher
// grade.
func Grade(overall int) string {
	switch {
	case overall >= 90:
		return "A"
	case overall >= 80:
		return "B"
	case overall >= 70:
		return "C"
	case overall >= 60:
		return "D"
	default:
		return "F"
	}
}

func newComponent(score, weight float64, name string) Component {
	return Component{
		Score:                round1(score),
		Weight:               int(weight * 100),
		WeightedContribution: round1(score * weight),
		Description:          componentDescriptions[name],
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
