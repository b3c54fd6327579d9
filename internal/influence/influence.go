// Package influence implements the donation/vote correlation engine. For
// each industry with donation volume it measures how concentrated the
// industry's giving is, how often the subject votes the industry's way, and
// how often favorable votes land shortly after a donation.
package influence

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/opendocket/docket/internal/records"
)

// TopDonorCount is how many donors the concentration measure considers.
const TopDonorCount = 10

// Default component weights. Concentration, alignment, and timing must sum
// to 1 for the score to span the full [0,100] range.
const (
	DefaultConcentrationWeight = 0.3
	DefaultAlignmentWeight     = 0.4
	DefaultTimingWeight        = 0.3
)

// Timing is one (donation, favorable vote) pair inside the detection
// window. Pairs are recorded individually; overlapping windows are not
// deduplicated.
type Timing struct {
	Donor        string    `json:"donor"`
	Amount       float64   `json:"amount"`
	DonationDate time.Time `json:"donation_date"`
	VoteID       string    `json:"vote_id"`
	BillNumber   string    `json:"bill_number,omitempty"`
	VoteTitle    string    `json:"vote_title"`
	VoteDate     time.Time `json:"vote_date"`
	GapDays      int       `json:"gap_days"`
}

// Correlation is the engine's per-industry output. Concentration,
// Alignment, and SuspiciousRate are fractions in [0,1]; Score is the
// weighted blend scaled to [0,100].
type Correlation struct {
	Industry          string   `json:"industry"`
	IndustryName      string   `json:"industry_name"`
	TotalDonations    float64  `json:"total_donations"`
	Concentration     float64  `json:"concentration"`
	Alignment         float64  `json:"alignment"`
	SuspiciousRate    float64  `json:"suspicious_rate"`
	Score             int      `json:"score"`
	RelatedVotes      int      `json:"related_votes"`
	FavorableVotes    int      `json:"favorable_votes"`
	SuspiciousTimings []Timing `json:"suspicious_timings,omitempty"`
}

// Config tunes the engine. Zero values take the defaults: a 30 day
// detection window and the Default*Weight blend.
type Config struct {
	WindowDays          int
	ConcentrationWeight float64
	AlignmentWeight     float64
	TimingWeight        float64
}

// Engine computes influence correlations. Stateless and side-effect-free;
// safe for concurrent use.
type Engine struct {
	windowDays    int
	concentration float64
	alignment     float64
	timing        float64
}

// NewEngine creates an Engine from the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.ConcentrationWeight == 0 && cfg.AlignmentWeight == 0 && cfg.TimingWeight == 0 {
		cfg.ConcentrationWeight = DefaultConcentrationWeight
		cfg.AlignmentWeight = DefaultAlignmentWeight
		cfg.TimingWeight = DefaultTimingWeight
	}

	return &Engine{
		windowDays:    cfg.WindowDays,
		concentration: cfg.ConcentrationWeight,
		alignment:     cfg.AlignmentWeight,
		timing:        cfg.TimingWeight,
	}
}

// AnalyzeAll runs the engine once per industry with donation volume,
// in stable industry order. Industries with zero donations and donors that
// matched no industry are excluded entirely.
func (e *Engine) AnalyzeAll(subjectID string, donations *records.DonationSet, votes []records.VoteEvent) []Correlation {
	if donations == nil {
		return nil
	}

	byIndustry := make(map[string][]records.DonationEvent)
	for _, donation := range donations.TopDonors {
		if donation.Industry == "" || donation.Industry == records.IndustryOther {
			continue
		}
		byIndustry[donation.Industry] = append(byIndustry[donation.Industry], donation)
	}

	industries := make([]string, 0, len(byIndustry))
	for industry := range byIndustry {
		industries = append(industries, industry)
	}
	slices.Sort(industries)

	var correlations []Correlation
	for _, industry := range industries {
		if c := e.Analyze(subjectID, industry, byIndustry[industry], votes); c != nil {
			correlations = append(correlations, *c)
		}
	}

	return correlations
}

// Analyze correlates one industry's donations with the subject's votes.
// The donations slice holds only this industry's records. Returns nil when
// the industry has no donation volume.
func (e *Engine) Analyze(subjectID, industry string, donations []records.DonationEvent, votes []records.VoteEvent) *Correlation {
	var total float64
	for _, d := range donations {
		total += d.Amount
	}
	if total <= 0 {
		return nil
	}

	c := &Correlation{
		Industry:       industry,
		IndustryName:   records.IndustryName(industry),
		TotalDonations: total,
		Concentration:  donorConcentration(donations, total),
	}

	var favorable []records.VoteEvent
	for _, vote := range votes {
		stance, ok := vote.Stance(industry)
		if !ok {
			continue
		}
		c.RelatedVotes++
		if stance.Favorable {
			favorable = append(favorable, vote)
		}
	}
	c.FavorableVotes = len(favorable)

	// Zero tagged votes means alignment 0, not an undefined ratio.
	if c.RelatedVotes > 0 {
		c.Alignment = float64(c.FavorableVotes) / float64(c.RelatedVotes)
	}

	suspicious := 0
	for _, vote := range favorable {
		pairs := e.timingPairs(vote, donations)
		if len(pairs) > 0 {
			suspicious++
			c.SuspiciousTimings = append(c.SuspiciousTimings, pairs...)
		}
	}
	if c.FavorableVotes > 0 {
		c.SuspiciousRate = float64(suspicious) / float64(c.FavorableVotes)
	}

	c.Score = scaleScore(
		e.concentration*c.Concentration +
			e.alignment*c.Alignment +
			e.timing*c.SuspiciousRate,
	)

	return c
}

// timingPairs returns every donation that precedes the vote within the
// detection window, each with its exact day gap. Donations without a date
// are excluded from timing analysis.
func (e *Engine) timingPairs(vote records.VoteEvent, donations []records.DonationEvent) []Timing {
	var pairs []Timing
	for _, donation := range donations {
		if donation.Date.IsZero() {
			continue
		}

		gap := int(vote.Date.Sub(donation.Date).Hours() / 24)
		if gap < 0 || gap > e.windowDays {
			continue
		}

		pairs = append(pairs, Timing{
			Donor:        donation.Donor,
			Amount:       donation.Amount,
			DonationDate: donation.Date,
			VoteID:       vote.ID,
			BillNumber:   vote.BillNumber,
			VoteTitle:    vote.Title,
			VoteDate:     vote.Date,
			GapDays:      gap,
		})
	}
	return pairs
}

// donorConcentration is the share of the industry total contributed by the
// top donors, ties broken by donor name for determinism.
func donorConcentration(donations []records.DonationEvent, total float64) float64 {
	sorted := slices.Clone(donations)
	slices.SortFunc(sorted, func(a, b records.DonationEvent) int {
		if a.Amount != b.Amount {
			if a.Amount > b.Amount {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Donor, b.Donor)
	})

	var top float64
	for i, donation := range sorted {
		if i >= TopDonorCount {
			break
		}
		top += donation.Amount
	}

	return min(top/total, 1)
}

// MaxScore returns the highest influence score across correlations, 0 when
// there are none.
func MaxScore(correlations []Correlation) int {
	highest := 0
	for _, c := range correlations {
		if c.Score > highest {
			highest = c.Score
		}
	}
	return highest
}

// MinTimingGap returns the smallest day gap across all suspicious-timing
// pairs and whether any pair exists.
func MinTimingGap(correlations []Correlation) (int, bool) {
	gap := math.MaxInt
	found := false
	for _, c := range correlations {
		for _, t := range c.SuspiciousTimings {
			found = true
			if t.GapDays < gap {
				gap = t.GapDays
			}
		}
	}
	if !found {
		return 0, false
	}
	return gap, true
}

func scaleScore(weighted float64) int {
	score := int(math.Round(weighted * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
