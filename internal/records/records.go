// Package records defines the canonical record types produced by snapshot
// normalization and consumed by the scoring engines. Records are immutable
// after normalization; every provider payload is converted into these shapes
// before any downstream code sees it.
package records

import (
	"slices"
	"strings"
	"time"
)

// Category identifies one of the tracked data categories for a subject.
type Category string

const (
	CategoryVotes     Category = "votes"
	CategoryDonations Category = "donations"
	CategoryTrades    Category = "trades"
	CategoryPromises  Category = "promises"
)

// Categories returns all data categories in canonical order.
func Categories() []Category {
	return []Category{
		CategoryVotes,
		CategoryDonations,
		CategoryTrades,
		CategoryPromises,
	}
}

// Valid reports whether c names a known data category.
func (c Category) Valid() bool {
	switch c {
	case CategoryVotes, CategoryDonations, CategoryTrades, CategoryPromises:
		return true
	}
	return false
}

// Vote positions as reported by roll-call feeds.
const (
	PositionYes       = "yes"
	PositionNo        = "no"
	PositionPresent   = "present"
	PositionNotVoting = "not-voting"
)

// IndustryStance records whether a vote favored one tagged industry.
type IndustryStance struct {
	Industry  string `json:"industry"`
	Favorable bool   `json:"favorable"`
}

// VoteEvent is a single roll-call vote after normalization. Categories holds
// the bill's issue-area tags; Industries holds the per-industry favorability
// derived from the position and those tags.
type VoteEvent struct {
	ID          string           `json:"id"`
	BillNumber  string           `json:"bill_number"`
	Title       string           `json:"title"`
	Date        time.Time        `json:"date"`
	Position    string           `json:"position"`
	Result      string           `json:"result,omitempty"`
	BillSummary string           `json:"bill_summary,omitempty"`
	Categories  []string         `json:"categories,omitempty"`
	Industries  []IndustryStance `json:"industries,omitempty"`
}

// Cast reports whether the vote counts as participation. Present and
// not-voting positions do not.
func (v VoteEvent) Cast() bool {
	switch v.Position {
	case PositionNotVoting, PositionPresent, "":
		return false
	}
	return true
}

// TaggedWith reports whether the vote's bill carries the given issue tag.
func (v VoteEvent) TaggedWith(category string) bool {
	return slices.Contains(v.Categories, category)
}

// Stance returns the vote's stance toward an industry, if the bill was
// tagged with it.
func (v VoteEvent) Stance(industry string) (IndustryStance, bool) {
	for _, s := range v.Industries {
		if s.Industry == industry {
			return s, true
		}
	}
	return IndustryStance{}, false
}

// Donor types as normalized from provider records.
const (
	DonorTypePAC        = "pac"
	DonorTypeIndividual = "individual"
)

// DonationEvent is a single normalized contribution record.
type DonationEvent struct {
	Donor    string    `json:"donor"`
	Amount   float64   `json:"amount"`
	Type     string    `json:"type"`
	Industry string    `json:"industry,omitempty"`
	Date     time.Time `json:"date"`
}

// DonationSummary rolls up a subject's contribution totals for a cycle.
type DonationSummary struct {
	TotalRaised             float64 `json:"total_raised"`
	IndividualContributions float64 `json:"individual_contributions"`
	PACContributions        float64 `json:"pac_contributions"`
	SelfFunding             float64 `json:"self_funding"`
}

// PACShare returns the PAC fraction of total fundraising, 0 when nothing
// was raised.
func (s DonationSummary) PACShare() float64 {
	if s.TotalRaised <= 0 {
		return 0
	}
	return s.PACContributions / s.TotalRaised
}

// IndividualShare returns the individual-contribution fraction of total
// fundraising, 0 when nothing was raised.
func (s DonationSummary) IndividualShare() float64 {
	if s.TotalRaised <= 0 {
		return 0
	}
	return s.IndividualContributions / s.TotalRaised
}

// IndustryTotal is one industry's aggregate contribution amount.
type IndustryTotal struct {
	Industry string  `json:"industry"`
	Amount   float64 `json:"amount"`
}

// DonationSet is everything the donations category yields for a subject:
// the summary rollup, the top donor records, and the top industry totals.
type DonationSet struct {
	Summary       DonationSummary `json:"summary"`
	TopDonors     []DonationEvent `json:"top_donors"`
	TopIndustries []IndustryTotal `json:"top_industries"`
}

// TopDonorConcentration returns the fraction of total fundraising
// contributed by the n largest donors, 0 when nothing was raised.
// Ties break by donor name so the result is deterministic.
func (d *DonationSet) TopDonorConcentration(n int) float64 {
	if d == nil || d.Summary.TotalRaised <= 0 || n <= 0 {
		return 0
	}

	donors := slices.Clone(d.TopDonors)
	slices.SortFunc(donors, func(a, b DonationEvent) int {
		if a.Amount != b.Amount {
			if a.Amount > b.Amount {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Donor, b.Donor)
	})

	var top float64
	for i, donor := range donors {
		if i >= n {
			break
		}
		top += donor.Amount
	}

	return min(top/d.Summary.TotalRaised, 1)
}

// Trade transaction types from disclosure filings.
const (
	TradePurchase = "purchase"
	TradeSale     = "sale"
)

// TradeEvent is a single financial disclosure transaction. Amount is the
// disclosure band as filed (e.g. "$15,001 - $50,000"), not a number.
type TradeEvent struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Ticker  string    `json:"ticker,omitempty"`
	Asset   string    `json:"asset"`
	Type    string    `json:"type"`
	Amount  string    `json:"amount"`
	FiledAt time.Time `json:"filed_at"`
}

// ConflictNote is an upstream-computed conflict-of-interest annotation
// attached to a trade. Carried through as-is; never derived locally.
type ConflictNote struct {
	TradeID  string `json:"trade_id"`
	Reason   string `json:"reason"`
	Severity string `json:"severity"`
}

// TradeSet is everything the trades category yields for a subject.
type TradeSet struct {
	Trades    []TradeEvent   `json:"trades"`
	Conflicts []ConflictNote `json:"conflicts,omitempty"`
}

// PromiseRecord is a normalized campaign promise. Status is not part of the
// record; the promise tracker derives it from vote evidence each run.
type PromiseRecord struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
}
