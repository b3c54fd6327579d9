// Package redflags evaluates a registry of independent accountability rules
// against a subject's analysis output. Each rule inspects the shared context
// and returns at most one flag; flags are regenerated wholesale every run
// with no incremental lifecycle.
package redflags

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opendocket/docket/internal/influence"
	"github.com/opendocket/docket/internal/promises"
)

// Severities, most urgent first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Flag types emitted by the registry.
const (
	TypeBrokenPromise    = "broken_promise"
	TypeSuspiciousTiming = "suspicious_timing"
	TypeMissedVotes      = "excessive_missed_votes"
	TypeNoOutreach       = "no_public_outreach"
	TypeConcentration    = "donor_concentration"
	TypePACDependency    = "corporate_pac_dependency"
)

// Rule trigger thresholds. Context fields override the gap and peer-rate
// defaults when set.
const (
	BrokenVoteCount           = 12
	CriticalTimingGapDays     = 14
	AttendancePeerMultiple    = 2.0
	DefaultPeerMissedVoteRate = 0.08
	DefaultOutreachGapMonths  = 18
	ConcentrationThreshold    = 0.70
	PACShareThreshold         = 0.60
)

// Evidence caps keep flag detail readable.
const (
	maxTimingEvidence        = 10
	maxBrokenPromiseEvidence = 5
)

// Flag is one detected accountability issue.
type Flag struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Severity string   `json:"severity"`
	Title    string   `json:"title"`
	Evidence []string `json:"evidence,omitempty"`
}

// Context carries everything the rules inspect. Engine outputs may be nil
// when the category never produced data; the Has* fields distinguish "no
// data" from "zero measured".
type Context struct {
	SubjectID string

	Promises  *promises.Result
	Influence []influence.Correlation

	MissedVoteRate     float64
	HasVoteData        bool
	PeerMissedVoteRate float64

	LastOutreachAt    *time.Time
	OutreachGapMonths int
	CriticalGapDays   int

	TopDonorConcentration float64
	PACShare              float64
	HasDonationData       bool

	Now time.Time
}

func (c Context) peerMissedVoteRate() float64 {
	if c.PeerMissedVoteRate > 0 {
		return c.PeerMissedVoteRate
	}
	return DefaultPeerMissedVoteRate
}

func (c Context) outreachGapMonths() int {
	if c.OutreachGapMonths > 0 {
		return c.OutreachGapMonths
	}
	return DefaultOutreachGapMonths
}

func (c Context) criticalGapDays() int {
	if c.CriticalGapDays > 0 {
		return c.CriticalGapDays
	}
	return CriticalTimingGapDays
}

// Rule inspects the context and returns a flag or nil.
type Rule func(Context) *Flag

// rules is the registry. Order fixes the output order; there is no ranking
// pass afterward.
var rules = []Rule{
	brokenPromiseRule,
	suspiciousTimingRule,
	attendanceRule,
	outreachRule,
	concentrationRule,
	pacShareRule,
}

// Evaluate runs every registered rule. No triggered rules means an empty
// list, never an error.
func Evaluate(ctx Context) []Flag {
	flags := make([]Flag, 0, len(rules))
	for _, rule := range rules {
		if flag := rule(ctx); flag != nil {
			flags = append(flags, *flag)
		}
	}
	return flags
}

// brokenPromiseRule fires when any single promise accumulated enough
// contradicting votes, titled after the worst offender.
func brokenPromiseRule(ctx Context) *Flag {
	if ctx.Promises == nil {
		return nil
	}

	var qualifying []promises.Promise
	for _, p := range ctx.Promises.Promises {
		if p.Contradicting >= BrokenVoteCount {
			qualifying = append(qualifying, p)
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	// Result ordering puts the most-contradicted promise first.
	worst := qualifying[0]
	flag := newFlag(TypeBrokenPromise, SeverityHigh,
		fmt.Sprintf("Voted against campaign promise %d times", worst.Contradicting))

	for i, p := range qualifying {
		if i >= maxBrokenPromiseEvidence {
			break
		}
		flag.Evidence = append(flag.Evidence,
			fmt.Sprintf("promise %s (%s): %d contradicting votes", p.ID, p.Category, p.Contradicting))
	}

	return flag
}

// suspiciousTimingRule fires on any donation/vote pair inside the timing
// window. Severity escalates to critical when the tightest gap is at or
// under the critical threshold.
func suspiciousTimingRule(ctx Context) *Flag {
	gap, ok := influence.MinTimingGap(ctx.Influence)
	if !ok {
		return nil
	}

	severity := SeverityHigh
	if gap <= ctx.criticalGapDays() {
		severity = SeverityCritical
	}

	flag := newFlag(TypeSuspiciousTiming, severity,
		fmt.Sprintf("Donation followed by favorable vote within %d days", gap))

	count := 0
	for _, c := range ctx.Influence {
		for _, t := range c.SuspiciousTimings {
			if count >= maxTimingEvidence {
				return flag
			}
			flag.Evidence = append(flag.Evidence,
				fmt.Sprintf("$%.0f from %s on %s, favorable vote %s on %s (%d days)",
					t.Amount, t.Donor, t.DonationDate.Format("2006-01-02"),
					t.VoteID, t.VoteDate.Format("2006-01-02"), t.GapDays))
			count++
		}
	}

	return flag
}

// attendanceRule fires when the missed-vote rate exceeds twice the peer
// average. Requires vote data; an empty record is not an absence.
func attendanceRule(ctx Context) *Flag {
	if !ctx.HasVoteData {
		return nil
	}

	peer := ctx.peerMissedVoteRate()
	if ctx.MissedVoteRate <= AttendancePeerMultiple*peer {
		return nil
	}

	flag := newFlag(TypeMissedVotes, SeverityHigh,
		fmt.Sprintf("Missed %.1f%% of votes", ctx.MissedVoteRate*100))
	flag.Evidence = append(flag.Evidence,
		fmt.Sprintf("%.1fx the peer average of %.1f%%", ctx.MissedVoteRate/peer, peer*100))

	return flag
}

// outreachRule fires when no public outreach event is recorded within the
// gap window. A missing record counts as no outreach.
func outreachRule(ctx Context) *Flag {
	months := ctx.outreachGapMonths()
	cutoff := ctx.Now.AddDate(0, -months, 0)

	if ctx.LastOutreachAt != nil && ctx.LastOutreachAt.After(cutoff) {
		return nil
	}

	flag := newFlag(TypeNoOutreach, SeverityHigh,
		fmt.Sprintf("No public outreach event in the last %d months", months))
	if ctx.LastOutreachAt != nil {
		flag.Evidence = append(flag.Evidence,
			fmt.Sprintf("last recorded outreach %s", ctx.LastOutreachAt.Format("2006-01-02")))
	} else {
		flag.Evidence = append(flag.Evidence, "no outreach event on record")
	}

	return flag
}

func concentrationRule(ctx Context) *Flag {
	if !ctx.HasDonationData || ctx.TopDonorConcentration < ConcentrationThreshold {
		return nil
	}

	flag := newFlag(TypeConcentration, SeverityMedium,
		fmt.Sprintf("Top 10 donors account for %.1f%% of funding", ctx.TopDonorConcentration*100))
	flag.Evidence = append(flag.Evidence, "campaign funding concentrated among a small group of donors")

	return flag
}

func pacShareRule(ctx Context) *Flag {
	if !ctx.HasDonationData || ctx.PACShare < PACShareThreshold {
		return nil
	}

	flag := newFlag(TypePACDependency, SeverityMedium,
		fmt.Sprintf("%.1f%% of funding from PACs", ctx.PACShare*100))
	flag.Evidence = append(flag.Evidence, "majority of campaign funding from political action committees")

	return flag
}

func newFlag(flagType, severity, title string) *Flag {
	return &Flag{
		ID:       uuid.NewString(),
		Type:     flagType,
		Severity: severity,
		Title:    title,
	}
}
