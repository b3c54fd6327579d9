package scores

import (
	"github.com/opendocket/docket/internal/influence"
	"github.com/opendocket/docket/internal/records"
)

// Transparency deductions per missing contact channel, plus one when the
// outreach-gap rule fired.
const (
	missingEmailDeduction   = 15
	missingPhoneDeduction   = 10
	missingWebsiteDeduction = 10
	outreachGapDeduction    = 15
)

// AttendanceScore is the participation rate over the vote record: 100 times
// the fraction of votes actually cast. Neutral 50 with no vote data.
func AttendanceScore(votes []records.VoteEvent) float64 {
	if len(votes) == 0 {
		return 50
	}

	cast := 0
	for _, vote := range votes {
		if vote.Cast() {
			cast++
		}
	}

	return 100 * float64(cast) / float64(len(votes))
}

// MissedVoteRate is the fraction of votes not cast, 0 with no vote data.
func MissedVoteRate(votes []records.VoteEvent) float64 {
	if len(votes) == 0 {
		return 0
	}

	missed := 0
	for _, vote := range votes {
		if !vote.Cast() {
			missed++
		}
	}

	return float64(missed) / float64(len(votes))
}

// DonorIndependenceScore blends the individual-contribution share with the
// inverse of the strongest influence correlation. Without correlations the
// individual share stands alone; without donation data the score is a
// neutral 50.
func DonorIndependenceScore(donations *records.DonationSet, correlations []influence.Correlation) float64 {
	if donations == nil || donations.Summary.TotalRaised <= 0 {
		return 50
	}

	individual := donations.Summary.IndividualShare() * 100
	if len(correlations) == 0 {
		return individual
	}

	independence := float64(100 - influence.MaxScore(correlations))
	return 0.5*individual + 0.5*independence
}

// TransparencyScore uses the roster-supplied override when present;
// otherwise it starts at 100 and deducts per missing contact channel and
// for a fired outreach-gap flag, floored at 0.
func TransparencyScore(override *float64, hasEmail, hasPhone, hasWebsite, outreachFlagged bool) float64 {
	if override != nil {
		return *override
	}

	score := 100.0
	if !hasEmail {
		score -= missingEmailDeduction
	}
	if !hasPhone {
		score -= missingPhoneDeduction
	}
	if !hasWebsite {
		score -= missingWebsiteDeduction
	}
	if outreachFlagged {
		score -= outreachGapDeduction
	}

	return max(score, 0)
}

// AlignmentScore is the roster-supplied district alignment, neutral 50 when
// the roster carries none. District preference data is externally sourced.
func AlignmentScore(override *float64) float64 {
	if override != nil {
		return *override
	}
	return 50
}
