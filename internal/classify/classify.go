// Package classify defines the promise/vote stance classifier collaborator
// consumed by the promise tracker, along with a deterministic keyword
// implementation. The tracker only ever sees boolean verdicts; richer
// classification backends plug in behind the same interface.
package classify

import (
	"context"
	"strings"

	"github.com/opendocket/docket/internal/records"
)

// Verdict is the classifier's stance call for one (promise, vote) pair.
// Both fields false means the vote is neutral toward the promise.
type Verdict struct {
	Contradicts bool `json:"contradicts"`
	Supports    bool `json:"supports"`
}

// Classifier decides whether a vote supports or contradicts a promise.
// Implementations may be slow and fallible; callers degrade the promise to
// not-addressed on error rather than failing the run.
type Classifier interface {
	Classify(ctx context.Context, promise records.PromiseRecord, vote records.VoteEvent) (Verdict, error)
}

// Stance phrases detected in promise text. Pro phrases commit the official
// to advancing something; anti phrases commit to blocking it.
var (
	proIndicators = []string{
		"fight for", "support", "expand", "increase", "protect", "strengthen",
	}
	antiIndicators = []string{
		"fight against", "oppose", "reduce", "cut", "eliminate", "stop",
	}
)

// Keyword is a stance heuristic over promise phrasing and vote position:
// a pro-stance promise is supported by yes votes and contradicted by no
// votes, and inversely for anti-stance promises. Promises with no stance
// phrase and votes without a yes/no position are neutral.
type Keyword struct{}

// NewKeyword creates the keyword stance classifier.
func NewKeyword() *Keyword {
	return &Keyword{}
}

func (k *Keyword) Classify(_ context.Context, promise records.PromiseRecord, vote records.VoteEvent) (Verdict, error) {
	text := strings.ToLower(promise.Text)
	pro := containsAny(text, proIndicators)
	anti := containsAny(text, antiIndicators)

	// Pro stance wins when the promise phrasing matches both directions.
	switch {
	case pro && vote.Position == records.PositionYes:
		return Verdict{Supports: true}, nil
	case pro && vote.Position == records.PositionNo:
		return Verdict{Contradicts: true}, nil
	case anti && vote.Position == records.PositionNo:
		return Verdict{Supports: true}, nil
	case anti && vote.Position == records.PositionYes:
		return Verdict{Contradicts: true}, nil
	}

	return Verdict{}, nil
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
