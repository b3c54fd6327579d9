package scores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opendocket/docket/internal/influence"
	"github.com/opendocket/docket/internal/promises"
	"github.com/opendocket/docket/internal/redflags"
	"github.com/opendocket/docket/pkg/storage"
)

// Analysis is the persisted engine output of a subject's last scored run.
// Influence and Promises carry over from earlier runs when their input
// categories did not change; RedFlags are regenerated wholesale every run.
type Analysis struct {
	SubjectID string                  `json:"subject_id"`
	Influence []influence.Correlation `json:"influence,omitempty"`
	Promises  *promises.Result        `json:"promises,omitempty"`
	RedFlags  []redflags.Flag         `json:"red_flags"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// AnalysisKey returns the blob key for a subject's persisted analysis.
func AnalysisKey(subjectID string) string {
	return "analysis/" + subjectID + ".json"
}

// HistoryKey returns the blob key for a subject's score history.
func HistoryKey(subjectID string) string {
	return "scores/" + subjectID + ".json"
}

// System persists analyses and score histories in the blob store.
type System struct {
	storage storage.System
}

// NewSystem creates a score persistence system over the blob store.
func NewSystem(store storage.System) *System {
	return &System{storage: store}
}

// SaveAnalysis overwrites the subject's persisted analysis.
func (s *System) SaveAnalysis(ctx context.Context, analysis *Analysis) error {
	key := AnalysisKey(analysis.SubjectID)
	if err := storage.PutJSON(ctx, s.storage, key, analysis); err != nil {
		return fmt.Errorf("save analysis %s: %w", key, err)
	}
	return nil
}

// LoadAnalysis returns the subject's last persisted analysis.
// Returns storage.ErrNotFound when the subject has never been analyzed.
func (s *System) LoadAnalysis(ctx context.Context, subjectID string) (*Analysis, error) {
	var analysis Analysis
	if err := storage.GetJSON(ctx, s.storage, AnalysisKey(subjectID), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// History returns the subject's stored scores, newest last. A subject that
// has never been scored yields an empty history, not an error.
func (s *System) History(ctx context.Context, subjectID string) ([]Score, error) {
	var history []Score
	if err := storage.GetJSON(ctx, s.storage, HistoryKey(subjectID), &history); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return history, nil
}

// Append adds one score to the subject's history and persists it.
func (s *System) Append(ctx context.Context, score Score) error {
	history, err := s.History(ctx, score.SubjectID)
	if err != nil {
		return fmt.Errorf("load score history for %s: %w", score.SubjectID, err)
	}

	history = append(history, score)

	key := HistoryKey(score.SubjectID)
	if err := storage.PutJSON(ctx, s.storage, key, history); err != nil {
		return fmt.Errorf("save score history %s: %w", key, err)
	}
	return nil
}
