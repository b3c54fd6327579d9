// Package pipeline drives the end-to-end accountability pipeline across a
// batch of subjects: fetch, normalize, diff, score, aggregate, persist,
// notify. Each subject is an independent unit of work inside a bounded
// pool; one unit's failure never aborts its siblings, and a batch fails as
// a whole only when its subject list cannot be enumerated.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/influence"
	"github.com/opendocket/docket/internal/jobs"
	"github.com/opendocket/docket/internal/notify"
	"github.com/opendocket/docket/internal/promises"
	"github.com/opendocket/docket/internal/providers"
	"github.com/opendocket/docket/internal/records"
	"github.com/opendocket/docket/internal/redflags"
	"github.com/opendocket/docket/internal/scores"
	"github.com/opendocket/docket/internal/snapshots"
	"github.com/opendocket/docket/internal/subjects"
	"github.com/opendocket/docket/pkg/lifecycle"
	"github.com/opendocket/docket/pkg/metrics"
	"github.com/opendocket/docket/pkg/storage"
)

// progressSaveInterval is how many completed units elapse between persisted
// progress updates. The batch always persists a final state regardless.
const progressSaveInterval = 10

// Roster is the slice of the subjects system the pipeline needs.
type Roster interface {
	Find(ctx context.Context, id string) (*subjects.Subject, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Roster      Roster
	Feed        *providers.Client
	Snapshots   *snapshots.System
	Influence   *influence.Engine
	Promises    *promises.Tracker
	Scores      *scores.System
	Jobs        *jobs.Store
	Revalidator *notify.Revalidator
	Lifecycle   *lifecycle.Coordinator
	Metrics     *metrics.Manager
}

// Orchestrator runs pipeline batches. Implements jobs.Runner.
type Orchestrator struct {
	roster      Roster
	feed        *providers.Client
	snapshots   *snapshots.System
	influence   *influence.Engine
	promises    *promises.Tracker
	scores      *scores.System
	jobs        *jobs.Store
	revalidator *notify.Revalidator
	lifecycle   *lifecycle.Coordinator
	metrics     *metrics.Manager
	logger      *slog.Logger

	concurrency        int
	criticalGapDays    int
	outreachGapMonths  int
	peerMissedVoteRate float64
}

// NewOrchestrator creates an Orchestrator from its collaborators and the
// pipeline configuration.
func NewOrchestrator(deps Deps, cfg *config.PipelineConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		roster:      deps.Roster,
		feed:        deps.Feed,
		snapshots:   deps.Snapshots,
		influence:   deps.Influence,
		promises:    deps.Promises,
		scores:      deps.Scores,
		jobs:        deps.Jobs,
		revalidator: deps.Revalidator,
		lifecycle:   deps.Lifecycle,
		metrics:     deps.Metrics,
		logger:      logger.With("system", "pipeline"),

		concurrency:        cfg.Concurrency,
		criticalGapDays:    cfg.CriticalGapDays,
		outreachGapMonths:  cfg.OutreachGapMonths,
		peerMissedVoteRate: cfg.PeerMissedVoteRate,
	}
}

// RunBatch persists a pending job for the given subjects and launches the
// batch on the service lifecycle context, detached from the caller. An
// empty id list runs every active subject. Callers poll the job store for
// progress.
func (o *Orchestrator) RunBatch(ctx context.Context, subjectIDs []string) (*jobs.Job, error) {
	jobType := jobs.TypeRefreshSubjects
	if len(subjectIDs) == 0 {
		jobType = jobs.TypeRefreshAll
	}

	job := jobs.New(jobType)
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, err
	}

	// Workers mutate job through the tracker; hand the caller a copy.
	pending := *job
	tracker := jobs.NewTracker(job)

	o.lifecycle.Background(func(runCtx context.Context) {
		o.run(runCtx, tracker, subjectIDs)
	})

	return &pending, nil
}

func (o *Orchestrator) run(ctx context.Context, tracker *jobs.Tracker, subjectIDs []string) {
	job := tracker.Snapshot()
	log := o.logger.With("job", job.ID)

	// Job records must reach a terminal state even when shutdown cancels
	// the batch mid-run; storage carries its own timeouts.
	finalCtx := context.WithoutCancel(ctx)

	ids := subjectIDs
	if len(ids) == 0 {
		var err error
		ids, err = o.roster.ListActiveIDs(ctx)
		if err != nil {
			tracker.FailSetup(&SetupError{Err: err})
			o.saveJob(finalCtx, tracker)
			log.Error("batch setup failed", "error", err)
			return
		}
	}

	tracker.Start(len(ids))
	o.saveJob(ctx, tracker)
	o.metrics.JobStarted()
	log.Info("batch started", "subjects", len(ids))

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				tracker.Fail(id, "canceled", err)
				return nil
			}

			started := time.Now()
			if stage, err := o.processSubject(ctx, id); err != nil {
				tracker.Fail(id, stage, err)
				o.metrics.SubjectFailed()
				log.Error("subject failed", "subject", id, "stage", stage, "error", err)
			} else {
				tracker.Complete()
				o.metrics.SubjectCompleted()
			}
			o.metrics.ObserveUnitDuration(time.Since(started))

			if done := tracker.Completed(); done > 0 && done%progressSaveInterval == 0 {
				o.saveJob(ctx, tracker)
			}
			return nil
		})
	}
	_ = g.Wait() // unit failures are tracked, never returned

	tracker.Finish()
	o.saveJob(finalCtx, tracker)
	o.metrics.JobFinished()

	final := tracker.Snapshot()
	log.Info("batch finished",
		"completed", final.Progress.Completed,
		"failed", final.Progress.Failed,
	)
}

// processSubject runs one subject through the full pipeline. On failure it
// returns the stage that failed alongside the error; an unchanged subject
// completes early without scoring.
func (o *Orchestrator) processSubject(ctx context.Context, subjectID string) (string, error) {
	subject, err := o.roster.Find(ctx, subjectID)
	if err != nil {
		return "roster", err
	}

	payloads, failures := o.feed.FetchAll(ctx, subjectID, subject.ProviderRef)

	now := time.Now().UTC()
	snaps, normErrs := snapshots.Normalize(subjectID, payloads, now)
	if len(normErrs) > 0 {
		return "normalize", errors.Join(normErrs...)
	}

	// Exhausted categories carry forward from the last persisted snapshot;
	// a category that has never been captured fails the unit.
	for _, category := range records.Categories() {
		fetchErr, failed := failures[category]
		if !failed {
			continue
		}

		prior, err := o.snapshots.Load(ctx, subjectID, category)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "fetch", fetchErr
			}
			return "fetch", fmt.Errorf("load prior %s snapshot: %w", category, err)
		}

		o.logger.Warn("category carried forward",
			"subject", subjectID,
			"category", category,
			"error", fetchErr,
		)
		snaps = append(snaps, *prior)
	}

	changes, err := o.snapshots.Diff(ctx, subjectID, snaps)
	if err != nil {
		return "diff", err
	}

	if changes.Empty() {
		o.logger.Info("no changes", "subject", subjectID)
		return "", nil
	}
	for _, category := range changes.List() {
		o.metrics.CategoryChanged(string(category))
	}

	var (
		votes       []records.VoteEvent
		donations   *records.DonationSet
		promiseRecs []records.PromiseRecord
	)
	for i := range snaps {
		switch snaps[i].Category {
		case records.CategoryVotes:
			votes = snaps[i].Votes
		case records.CategoryDonations:
			donations = snaps[i].Donations
		case records.CategoryPromises:
			promiseRecs = snaps[i].Promises
		}
	}

	analysis, err := o.analyze(ctx, subjectID, changes, votes, donations, promiseRecs)
	if err != nil {
		return "score", err
	}

	analysis.RedFlags = redflags.Evaluate(redflags.Context{
		SubjectID:             subjectID,
		Promises:              analysis.Promises,
		Influence:             analysis.Influence,
		MissedVoteRate:        scores.MissedVoteRate(votes),
		HasVoteData:           len(votes) > 0,
		PeerMissedVoteRate:    o.peerRate(subject),
		LastOutreachAt:        subject.LastOutreachAt,
		OutreachGapMonths:     o.outreachGapMonths,
		CriticalGapDays:       o.criticalGapDays,
		TopDonorConcentration: donations.TopDonorConcentration(influence.TopDonorCount),
		PACShare:              pacShare(donations),
		HasDonationData:       donations != nil && donations.Summary.TotalRaised > 0,
		Now:                   now,
	})
	analysis.UpdatedAt = now

	history, err := o.scores.History(ctx, subjectID)
	if err != nil {
		return "aggregate", err
	}

	score := scores.Aggregate(subjectID, o.inputs(subject, analysis, votes, donations), history, now)

	if stage, err := o.persist(ctx, subjectID, snaps, changes, analysis, score, now); err != nil {
		return stage, err
	}

	if err := o.revalidator.InvalidateSubject(ctx, subjectID, subject.State); err != nil {
		o.logger.Warn("revalidation failed", "subject", subjectID, "error", err)
	}

	o.logger.Info("subject scored",
		"subject", subjectID,
		"overall", score.Overall,
		"grade", score.Grade,
		"changed", changes.List(),
	)
	return "", nil
}

// analyze runs the engines whose inputs changed and reuses stored output
// for the rest. Red flags are left for the caller; they regenerate every
// run.
func (o *Orchestrator) analyze(
	ctx context.Context,
	subjectID string,
	changes snapshots.ChangeSet,
	votes []records.VoteEvent,
	donations *records.DonationSet,
	promiseRecs []records.PromiseRecord,
) (*scores.Analysis, error) {
	stored, err := o.scores.LoadAnalysis(ctx, subjectID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	analysis := &scores.Analysis{SubjectID: subjectID}

	if stored != nil && !changes.Has(records.CategoryVotes) && !changes.Has(records.CategoryDonations) {
		analysis.Influence = stored.Influence
	} else {
		analysis.Influence = o.influence.AnalyzeAll(subjectID, donations, votes)
	}

	if stored != nil && stored.Promises != nil &&
		!changes.Has(records.CategoryVotes) && !changes.Has(records.CategoryPromises) {
		analysis.Promises = stored.Promises
	} else {
		result, err := o.promises.Track(ctx, subjectID, promiseRecs, votes)
		if err != nil {
			return nil, err
		}
		analysis.Promises = result
	}

	return analysis, nil
}

// inputs derives the five component metrics for the aggregator.
func (o *Orchestrator) inputs(
	subject *subjects.Subject,
	analysis *scores.Analysis,
	votes []records.VoteEvent,
	donations *records.DonationSet,
) scores.Inputs {
	outreachFlagged := false
	for _, flag := range analysis.RedFlags {
		if flag.Type == redflags.TypeNoOutreach {
			outreachFlagged = true
			break
		}
	}

	promise := 0.0
	if analysis.Promises != nil {
		promise = analysis.Promises.Summary.Score
	}

	return scores.Inputs{
		Promise: promise,
		Transparency: scores.TransparencyScore(
			subject.TransparencyScore,
			hasContact(subject.Email),
			hasContact(subject.Phone),
			hasContact(subject.Website),
			outreachFlagged,
		),
		Alignment:         scores.AlignmentScore(subject.AlignmentScore),
		Attendance:        scores.AttendanceScore(votes),
		DonorIndependence: scores.DonorIndependenceScore(donations, analysis.Influence),
	}
}

// persist writes changed snapshots, the fingerprint index, the analysis,
// and the new score. Partial persistence is safe to retry: every write is
// a whole-object overwrite keyed by subject.
func (o *Orchestrator) persist(
	ctx context.Context,
	subjectID string,
	snaps []snapshots.Snapshot,
	changes snapshots.ChangeSet,
	analysis *scores.Analysis,
	score scores.Score,
	now time.Time,
) (string, error) {
	for i := range snaps {
		if !changes.Has(snaps[i].Category) {
			continue
		}
		if err := o.snapshots.Save(ctx, &snaps[i]); err != nil {
			return "persist", &PersistenceError{SubjectID: subjectID, Err: err}
		}
	}

	if err := o.snapshots.UpdateMeta(ctx, subjectID, snaps, now); err != nil {
		return "persist", &PersistenceError{SubjectID: subjectID, Err: err}
	}
	if err := o.scores.SaveAnalysis(ctx, analysis); err != nil {
		return "persist", &PersistenceError{SubjectID: subjectID, Err: err}
	}
	if err := o.scores.Append(ctx, score); err != nil {
		return "persist", &PersistenceError{SubjectID: subjectID, Err: err}
	}

	return "", nil
}

func (o *Orchestrator) peerRate(subject *subjects.Subject) float64 {
	if subject.PeerMissedVoteRate != nil {
		return *subject.PeerMissedVoteRate
	}
	return o.peerMissedVoteRate
}

func (o *Orchestrator) saveJob(ctx context.Context, tracker *jobs.Tracker) {
	snap := tracker.Snapshot()
	if err := o.jobs.Save(ctx, &snap); err != nil {
		o.logger.Warn("job progress save failed", "job", snap.ID, "error", err)
	}
}

func hasContact(v *string) bool {
	return v != nil && *v != ""
}

func pacShare(d *records.DonationSet) float64 {
	if d == nil {
		return 0
	}
	return d.Summary.PACShare()
}
