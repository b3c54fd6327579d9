package api

import (
	"github.com/opendocket/docket/internal/classify"
	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/influence"
	"github.com/opendocket/docket/internal/jobs"
	"github.com/opendocket/docket/internal/notify"
	"github.com/opendocket/docket/internal/pipeline"
	"github.com/opendocket/docket/internal/promises"
	"github.com/opendocket/docket/internal/providers"
	"github.com/opendocket/docket/internal/scores"
	"github.com/opendocket/docket/internal/snapshots"
	"github.com/opendocket/docket/internal/subjects"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Subjects subjects.System
	Scores   *scores.System
	Jobs     *jobs.Store
	Pipeline *pipeline.Orchestrator
}

// NewDomain creates all domain systems from the API runtime and wires the
// update pipeline to its collaborators.
func NewDomain(runtime *Runtime, cfg *config.Config) *Domain {
	subjectsSystem := subjects.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	snapshotsSystem := snapshots.NewSystem(runtime.Storage)
	scoresSystem := scores.NewSystem(runtime.Storage)
	jobsStore := jobs.NewStore(runtime.Storage)

	orchestrator := pipeline.NewOrchestrator(
		pipeline.Deps{
			Roster:    subjectsSystem,
			Feed:      providers.NewClient(&cfg.Providers, &cfg.Pipeline, runtime.Logger, runtime.Metrics),
			Snapshots: snapshotsSystem,
			Influence: influence.NewEngine(influence.Config{
				WindowDays: cfg.Pipeline.TimingWindowDays,
			}),
			Promises:    promises.NewTracker(classify.NewKeyword(), runtime.Logger),
			Scores:      scoresSystem,
			Jobs:        jobsStore,
			Revalidator: notify.NewRevalidator(&cfg.Notify, &cfg.Pipeline, runtime.Logger, runtime.Metrics),
			Lifecycle:   runtime.Lifecycle,
			Metrics:     runtime.Metrics,
		},
		&cfg.Pipeline,
		runtime.Logger,
	)

	return &Domain{
		Subjects: subjectsSystem,
		Scores:   scoresSystem,
		Jobs:     jobsStore,
		Pipeline: orchestrator,
	}
}
