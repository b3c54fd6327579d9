package api

import (
	"net/http"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/jobs"
	"github.com/opendocket/docket/internal/scores"
	"github.com/opendocket/docket/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Subjects.Handler().Routes(),
		jobs.NewHandler(domain.Pipeline, domain.Jobs, runtime.Logger).Routes(),
		scores.NewHandler(domain.Scores, runtime.Logger).Routes(),
		newStorageHandler(runtime, cfg.Storage.MaxListSize).routes(),
	)
}
