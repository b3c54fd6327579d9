// Package api assembles the API module: a scoped runtime, the domain
// systems, and the HTTP routes they expose.
package api

import (
	"net/http"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/infrastructure"
	"github.com/opendocket/docket/pkg/middleware"
	"github.com/opendocket/docket/pkg/module"
	"github.com/opendocket/docket/pkg/pagination"
)

// Runtime bundles the shared infrastructure, scoped for API logging, with
// the paging bounds list handlers enforce.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime scopes infra to the API module and attaches its paging bounds.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: infra.Scoped("api"),
		Pagination:     cfg.API.Pagination,
	}
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
