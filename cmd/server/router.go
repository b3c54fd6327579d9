package main

import (
	"encoding/json"
	"net/http"

	"github.com/opendocket/docket/internal/api"
	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/infrastructure"
	"github.com/opendocket/docket/pkg/module"
)

// assembleRouter mounts the API module and registers the operational
// endpoints served outside any module prefix.
func assembleRouter(infra *infrastructure.Infrastructure, cfg *config.Config) (*module.Router, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	router := module.NewRouter()
	router.Mount(apiModule)

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})

	router.HandleFunc("GET /metrics", infra.Metrics.Handler().ServeHTTP)

	return router, nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
