package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/opendocket/docket/pkg/handlers"
	"github.com/opendocket/docket/pkg/routes"
	"github.com/opendocket/docket/pkg/storage"
)

// storageHandler exposes the raw document store for operators: listing keys
// by prefix and reading stored documents directly. Every persisted document
// is JSON (snapshots, metadata, analyses, score history, jobs).
type storageHandler struct {
	store       storage.System
	logger      *slog.Logger
	maxListSize int32
}

func newStorageHandler(runtime *Runtime, maxListSize int32) *storageHandler {
	return &storageHandler{
		store:       runtime.Storage,
		logger:      runtime.Logger.With("handler", "storage"),
		maxListSize: maxListSize,
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/{key...}", Handler: h.read},
		},
	}
}

func (h *storageHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	maxResults, err := storage.ParseMaxResults(q.Get("max_results"), h.maxListSize)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	keys, err := h.store.List(r.Context(), q.Get("prefix"), maxResults)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if keys == nil {
		keys = []string{}
	}
	handlers.RespondJSON(w, http.StatusOK, keys)
}

func (h *storageHandler) read(w http.ResponseWriter, r *http.Request) {
	body, err := h.store.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
