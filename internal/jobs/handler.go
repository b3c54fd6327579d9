package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/opendocket/docket/pkg/handlers"
	"github.com/opendocket/docket/pkg/routes"
	"github.com/opendocket/docket/pkg/storage"
)

// DefaultListLimit bounds GET /jobs when no limit is given.
const DefaultListLimit = 50

// Runner starts a batch run over the given subjects and returns the
// pending job immediately. An empty id list means every active subject.
type Runner interface {
	RunBatch(ctx context.Context, subjectIDs []string) (*Job, error)
}

// CreateRequest is the POST /jobs body.
type CreateRequest struct {
	SubjectIDs []string `json:"subject_ids,omitempty"`
}

// Handler provides HTTP endpoints for starting and polling batch runs.
type Handler struct {
	runner Runner
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a Handler with the given runner, store, and logger.
func NewHandler(runner Runner, store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		runner: runner,
		store:  store,
		logger: logger.With("handler", "jobs"),
	}
}

// Routes returns the route group definition for job endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/jobs",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

// Create starts a batch run and responds 202 with the pending job. An
// empty or absent subject list runs every active subject.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid job request: %w", err))
			return
		}
	}

	job, err := h.runner.RunBatch(r.Context(), req.SubjectIDs)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, job)
}

// Find returns a job record by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, job)
}

// List returns recent jobs, newest first, honoring the limit query
// parameter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	list, err := h.store.List(r.Context(), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}
