package scores

import (
	"log/slog"
	"net/http"

	"github.com/opendocket/docket/pkg/handlers"
	"github.com/opendocket/docket/pkg/routes"
	"github.com/opendocket/docket/pkg/storage"
)

// Report is the public accountability view of one subject: the engines'
// last persisted output plus the full score history, newest last.
type Report struct {
	SubjectID string    `json:"subject_id"`
	Analysis  *Analysis `json:"analysis"`
	History   []Score   `json:"history"`
}

// Handler provides the HTTP endpoint for subject accountability reports.
type Handler struct {
	sys    *System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys *System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "scores"),
	}
}

// Routes returns the route group definition for report endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/subjects",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/report", Handler: h.Report},
		},
	}
}

// Report returns a subject's last analysis and score history. A subject
// that has never completed a scored run yields 404.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")

	analysis, err := h.sys.LoadAnalysis(r.Context(), subjectID)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	history, err := h.sys.History(r.Context(), subjectID)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Report{
		SubjectID: subjectID,
		Analysis:  analysis,
		History:   history,
	})
}
