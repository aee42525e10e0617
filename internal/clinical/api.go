package clinical

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for clinical reports
type Handler struct {
	assembler *Assembler
	audit     audit.Log
}

// NewHandler creates a new clinical report handler
func NewHandler(assembler *Assembler, auditLog audit.Log) *Handler {
	return &Handler{assembler: assembler, audit: auditLog}
}

// Routes registers the clinical report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetReport)
	r.Get("/fill-rates", h.GetFillRates)

	return r
}

// GetReport builds and returns the full clinical report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.assembler.Build(r.Context())
	if err != nil {
		writeError(w, errors.IO(err, "failed to build clinical report"))
		return
	}

	if h.audit != nil {
		if user := auth.GetUser(r.Context()); user != nil {
			h.audit.Record(r.Context(), user.ID, user.Role, audit.ActionReportBuilt, "report", nil, map[string]any{
				"rows": len(report.Rows),
			})
		}
	}

	writeJSON(w, http.StatusOK, report)
}

// GetFillRates returns the per-column fill rates of the source data
func (h *Handler) GetFillRates(w http.ResponseWriter, r *http.Request) {
	data, err := Load(h.assembler.dataDir)
	if err != nil {
		writeError(w, errors.IO(err, "failed to load clinical data"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fill_rates": FillRates(data),
		"rows":       data.NumRows(),
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
