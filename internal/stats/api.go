package stats

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coviddx/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the statistics module. All routes
// are public; the feed carries no patient data.
type Handler struct {
	client *Client
}

// NewHandler creates a new statistics handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Routes registers the statistics routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/current", h.GetCurrent)
	r.Get("/totals", h.GetTotals)

	return r
}

// GetCurrent returns the per-state statistics snapshot
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.client.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// GetTotals returns the nationwide aggregate
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.client.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source": snapshot.Source,
		"totals": snapshot.Aggregate(),
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
