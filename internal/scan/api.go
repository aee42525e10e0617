package scan

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/events"
	"github.com/coviddx/platform/internal/shared/metrics"
	"github.com/coviddx/platform/internal/shared/types"
)

// Uploads are PNG only, matching what the predictor service accepts.
var allowedExtensions = map[string]bool{
	".png": true,
}

// Handler provides HTTP handlers for the scan module
type Handler struct {
	repo      *Repository
	storage   *Storage
	predictor *Predictor
	bus       *events.Bus
	audit     audit.Log
}

// NewHandler creates a new scan handler
func NewHandler(repo *Repository, storage *Storage, predictor *Predictor, bus *events.Bus, auditLog audit.Log) *Handler {
	return &Handler{repo: repo, storage: storage, predictor: predictor, bus: bus, audit: auditLog}
}

// Routes registers the scan routes. Uploading is restricted to admins;
// reads are open to the uploader.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequireAdmin).Post("/", h.Upload)
	r.Get("/", h.ListMine)
	r.Get("/{scanID}", h.GetScan)

	return r
}

// Upload stores a CT scan image, classifies it through the predictor
// and persists the result. The stored file and the database record are
// kept consistent: a failed prediction removes the file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, errors.BadRequest("image file is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, errors.Validation("unsupported image format", map[string]string{
			"image": "only png images are accepted",
		}))
		return
	}

	id := types.NewID()
	path, hash, size, err := h.storage.Save(id, header.Filename, file)
	if err != nil {
		writeError(w, errors.IO(err, "failed to store scan image"))
		return
	}

	stored, err := h.storage.Open(path)
	if err != nil {
		h.storage.Remove(path)
		writeError(w, errors.IO(err, "failed to read stored scan image"))
		return
	}
	defer stored.Close()

	prediction, err := h.predictor.Predict(r.Context(), header.Filename, stored)
	if err != nil {
		h.storage.Remove(path)
		writeError(w, err)
		return
	}

	scan := &Scan{
		ID:         id,
		FileName:   header.Filename,
		FilePath:   path,
		FileHash:   hash,
		FileSize:   size,
		Label:      prediction.Label,
		Confidence: prediction.Confidence,
		UploadedBy: user.ID,
	}

	if err := h.repo.Create(r.Context(), scan); err != nil {
		h.storage.Remove(path)
		writeError(w, err)
		return
	}

	metrics.RecordScanClassified(scan.Label)

	if h.bus != nil {
		event := events.NewEvent("scan.classified", "scan", map[string]any{
			"scan_id":   scan.ID.String(),
			"label":     scan.Label,
			"file_hash": scan.FileHash,
		}).WithActor(user.ID, user.Role)
		h.bus.Publish(r.Context(), event)
	}

	h.recordClassified(r.Context(), user, scan)

	writeJSON(w, http.StatusCreated, scan)
}

// recordClassified appends the classification to the audit chain. The
// upload succeeds even when the chain write fails.
func (h *Handler) recordClassified(ctx context.Context, user *auth.User, scan *Scan) {
	if h.audit == nil {
		return
	}

	scanID := scan.ID
	h.audit.Record(ctx, user.ID, user.Role, audit.ActionScanClassified, "scan", &scanID, map[string]any{
		"label":     scan.Label,
		"file_hash": scan.FileHash,
	})
}

// GetScan returns a scan. Users see only their own uploads; admins see
// all.
func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "scanID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid scan ID"))
		return
	}

	scan, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if scan.UploadedBy != user.ID && !user.IsAdmin() {
		writeError(w, errors.Forbidden("not your scan"))
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// ListMine lists the caller's uploads
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	scans, err := h.repo.ListByUploader(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  scans,
		"total": len(scans),
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
