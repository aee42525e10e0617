package account

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/errors"
	"github.com/coviddx/platform/internal/shared/events"
	"github.com/coviddx/platform/internal/shared/metrics"
	"github.com/coviddx/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the account module
type Handler struct {
	repo  *Repository
	bus   *events.Bus
	audit audit.Log
	cfg   config.AuthConfig
}

// NewHandler creates a new account handler
func NewHandler(repo *Repository, bus *events.Bus, auditLog audit.Log, cfg config.AuthConfig) *Handler {
	return &Handler{repo: repo, bus: bus, audit: auditLog, cfg: cfg}
}

// PublicRoutes registers the unauthenticated registration and login
// routes. Mounted outside the token middleware.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	return r
}

// AdminRoutes registers the account administration routes. Mounted
// behind the token middleware plus the admin guard.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListAccounts)
	r.Post("/{accountID}/activate", h.Activate)

	return r
}

// Register creates a new pending account
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if details := validateRegistration(req); len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to hash password"))
		return
	}

	account := &Account{
		ID:           types.NewID(),
		Name:         req.Name,
		LoginID:      req.LoginID,
		Email:        req.Email,
		Mobile:       req.Mobile,
		Locality:     req.Locality,
		Address:      req.Address,
		City:         req.City,
		Role:         RoleUser,
		Status:       StatusPending,
		PasswordHash: string(hash),
	}

	if err := h.repo.Create(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordAccountRegistered()

	if h.bus != nil {
		event := events.NewEvent("account.registered", "account", map[string]any{
			"account_id": account.ID.String(),
			"login_id":   account.LoginID,
		})
		h.bus.Publish(r.Context(), event)
	}

	h.record(r.Context(), account.ID, string(account.Role), audit.ActionAccountRegistered, account.ID, map[string]any{
		"login_id": account.LoginID,
	})

	writeJSON(w, http.StatusCreated, account)
}

// Login authenticates an activated account and issues a token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.LoginID == "" || req.Password == "" {
		writeError(w, errors.BadRequest("login_id and password are required"))
		return
	}

	account, err := h.repo.GetByLoginID(r.Context(), req.LoginID)
	if err != nil {
		// Do not reveal whether the login exists.
		writeError(w, errors.Unauthorized("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, errors.Unauthorized("invalid credentials"))
		return
	}

	if !account.IsActivated() {
		writeError(w, errors.Forbidden("account is awaiting activation"))
		return
	}

	token, err := auth.IssueToken(h.cfg, account.ID, account.Name, account.LoginID, string(account.Role))
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to issue token"))
		return
	}

	h.record(r.Context(), account.ID, string(account.Role), audit.ActionAccountLogin, account.ID, nil)

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Account: account})
}

// ListAccounts lists accounts, optionally filtered by status or role
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		filter.Status = &status
	}
	if ro := r.URL.Query().Get("role"); ro != "" {
		role := Role(ro)
		filter.Role = &role
	}

	accounts, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  accounts,
		"total": len(accounts),
	})
}

// Activate transitions a pending account to activated
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid account ID"))
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), id, StatusActivated); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("account.activated", "account", map[string]any{
			"account_id": id.String(),
		})
		if admin := auth.GetUser(r.Context()); admin != nil {
			event = event.WithActor(admin.ID, admin.Role)
		}
		h.bus.Publish(r.Context(), event)
	}

	actorID := id
	actorRole := "system"
	if admin := auth.GetUser(r.Context()); admin != nil {
		actorID = admin.ID
		actorRole = admin.Role
	}
	h.record(r.Context(), actorID, actorRole, audit.ActionAccountActivated, id, nil)

	writeJSON(w, http.StatusOK, map[string]string{
		"id":     id.String(),
		"status": string(StatusActivated),
	})
}

// record appends an account action to the audit chain. Failures do not
// fail the request.
func (h *Handler) record(ctx context.Context, actorID types.ID, actorRole, action string, accountID types.ID, details map[string]any) {
	if h.audit == nil {
		return
	}
	h.audit.Record(ctx, actorID, actorRole, action, "account", &accountID, details)
}

func validateRegistration(req RegisterRequest) map[string]string {
	details := map[string]string{}
	if req.Name == "" {
		details["name"] = "name is required"
	}
	if req.LoginID == "" {
		details["login_id"] = "login_id is required"
	}
	if req.Email == "" {
		details["email"] = "email is required"
	}
	if req.Mobile == "" {
		details["mobile"] = "mobile is required"
	}
	if len(req.Password) < 8 {
		details["password"] = "password must be at least 8 characters"
	}
	return details
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
