package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/barakah/internal/assistant"
	"github.com/Dan9191/barakah/internal/auth"
	"github.com/Dan9191/barakah/internal/models"
	"github.com/Dan9191/barakah/internal/repository"
	"github.com/Dan9191/barakah/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	maxJSONBody    = 1 << 20
	maxArchiveBody = 16 << 20
	maxPendingWait = 30 * time.Second
)

// Authenticator registers users and manages the device session
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

type Handler struct {
	svc  *service.Service
	auth Authenticator
	log  *logrus.Logger
}

func NewHandler(svc *service.Service, authn Authenticator, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, auth: authn, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a service error onto a status code
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrEmptyCommand),
		errors.Is(err, auth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, assistant.ErrNoUser):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.WithField("path", r.URL.Path).Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.svc.ResetSession()
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.svc.ResetSession()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.CurrentUser(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type commandRequest struct {
	Text string `json:"text"`
}

// Command parses and executes a free-text command
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.svc.HandleCommand(r.Context(), req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Result.Pending != nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// PendingCommand waits up to ?wait seconds for a background command
func (h *Handler) PendingCommand(w http.ResponseWriter, r *http.Request) {
	wait := 0 * time.Second
	if raw := r.URL.Query().Get("wait"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			writeError(w, http.StatusBadRequest, "wait must be a non-negative number of seconds")
			return
		}
		wait = min(time.Duration(secs)*time.Second, maxPendingWait)
	}

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()
	res, err := h.svc.Pending(ctx, mux.Vars(r)["id"])
	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending"})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	cmd, err := h.svc.Parse(req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Sync(r.Context())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	at, ok, err := h.svc.LastSync(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := map[string]any{"synced": ok}
	if ok {
		resp["lastSync"] = at
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Pull(r.Context())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func (h *Handler) Finances(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Finances(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) ExchangeRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.ExchangeRate(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"exchange_rate": rate})
}

func (h *Handler) RefreshExchangeRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.RefreshExchangeRate(r.Context())
	if err != nil {
		h.log.Errorf("Failed to refresh exchange rate: %v", err)
		writeError(w, http.StatusBadGateway, "failed to refresh exchange rate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"exchange_rate": rate})
}

func (h *Handler) PrayerTimes(w http.ResponseWriter, r *http.Request) {
	times, err := h.svc.PrayerTimes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, times)
}

func (h *Handler) RefreshPrayerTimes(w http.ResponseWriter, r *http.Request) {
	times, err := h.svc.RefreshPrayerTimes(r.Context())
	if err != nil {
		h.log.Errorf("Failed to refresh prayer times: %v", err)
		writeError(w, http.StatusBadGateway, "failed to refresh prayer times")
		return
	}
	writeJSON(w, http.StatusOK, times)
}

// Backup downloads a signed archive of the local store
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	archive, err := h.svc.ExportBackup(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="barakah-backup.json"`)
	w.Write(archive)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArchiveBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read archive")
		return
	}
	env, err := h.svc.RestoreBackup(r.Context(), raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"restored":   true,
		"exportDate": env.ExportDate,
		"userId":     env.UserID,
	})
}
