package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dkravets/finbot/internal/session"
	"github.com/dkravets/finbot/internal/store"
)

// SessionHandler exposes session state for a given Telegram user, plus an
// on-demand timeout check mirroring what the background sweeper does.
type SessionHandler struct {
	repo    store.Repository
	manager *session.Manager
}

// NewSessionHandler creates a new session inspection handler.
func NewSessionHandler(repo store.Repository, manager *session.Manager) *SessionHandler {
	return &SessionHandler{repo: repo, manager: manager}
}

// RegisterRoutes registers session inspection routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/users/{telegramID}/session", h.GetSession)
	r.Post("/api/users/{telegramID}/session/check", h.CheckTimeout)
}

func telegramIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "telegramID"), 10, 64)
	return id, err == nil
}

// GetSession returns the user's active session snapshot, or 404 when the
// user is unknown or has no active session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := telegramIDParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	user, err := h.repo.GetUserByTelegramID(r.Context(), telegramID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "user not found")
		return
	}

	sess, err := h.repo.GetActiveSession(r.Context(), user.ID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "no active session")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session":   sess,
		"idle_for":  sess.IdleFor(time.Now()).String(),
		"time_left": sess.TimeLeft(h.manager.Timeout(), time.Now()).String(),
	})
}

// CheckTimeout runs the synchronous single-user expiry check. When the
// session had expired it is ended and the owner notified, exactly as the
// background sweep would do.
func (h *SessionHandler) CheckTimeout(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := telegramIDParam(r)
	if !ok {
		Error(w, http.StatusBadRequest, "invalid telegram id")
		return
	}

	expired, err := h.manager.CheckTimeout(r.Context(), telegramID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"expired": expired})
}
