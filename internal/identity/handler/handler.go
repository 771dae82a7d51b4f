// Package handler exposes session lifecycle endpoints: revocation for
// administrators and, in development only, a stand-in for the login front-end.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casestatus/internal/identity/models"
	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/httputil"
	"casestatus/pkg/requestcontext"
	"casestatus/pkg/validation"
)

// SessionService is satisfied by *service.Service.
type SessionService interface {
	CreateSession(ctx context.Context, userID id.UserID, userAgent string) (*models.Session, string, error)
	RevokeSession(ctx context.Context, sessionID id.SessionID) error
}

type Handler struct {
	service    SessionService
	cookieName string
	logger     *slog.Logger
}

func New(service SessionService, cookieName string, logger *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		cookieName: cookieName,
		logger:     logger,
	}
}

// RegisterAdmin mounts routes that must sit behind RequireAdmin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Delete("/admin/sessions/{session_id}", h.HandleRevokeSession)
}

// RegisterDev mounts the development login stand-in. Never mount it outside development.
func (h *Handler) RegisterDev(r chi.Router) {
	r.Post("/dev/sessions", h.HandleCreateSession)
}

type CreateSessionRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

func (r *CreateSessionRequest) Validate() error {
	return validation.Validate(r)
}

type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleCreateSession starts a session for the given user, returns its token
// and sets the session cookie.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndValidate[CreateSessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	session, token, err := h.service.CreateSession(ctx, userID, requestcontext.UserAgent(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create session",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: session.ID.String(),
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	})
}

// HandleRevokeSession revokes any session by ID.
func (h *Handler) HandleRevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RevokeSession(ctx, sessionID); err != nil {
		h.logger.WarnContext(ctx, "failed to revoke session",
			"error", err,
			"request_id", requestID,
			"session_id", sessionID.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
