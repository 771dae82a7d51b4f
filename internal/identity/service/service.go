// Package service resolves the caller's session for the admin gate and
// manages the session lifecycle used by the seeder and token tooling.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"casestatus/internal/audit"
	"casestatus/internal/identity/device"
	"casestatus/internal/identity/models"
	"casestatus/internal/identity/token"
	id "casestatus/pkg/domain"
	dErrors "casestatus/pkg/domain-errors"
	"casestatus/pkg/platform/sentinel"
	"casestatus/pkg/requestcontext"
)

// SessionStore persists sessions.
// Error Contract: FindByID and Revoke return sentinel.ErrNotFound (wrapped) for unknown sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Revoke(ctx context.Context, sessionID id.SessionID, now time.Time) error
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// TokenCodec signs and validates session tokens.
type TokenCodec interface {
	Issue(ctx context.Context, userID id.UserID, sessionID id.SessionID, expiresAt time.Time) (string, error)
	Validate(tokenString string) (*token.Claims, error)
}

// AuditLogger is satisfied by *audit.Logger.
type AuditLogger interface {
	Log(ctx context.Context, event audit.Event)
}

const defaultSessionTTL = 8 * time.Hour

type Service struct {
	sessions   SessionStore
	tokens     TokenCodec
	sessionTTL time.Duration
	logger     *slog.Logger
	auditLog   AuditLogger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditLogger(a AuditLogger) Option {
	return func(s *Service) {
		s.auditLog = a
	}
}

// WithSessionTTL configures the lifetime of created sessions. Non-positive values keep the default.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func New(sessions SessionStore, tokens TokenCodec, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if tokens == nil {
		return nil, errors.New("token codec is required")
	}
	svc := &Service{
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// CurrentSession validates the token carried by the request and returns the
// live session it names. Authentication failures carry CodeUnauthorized;
// session store failures carry CodeUnavailable.
func (s *Service) CurrentSession(ctx context.Context) (*models.Session, error) {
	raw := requestcontext.SessionToken(ctx)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing session token")
	}

	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.logFailure(ctx, "token_invalid", err)
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, err
		}
		return nil, &dErrors.Error{Code: dErrors.CodeUnauthorized, Message: "invalid token", Err: err}
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		s.logFailure(ctx, "subject_invalid", err)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		s.logFailure(ctx, "session_id_invalid", err)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logFailure(ctx, "session_not_found", err)
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "session not found")
		}
		s.logger.ErrorContext(ctx, "session lookup failed",
			"session_id", sessionID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "session store unavailable")
	}

	if session.UserID != userID {
		s.logFailure(ctx, "subject_mismatch", nil)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session")
	}
	if err := session.CheckUsable(requestcontext.Now(ctx)); err != nil {
		s.logFailure(ctx, "session_unusable", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, sessionFailureMessage(err))
	}
	return session, nil
}

// CreateSession starts a session for userID and returns it with its signed token.
func (s *Service) CreateSession(ctx context.Context, userID id.UserID, userAgent string) (*models.Session, string, error) {
	if userID.IsNil() {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:                id.SessionID(uuid.New()),
		UserID:            userID,
		Status:            models.SessionStatusActive,
		DeviceDisplayName: device.ParseUserAgent(userAgent),
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.sessionTTL),
	}

	signed, err := s.tokens.Issue(ctx, userID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save session")
	}

	s.logger.InfoContext(ctx, "session created",
		"user_id", userID.String(),
		"session_id", session.ID.String(),
		"device", session.DeviceDisplayName,
	)
	s.audit(ctx, audit.Event{
		Action:  string(audit.EventSessionCreated),
		UserID:  userID,
		Subject: session.ID.String(),
		Outcome: "created",
		Device:  session.DeviceDisplayName,
	})
	return session, signed, nil
}

// RevokeSession revokes a session. Revoking an already revoked session succeeds.
func (s *Service) RevokeSession(ctx context.Context, sessionID id.SessionID) error {
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke session")
	}
	s.logger.InfoContext(ctx, "session revoked", "session_id", sessionID.String())
	s.audit(ctx, audit.Event{
		Action:  string(audit.EventSessionRevoked),
		UserID:  requestcontext.UserID(ctx),
		Subject: sessionID.String(),
		Outcome: "revoked",
	})
	return nil
}

// CountActive reports how many sessions are usable right now.
func (s *Service) CountActive(ctx context.Context) (int, error) {
	count, err := s.sessions.CountActive(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count sessions")
	}
	return count, nil
}

func (s *Service) audit(ctx context.Context, event audit.Event) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.Log(ctx, event)
}

func (s *Service) logFailure(ctx context.Context, reason string, err error) {
	args := []any{
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	}
	if err != nil {
		args = append(args, "error", err)
	}
	s.logger.WarnContext(ctx, "session rejected", args...)
}

func sessionFailureMessage(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrRevoked):
		return "session revoked"
	case errors.Is(err, sentinel.ErrExpired):
		return "session expired"
	default:
		return "session not usable"
	}
}
