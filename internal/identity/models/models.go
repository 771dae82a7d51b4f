package models

import (
	"fmt"
	"time"

	id "casestatus/pkg/domain"
	"casestatus/pkg/platform/sentinel"
)

type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session is an authenticated browser session created by the login
// front-end. This service only reads and revokes sessions.
type Session struct {
	ID     id.SessionID
	UserID id.UserID
	Status SessionStatus

	// DeviceDisplayName is derived from the User-Agent at login, e.g. "Chrome on macOS".
	DeviceDisplayName string

	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

func (s *Session) IsRevoked() bool {
	return s.Status == SessionStatusRevoked || s.RevokedAt != nil
}

// IsExpired treats the expiry instant itself as expired.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Revoke marks the session revoked. It is idempotent and keeps the first revocation time.
func (s *Session) Revoke(now time.Time) {
	if s.RevokedAt == nil {
		revokedAt := now
		s.RevokedAt = &revokedAt
	}
	s.Status = SessionStatusRevoked
}

// CheckUsable returns nil only for an active, unexpired, unrevoked session.
func (s *Session) CheckUsable(now time.Time) error {
	switch {
	case s.IsRevoked():
		return fmt.Errorf("session %s: %w", s.ID, sentinel.ErrRevoked)
	case !s.IsActive():
		return fmt.Errorf("session %s status %q: %w", s.ID, s.Status, sentinel.ErrInvalidState)
	case s.IsExpired(now):
		return fmt.Errorf("session %s: %w", s.ID, sentinel.ErrExpired)
	}
	return nil
}
