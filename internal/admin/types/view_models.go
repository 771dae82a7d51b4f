package types

import (
	"time"

	id "casestatus/pkg/domain"
)

// Session contains the session fields the gate needs.
// This is an admin-local DTO to avoid coupling to identity models.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	Device    string
	ExpiresAt time.Time
}
