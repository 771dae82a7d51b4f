package audit

import (
	"time"

	"github.com/google/uuid"

	id "casestatus/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	UserID    id.UserID `json:"-"`

	// Subject names what the action was about: a user ID for gate decisions,
	// a hashed registration number for case lookups.
	Subject   string `json:"subject,omitempty"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"` // anonymized prefix only
	Device    string `json:"device,omitempty"`
}

// UserIDString returns the user ID, or "" when the event has none.
func (e Event) UserIDString() string {
	if e.UserID.IsNil() {
		return ""
	}
	return e.UserID.String()
}

type AuditEvent string

const (
	EventAdminAccessGranted AuditEvent = "admin_access_granted"
	EventAdminAccessDenied  AuditEvent = "admin_access_denied"
	EventCaseLookup         AuditEvent = "case_lookup"
	EventSessionCreated     AuditEvent = "session_created"
	EventSessionRevoked     AuditEvent = "session_revoked"
)
