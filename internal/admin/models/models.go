package models

import (
	"time"

	id "casestatus/pkg/domain"
)

type Role string

const RoleAdmin Role = "admin"

// AdminRecord is an entry in the administrator registry. Its ID is the
// identity the session resolves to.
type AdminRecord struct {
	ID          id.UserID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type Outcome string

const (
	OutcomeGranted Outcome = "granted"
	OutcomeDenied  Outcome = "denied"
)

// Reason explains a denial internally. Callers never see it; every denial
// looks the same from outside.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotAdmin        Reason = "not_admin"
	ReasonRegistryError   Reason = "registry_error"
)

// Decision is the result of an access check. Admin is set only when granted.
type Decision struct {
	Outcome Outcome
	Admin   *AdminRecord
	Reason  Reason
}

func Granted(admin *AdminRecord) Decision {
	return Decision{Outcome: OutcomeGranted, Admin: admin}
}

func Denied(reason Reason) Decision {
	return Decision{Outcome: OutcomeDenied, Reason: reason}
}

func (d Decision) IsGranted() bool {
	return d.Outcome == OutcomeGranted && d.Admin != nil
}

// ReasonLabel is the metric label for the decision; "none" when granted.
func (d Decision) ReasonLabel() string {
	if d.Reason == ReasonNone {
		return "none"
	}
	return string(d.Reason)
}
