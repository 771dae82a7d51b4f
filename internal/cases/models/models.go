package models

import (
	"time"

	id "casestatus/pkg/domain"
)

type Status string

const (
	StatusReceived  Status = "received"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// CaseQuery is a compound key: both fields must match the same record.
type CaseQuery struct {
	RegistrationNumber string `json:"registration_number"`
	Nationality        string `json:"nationality"`
}

// CaseRecord is owned by the case-data collaborator; this service only reads it.
type CaseRecord struct {
	ID                 id.CaseID `json:"id"`
	FullName           string    `json:"full_name"`
	RegistrationNumber string    `json:"registration_number"`
	Nationality        string    `json:"nationality"`
	Status             Status    `json:"status"`
	StatusDetail       string    `json:"status_detail,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Matches reports whether both key fields equal the query exactly.
func (r *CaseRecord) Matches(q CaseQuery) bool {
	return r != nil &&
		r.RegistrationNumber == q.RegistrationNumber &&
		r.Nationality == q.Nationality
}

// LookupResult is either Found(record) or NotFound(query). The zero value is
// NotFound for an empty query.
type LookupResult struct {
	record *CaseRecord
	query  CaseQuery
}

func Found(record *CaseRecord) LookupResult {
	return LookupResult{record: record}
}

// NotFound keeps the query exactly as supplied so it can be echoed back.
func NotFound(query CaseQuery) LookupResult {
	return LookupResult{query: query}
}

func (r LookupResult) IsFound() bool {
	return r.record != nil
}

// Record is nil for NotFound.
func (r LookupResult) Record() *CaseRecord {
	return r.record
}

// Query is the zero value for Found.
func (r LookupResult) Query() CaseQuery {
	return r.query
}

// MissReason records why a lookup ended in NotFound. It is for logs, metrics
// and audit only; callers always see the same NotFound.
type MissReason string

const (
	MissNone         MissReason = ""
	MissNoMatch      MissReason = "no_match"
	MissAmbiguous    MissReason = "ambiguous"
	MissBackendError MissReason = "backend_error"
	MissMismatch     MissReason = "mismatch"
)

// Label is the metric label for the reason; "none" for hits.
func (r MissReason) Label() string {
	if r == MissNone {
		return "none"
	}
	return string(r)
}
