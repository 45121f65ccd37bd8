package domain

import (
	"encoding/json"
	"time"
)

// ShareRecord is a patient document published under an opaque share id.
//
// A record is created once by a successful ingestion and never updated.
// It is readable any number of times while live and must never be
// returned once ExpiresAt has passed.
type ShareRecord struct {
	// ShareID is the 32 char lowercase hex token that addresses the record.
	ShareID string

	// Payload is the patient document exactly as it was accepted.
	Payload json.RawMessage

	// CreatedAt is set by the store at insertion.
	CreatedAt time.Time

	// ExpiresAt is CreatedAt + TTL, always strictly after CreatedAt.
	ExpiresAt time.Time
}

// Live reports whether the record may still be served at now.
func (r *ShareRecord) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// WebhookAttempt is one audit entry for an ingestion attempt.
// Entries are append-only; retention is handled outside this service.
type WebhookAttempt struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Payload       string    `json:"payload"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failureReason,omitempty"`
	ClientKey     string    `json:"clientKey,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UnknownSource labels attempts whose body could not be parsed.
const UnknownSource = "unknown"
