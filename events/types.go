package events

import (
	"time"

	"github.com/brojonat/txconfirm/confirm"
)

// ConfirmationEvent represents a settled confirmation attempt published to
// NATS. It is published to the subject "confirmations.{signature}" in
// JetStream.
type ConfirmationEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`
	Lifetime  string `json:"lifetime"` // "recent" or "durable_nonce"

	// Wait parameters and result
	Commitment string `json:"commitment"`
	Outcome    string `json:"outcome"` // confirmed | invalidated | aborted | error
	Error      string `json:"error,omitempty"`

	// Timing information
	StartedAt  time.Time `json:"started_at"`
	SettledAt  time.Time `json:"settled_at"`
	DurationMS int64     `json:"duration_ms"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// NewConfirmationEvent builds a ConfirmationEvent from a settled wait.
func NewConfirmationEvent(signature, lifetime, commitment string, startedAt, settledAt time.Time, err error) *ConfirmationEvent {
	event := &ConfirmationEvent{
		Signature:   signature,
		Lifetime:    lifetime,
		Commitment:  commitment,
		Outcome:     confirm.Outcome(err),
		StartedAt:   startedAt,
		SettledAt:   settledAt,
		DurationMS:  settledAt.Sub(startedAt).Milliseconds(),
		PublishedAt: time.Now().UTC(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	return event
}
