package model

import (
	"time"
)

// Webhook is one outbound notification target.
// Delivery bookkeeping fields reflect only the most recent attempt.
type Webhook struct {
	ID         int64    `json:"id" db:"id"`
	URL        string   `json:"url" db:"url"`
	EventTypes []string `json:"event_types" db:"event_types"` // JSONB
	Enabled    bool     `json:"enabled" db:"enabled"`

	LastTriggeredAt    *time.Time `json:"last_triggered_at" db:"last_triggered_at"`
	LastResponseStatus *int       `json:"last_response_status" db:"last_response_status"`
	LastResponseTimeMs *int64     `json:"last_response_time_ms" db:"last_response_time_ms"`
	LastError          *string    `json:"last_error" db:"last_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Subscribed reports whether the webhook listens for eventType.
func (w *Webhook) Subscribed(eventType string) bool {
	for _, t := range w.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// DeliveryResult is the outcome of one delivery attempt, written back onto
// the webhook row (last attempt only, no history).
type DeliveryResult struct {
	Status     *int
	DurationMs *int64
	Error      *string
	At         time.Time
}
