package audit

import "time"

// Auth event types.
const (
	EventLoginSuccess           = "login_success"
	EventLoginFailed            = "login_failed"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordResetFailed    = "password_reset_delivery_failed"
	EventPasswordResetCompleted = "password_reset_completed"
)

// Event records a security relevant action on an account.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	AccountID  uint              `json:"account_id,omitempty"`
	Email      string            `json:"email"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
