package entities

import "time"

// Reservation is a confirmed booking request.
type Reservation struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	ConversationID string    `json:"conversation_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	People         int       `json:"people"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	CreatedAt      time.Time `json:"created_at"`
}

// WebhookStatus is the registration state reported by the platform.
type WebhookStatus struct {
	TenantID           string `json:"tenant_id"`
	ExpectedURL        string `json:"expected_url"`
	URL                string `json:"url"`
	Registered         bool   `json:"registered"`
	PendingUpdateCount int    `json:"pending_update_count"`
	LastErrorDate      int    `json:"last_error_date,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}
