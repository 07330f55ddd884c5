package interfaces

import (
	"context"
	"proyecto_reservas/internal/entities"
)

// Messenger is the send-only side of the chat platform.
type Messenger interface {
	SendText(ctx context.Context, credential, chatID, text string, keyboard *entities.Keyboard) error
	SendDocument(ctx context.Context, credential, chatID, documentRef, caption string) error
}

// WebhookAPI manages where the platform delivers updates for a bot.
type WebhookAPI interface {
	SetWebhook(ctx context.Context, credential, url, secret string) error
	GetWebhook(ctx context.Context, credential string) (entities.WebhookStatus, error)
}

// SessionStore keeps the in-progress flow per (tenant, conversation).
// Get returns nil, nil when no session exists or it expired. Delete is idempotent.
type SessionStore interface {
	Get(ctx context.Context, key entities.SessionKey) (*entities.Session, error)
	Put(ctx context.Context, key entities.SessionKey, session *entities.Session) error
	Delete(ctx context.Context, key entities.SessionKey) error
}

// ReservationRecorder persists confirmed reservations.
type ReservationRecorder interface {
	Create(ctx context.Context, r *entities.Reservation) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]entities.Reservation, error)
}
