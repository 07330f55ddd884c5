package usecases

import (
	"context"
	"errors"
	"proyecto_reservas/internal/entities"
	"sync"
)

type sentMessage struct {
	Kind       string // "text" or "document"
	Credential string
	ChatID     string
	Text       string
	Keyboard   *entities.Keyboard
	Document   string
}

type fakeMessenger struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn map[int]error // call index (0-based) -> error
	calls  int
}

func (m *fakeMessenger) record(msg sentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	m.calls++
	if err, ok := m.failOn[idx]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) SendText(ctx context.Context, credential, chatID, text string, keyboard *entities.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.record(sentMessage{Kind: "text", Credential: credential, ChatID: chatID, Text: text, Keyboard: keyboard})
}

func (m *fakeMessenger) SendDocument(ctx context.Context, credential, chatID, documentRef, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.record(sentMessage{Kind: "document", Credential: credential, ChatID: chatID, Text: caption, Document: documentRef})
}

func (m *fakeMessenger) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

type fakeWebhookAPI struct {
	setCalls []struct{ Credential, URL, Secret string }
	status   entities.WebhookStatus
	err      error
}

func (f *fakeWebhookAPI) SetWebhook(_ context.Context, credential, url, secret string) error {
	f.setCalls = append(f.setCalls, struct{ Credential, URL, Secret string }{credential, url, secret})
	return f.err
}

func (f *fakeWebhookAPI) GetWebhook(_ context.Context, _ string) (entities.WebhookStatus, error) {
	return f.status, f.err
}

var errStoreDown = errors.New("store unavailable")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Get(context.Context, entities.SessionKey) (*entities.Session, error) {
	return nil, errStoreDown
}
func (brokenStore) Put(context.Context, entities.SessionKey, *entities.Session) error {
	return errStoreDown
}
func (brokenStore) Delete(context.Context, entities.SessionKey) error { return errStoreDown }

type fakeRecorder struct {
	mu      sync.Mutex
	created []entities.Reservation
	err     error
}

func (r *fakeRecorder) Create(_ context.Context, res *entities.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, *res)
	return nil
}

func (r *fakeRecorder) ListByTenant(_ context.Context, tenantID string, limit int) ([]entities.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Reservation
	for _, res := range r.created {
		if res.TenantID == tenantID {
			out = append(out, res)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
