package usecases

import (
	"context"
	"crypto/subtle"
	"fmt"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"proyecto_reservas/internal/interfaces"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ConversationLocker serializes work on a single conversation key.
type ConversationLocker interface {
	Lock(key string) (unlock func())
}

// UpdateTracker remembers processed update ids.
type UpdateTracker interface {
	Seen(key string) bool
	Mark(key string)
}

// UpdateResult describes what happened to one inbound update.
type UpdateResult struct {
	Outcome   Outcome
	Ignored   bool // nothing to handle (no text or no chat)
	Duplicate bool // update id already processed
	Dispatch  DispatchReport
}

// WebhookService is the entry point for inbound platform updates:
// tenant resolution, secret check, the locked session transition and dispatch.
type WebhookService struct {
	tenants    *TenantRegistry
	engine     *ConversationEngine
	sessions   interfaces.SessionStore
	dispatcher *NotificationDispatcher
	locker     ConversationLocker
	dedupe     UpdateTracker
	recorder   interfaces.ReservationRecorder
	logger     *logrus.Logger
}

type WebhookServiceDeps struct {
	Tenants    *TenantRegistry
	Engine     *ConversationEngine
	Sessions   interfaces.SessionStore
	Dispatcher *NotificationDispatcher
	Locker     ConversationLocker
	Dedupe     UpdateTracker                  // optional
	Recorder   interfaces.ReservationRecorder // optional
	Logger     *logrus.Logger
}

func NewWebhookService(deps WebhookServiceDeps) *WebhookService {
	if deps.Engine == nil {
		deps.Engine = NewConversationEngine()
	}
	if deps.Locker == nil {
		deps.Locker = infrastructure.NewKeyedLocker()
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &WebhookService{
		tenants:    deps.Tenants,
		engine:     deps.Engine,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		dedupe:     deps.Dedupe,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
	}
}

// Authorize resolves the tenant and checks the webhook secret.
func (s *WebhookService) Authorize(tenantID, secret string) (entities.TenantConfig, error) {
	tenant, ok := s.tenants.Resolve(tenantID)
	if !ok {
		return entities.TenantConfig{}, fmt.Errorf("tenant %q: %w", tenantID, entities.ErrTenantNotFound)
	}
	if tenant.WebhookSecret != "" &&
		subtle.ConstantTimeCompare([]byte(tenant.WebhookSecret), []byte(secret)) != 1 {
		return entities.TenantConfig{}, fmt.Errorf("tenant %q: %w", tenantID, entities.ErrSecretMismatch)
	}
	return tenant, nil
}

// HandleUpdate processes one inbound message. Errors are returned only when the
// update was not committed and the platform should redeliver it.
func (s *WebhookService) HandleUpdate(ctx context.Context, msg entities.InboundMessage) (UpdateResult, error) {
	tenant, err := s.Authorize(msg.TenantID, msg.SecretToken)
	if err != nil {
		return UpdateResult{}, err
	}

	if strings.TrimSpace(msg.Text) == "" || msg.ConversationID == "" {
		return UpdateResult{Ignored: true}, nil
	}

	log := s.logger.WithFields(logrus.Fields{
		"tenant":    tenant.ID,
		"chat_id":   msg.ConversationID,
		"update_id": msg.UpdateID,
	})

	start := time.Now()
	decision, duplicate, err := s.transition(ctx, tenant, msg)
	if err != nil {
		infrastructure.RecordUpdate(tenant.ID, "error", time.Since(start))
		log.WithError(err).Error("session transition failed")
		return UpdateResult{}, err
	}
	if duplicate {
		infrastructure.RecordUpdate(tenant.ID, "duplicate", time.Since(start))
		log.Debug("duplicate update ignored")
		return UpdateResult{Duplicate: true}, nil
	}
	infrastructure.RecordUpdate(tenant.ID, string(decision.Outcome), time.Since(start))

	log.WithField("outcome", decision.Outcome).Info("update handled")

	// The session is committed; the rest must not be cut short by the caller.
	detached := context.WithoutCancel(ctx)

	if decision.Reservation != nil && s.recorder != nil {
		if err := s.recorder.Create(detached, decision.Reservation); err != nil {
			log.WithError(err).WithField("reservation_id", decision.Reservation.ID).Warn("failed to record reservation")
		}
	}

	result := UpdateResult{Outcome: decision.Outcome}
	if s.dispatcher != nil {
		result.Dispatch = s.dispatcher.Dispatch(detached, tenant, decision.Actions)
	}
	return result, nil
}

func (s *WebhookService) transition(ctx context.Context, tenant entities.TenantConfig, msg entities.InboundMessage) (Decision, bool, error) {
	key := entities.SessionKey{TenantID: tenant.ID, ConversationID: msg.ConversationID}

	unlock := s.locker.Lock(key.String())
	defer unlock()

	var dedupeKey string
	if s.dedupe != nil && msg.UpdateID > 0 {
		dedupeKey = infrastructure.UpdateKey(tenant.ID, msg.UpdateID)
		if s.dedupe.Seen(dedupeKey) {
			return Decision{}, true, nil
		}
	}

	current, err := s.sessions.Get(ctx, key)
	if err != nil {
		return Decision{}, false, fmt.Errorf("load session %s: %w", key, err)
	}

	decision := s.engine.Handle(tenant, msg.ConversationID, msg.Text, current)

	if decision.Next == nil {
		if current != nil {
			if err := s.sessions.Delete(ctx, key); err != nil {
				return Decision{}, false, fmt.Errorf("delete session %s: %w", key, err)
			}
		}
	} else if err := s.sessions.Put(ctx, key, decision.Next); err != nil {
		return Decision{}, false, fmt.Errorf("save session %s: %w", key, err)
	}

	if dedupeKey != "" {
		s.dedupe.Mark(dedupeKey)
	}
	return decision, false, nil
}
