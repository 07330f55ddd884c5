package usecases

import (
	"context"
	"errors"
	"fmt"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"proyecto_reservas/internal/interfaces"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSendTimeout bounds each call to the messaging platform.
const DefaultSendTimeout = 10 * time.Second

// SendPacer throttles outbound calls per tenant.
type SendPacer interface {
	Wait(ctx context.Context, key string) error
}

// DispatchReport summarizes one Dispatch call.
type DispatchReport struct {
	Sent    int
	Failed  int
	Dropped int // not attempted because the tenant cannot send
	Skipped int // intentionally not sent, e.g. no admin contact
	Errors  []error
}

// NotificationDispatcher executes engine actions against the messenger.
// Delivery is best-effort: failures are logged and reported, never returned.
type NotificationDispatcher struct {
	messenger interfaces.Messenger
	pacer     SendPacer
	timeout   time.Duration
	logger    *logrus.Logger
}

func NewNotificationDispatcher(messenger interfaces.Messenger, pacer SendPacer, timeout time.Duration, logger *logrus.Logger) *NotificationDispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NotificationDispatcher{
		messenger: messenger,
		pacer:     pacer,
		timeout:   timeout,
		logger:    logger,
	}
}

// Dispatch sends actions one by one in the order given.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, tenant entities.TenantConfig, actions []entities.OutboundAction) DispatchReport {
	var report DispatchReport
	if len(actions) == 0 {
		return report
	}

	log := d.logger.WithField("tenant", tenant.ID)

	credential, err := tenant.RequireCredential()
	if err != nil {
		log.WithError(err).WithField("actions", len(actions)).Error("dropping outbound actions: tenant has no bot credential")
		for _, a := range actions {
			infrastructure.RecordDispatch(string(a.Kind), "dropped")
		}
		report.Dropped = len(actions)
		report.Errors = append(report.Errors, err)
		return report
	}

	for _, action := range actions {
		if action.Kind == entities.ActionNotifyAdmin && tenant.AdminChatID == "" {
			infrastructure.RecordDispatch(string(action.Kind), "skipped")
			report.Skipped++
			continue
		}

		if err := d.deliver(ctx, tenant, credential, action); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"kind":      action.Kind,
				"chat_id":   action.ConversationID,
				"permanent": infrastructure.IsPermanent(err),
			}).Warn("outbound action failed")
			infrastructure.RecordDispatch(string(action.Kind), "failed")
			report.Failed++
			report.Errors = append(report.Errors, err)
			continue
		}
		infrastructure.RecordDispatch(string(action.Kind), "sent")
		report.Sent++
	}
	return report
}

func (d *NotificationDispatcher) deliver(ctx context.Context, tenant entities.TenantConfig, credential string, action entities.OutboundAction) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	target := action.ConversationID
	if action.Kind == entities.ActionNotifyAdmin {
		target = tenant.AdminChatID
	}

	if d.pacer != nil {
		if err := d.pacer.Wait(ctx, tenant.ID); err != nil {
			return &entities.DeliveryError{Kind: action.Kind, ConversationID: target, Err: fmt.Errorf("pacing: %w", err)}
		}
	}

	var err error
	switch action.Kind {
	case entities.ActionSendText:
		err = d.messenger.SendText(ctx, credential, target, action.Text, action.Keyboard)
	case entities.ActionSendDocument:
		err = d.messenger.SendDocument(ctx, credential, target, action.DocumentRef, action.Caption)
	case entities.ActionNotifyAdmin:
		err = d.messenger.SendText(ctx, credential, target, action.Text, nil)
	default:
		err = errors.New("unknown action kind")
	}
	if err != nil {
		return &entities.DeliveryError{Kind: action.Kind, ConversationID: target, Err: err}
	}
	return nil
}
