package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/provenly/backend/pkg/db/models"
	"github.com/provenly/backend/pkg/enums"
	"github.com/provenly/backend/pkg/logger"
	"github.com/provenly/backend/pkg/outbox"
	"github.com/provenly/backend/pkg/outbox/idempotency"
	"github.com/provenly/backend/pkg/outbox/payloads"
)

const notificationConsumer = "ledger-notifications"

// Consumer watches published ledger and access events and turns the ones an
// actor should hear about into inbox notifications.
type Consumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a notification consumer over one subscription.
func NewConsumer(repo Repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("event subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !notifiableEvent(eventType) {
		c.logg.Info(logCtx, "skipping event with no notification rule")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func notifiableEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventItemCustodyTransferred,
		enums.EventParticipantAuthorized,
		enums.EventParticipantRevoked,
		enums.EventAdministrationTransfer:
		return true
	default:
		return false
	}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventItemCustodyTransferred:
		var payload payloads.CustodyTransferredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse custody payload: %w", err)
		}
		return c.notifyCustodyTransfer(ctx, payload, logCtx)
	case enums.EventParticipantAuthorized:
		var payload payloads.ParticipantAuthorizedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse authorization payload: %w", err)
		}
		return c.notifyAuthorized(ctx, payload, logCtx)
	case enums.EventParticipantRevoked:
		var payload payloads.ParticipantRevokedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse revocation payload: %w", err)
		}
		return c.notifyRevoked(ctx, payload, logCtx)
	case enums.EventAdministrationTransfer:
		var payload payloads.AdministrationTransferredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parse administration payload: %w", err)
		}
		return c.notifyAdministration(ctx, payload, logCtx)
	default:
		return nil
	}
}

func (c *Consumer) notifyCustodyTransfer(ctx context.Context, payload payloads.CustodyTransferredEvent, logCtx context.Context) error {
	if payload.ToCustodianID == uuid.Nil {
		return fmt.Errorf("new custodian missing")
	}
	link := fmt.Sprintf("/items/%s", payload.Tag)
	notification := &models.Notification{
		ActorID: payload.ToCustodianID,
		Type:    enums.NotificationTypeCustody,
		Title:   "Custody received",
		Message: fmt.Sprintf("You are now the custodian of item %s.", payload.Tag),
		Link:    &link,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(c.logg.WithItemTag(logCtx, payload.Tag), "custodian notified of transfer")
	return nil
}

func (c *Consumer) notifyAuthorized(ctx context.Context, payload payloads.ParticipantAuthorizedEvent, logCtx context.Context) error {
	if payload.ActorID == uuid.Nil {
		return fmt.Errorf("actor id missing")
	}
	notification := &models.Notification{
		ActorID: payload.ActorID,
		Type:    enums.NotificationTypeAccess,
		Title:   "Access granted",
		Message: "You have been authorized to record on the ledger.",
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "participant notified of authorization")
	return nil
}

func (c *Consumer) notifyRevoked(ctx context.Context, payload payloads.ParticipantRevokedEvent, logCtx context.Context) error {
	if payload.ActorID == uuid.Nil {
		return fmt.Errorf("actor id missing")
	}
	notification := &models.Notification{
		ActorID: payload.ActorID,
		Type:    enums.NotificationTypeAccess,
		Title:   "Access revoked",
		Message: "Your authorization to record on the ledger has been withdrawn.",
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "participant notified of revocation")
	return nil
}

func (c *Consumer) notifyAdministration(ctx context.Context, payload payloads.AdministrationTransferredEvent, logCtx context.Context) error {
	if payload.ToActorID == uuid.Nil {
		return fmt.Errorf("new administrator missing")
	}
	notification := &models.Notification{
		ActorID: payload.ToActorID,
		Type:    enums.NotificationTypeAccess,
		Title:   "Administration transferred",
		Message: "You are now the ledger administrator.",
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "new administrator notified")
	return nil
}
