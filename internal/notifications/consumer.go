package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/payloads"
)

const monetizationNotificationConsumer = "monetization-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type creatorResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error)
}

// Consumer watches monetization domain events and writes creator-facing
// inbox notifications for the ones a creator cares about.
type Consumer struct {
	repo         repository
	creators     creatorResolver
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a monetization notification consumer.
func NewConsumer(repo repository, creators creatorResolver, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if creators == nil {
		return nil, fmt.Errorf("creator resolver required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		creators:     creators,
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
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !notifiableEvent(eventType) {
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, monetizationNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		return processResult{ack: true}
	}

	if err := c.handleEvent(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, monetizationNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func notifiableEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventPayoutApproved, enums.EventPayoutCompleted, enums.EventPayoutRejected,
		enums.EventTierApproved, enums.EventTierDenied,
		enums.EventCreatorSuspended:
		return true
	default:
		return false
	}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventPayoutApproved, enums.EventPayoutCompleted, enums.EventPayoutRejected:
		var payload payloads.PayoutEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPayout(ctx, eventType, payload, logCtx)
	case enums.EventTierApproved, enums.EventTierDenied:
		var payload payloads.TierDecisionEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyTier(ctx, eventType, payload, logCtx)
	case enums.EventCreatorSuspended:
		var payload payloads.CreatorSuspendedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifySuspension(ctx, payload, logCtx)
	default:
		return nil
	}
}

func (c *Consumer) notifyPayout(ctx context.Context, eventType enums.OutboxEventType, payload payloads.PayoutEvent, logCtx context.Context) error {
	userID, err := c.userFor(ctx, payload.CreatorID)
	if err != nil {
		return err
	}

	amount := fmt.Sprintf("$%d.%02d", payload.AmountCents/100, payload.AmountCents%100)
	var title, message string
	switch eventType {
	case enums.EventPayoutApproved:
		title = "Payout approved"
		message = fmt.Sprintf("Your payout of %s has been approved and is awaiting transfer.", amount)
	case enums.EventPayoutCompleted:
		title = "Payout sent"
		message = fmt.Sprintf("Your payout of %s has been sent to your wallet.", amount)
	case enums.EventPayoutRejected:
		title = "Payout rejected"
		message = fmt.Sprintf("Your payout of %s was rejected.", amount)
		if payload.RejectReason != nil && *payload.RejectReason != "" {
			message = fmt.Sprintf("%s Reason: %s", message, *payload.RejectReason)
		}
	}

	link := fmt.Sprintf("/payouts/%s", payload.PayoutID)
	notification := &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypePayoutUpdate,
		Title:   title,
		Message: message,
		Link:    &link,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "creator notified of payout update")
	return nil
}

func (c *Consumer) notifyTier(ctx context.Context, eventType enums.OutboxEventType, payload payloads.TierDecisionEvent, logCtx context.Context) error {
	userID, err := c.userFor(ctx, payload.CreatorID)
	if err != nil {
		return err
	}

	var title, message string
	if eventType == enums.EventTierApproved {
		title = "Tier upgraded"
		message = fmt.Sprintf("Congratulations, your account has been promoted to the %s tier.", payload.Tier)
	} else {
		title = "Tier review decision"
		message = fmt.Sprintf("Your promotion to the %s tier was not approved at this time.", payload.Tier)
		if payload.Note != nil && *payload.Note != "" {
			message = fmt.Sprintf("%s Note: %s", message, *payload.Note)
		}
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypeTierUpdate,
		Title:   title,
		Message: message,
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "creator notified of tier decision")
	return nil
}

func (c *Consumer) notifySuspension(ctx context.Context, payload payloads.CreatorSuspendedEvent, logCtx context.Context) error {
	userID, err := c.userFor(ctx, payload.CreatorID)
	if err != nil {
		return err
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationTypeAccountAlert,
		Title:   "Account suspended",
		Message: "Your creator account has been suspended following a policy review. Monetization and payouts are paused.",
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(logCtx, "creator notified of suspension")
	return nil
}

func (c *Consumer) userFor(ctx context.Context, creatorID uuid.UUID) (uuid.UUID, error) {
	if creatorID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("creator id missing")
	}
	account, err := c.creators.FindByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("creator %s not found", creatorID)
		}
		return uuid.Nil, err
	}
	return account.UserID, nil
}
