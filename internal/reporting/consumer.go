package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/payloads"
)

const reportingConsumerName = "reporting"

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type earningSink interface {
	WriteEarning(ctx context.Context, row EarningsFactRow) error
}

// Consumer streams earning_recorded events from the domain subscription into
// the earnings-fact table. Other domain events on the subscription are acked
// and skipped.
type Consumer struct {
	subscription *gcppubsub.Subscriber
	sink         earningSink
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer creates a reporting consumer.
func NewConsumer(subscription *gcppubsub.Subscriber, sink earningSink, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if sink == nil {
		return nil, errors.New("earnings writer is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		subscription: subscription,
		sink:         sink,
		manager:      manager,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run starts consuming domain messages until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	eventTypeStr := strings.TrimSpace(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventTypeStr,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(eventTypeStr)
	if err != nil || eventType != enums.EventEarningRecorded {
		return processResult{}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Warn(logCtx, "invalid payload envelope")
		return processResult{}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}

	already, err := c.manager.CheckAndMarkProcessed(logCtx, reportingConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	var payload payloads.EarningRecordedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Warn(logCtx, "invalid earning payload")
		return processResult{}
	}

	occurredAt := envelope.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	row := EarningsFactRow{
		EventID:     envelope.EventID,
		OccurredAt:  occurredAt.UTC(),
		EntryID:     payload.EntryID.String(),
		CreatorID:   payload.CreatorID.String(),
		Source:      string(payload.Source),
		AmountCents: payload.AmountCents,
	}
	if encoded, encodeErr := encodeJSON(envelope.Data); encodeErr == nil {
		row.Payload = encoded
	}

	if err := c.sink.WriteEarning(logCtx, row); err != nil {
		c.logg.Error(logCtx, "earnings fact write failed", err)
		_ = c.manager.Delete(logCtx, reportingConsumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "earnings fact recorded")
	return processResult{}
}
