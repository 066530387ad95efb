package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/payloads"
)

type stubSink struct {
	rows []EarningsFactRow
	err  error
}

func (s *stubSink) WriteEarning(ctx context.Context, row EarningsFactRow) error {
	s.rows = append(s.rows, row)
	return s.err
}

type stubManager struct {
	checkResult bool
	checkErr    error
	checked     []uuid.UUID
	deleted     []uuid.UUID
}

func (s *stubManager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	s.checked = append(s.checked, eventID)
	return s.checkResult, s.checkErr
}

func (s *stubManager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	s.deleted = append(s.deleted, eventID)
	return nil
}

func newTestConsumer(t *testing.T, sink *stubSink, manager *stubManager) *Consumer {
	t.Helper()
	return &Consumer{
		sink:    sink,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "reporting-test"}),
	}
}

func buildEarningMessage(t *testing.T, payload payloads.EarningRecordedEvent) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC),
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:         "msg-1",
		Data:       raw,
		Attributes: map[string]string{"event_type": string(enums.EventEarningRecorded)},
	}
}

func TestConsumerWritesFactRow(t *testing.T) {
	sink := &stubSink{}
	manager := &stubManager{}
	consumer := newTestConsumer(t, sink, manager)

	payload := payloads.EarningRecordedEvent{
		EntryID:     uuid.New(),
		CreatorID:   uuid.New(),
		Source:      enums.LedgerSourceViewEarning,
		AmountCents: 450,
	}
	res := consumer.process(context.Background(), buildEarningMessage(t, payload))
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(sink.rows) != 1 {
		t.Fatalf("expected one fact row, got %d", len(sink.rows))
	}
	row := sink.rows[0]
	if row.EntryID != payload.EntryID.String() || row.AmountCents != 450 {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Source != string(enums.LedgerSourceViewEarning) {
		t.Fatalf("unexpected source %q", row.Source)
	}
	if row.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at carried from envelope")
	}
	if len(manager.checked) != 1 {
		t.Fatalf("expected idempotency check, got %d", len(manager.checked))
	}
}

func TestConsumerSkipsOtherEvents(t *testing.T) {
	sink := &stubSink{}
	manager := &stubManager{}
	consumer := newTestConsumer(t, sink, manager)

	msg := &gcppubsub.Message{
		ID:         "msg-2",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": string(enums.EventPayoutApproved)},
	}
	res := consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("expected ack for skipped event")
	}
	if len(sink.rows) != 0 || len(manager.checked) != 0 {
		t.Fatal("skipped event must not touch sink or idempotency")
	}
}

func TestConsumerAlreadyProcessed(t *testing.T) {
	sink := &stubSink{}
	manager := &stubManager{checkResult: true}
	consumer := newTestConsumer(t, sink, manager)

	payload := payloads.EarningRecordedEvent{EntryID: uuid.New(), CreatorID: uuid.New(), Source: enums.LedgerSourceAdminBonus, AmountCents: 100}
	res := consumer.process(context.Background(), buildEarningMessage(t, payload))
	if res.nack {
		t.Fatal("expected ack")
	}
	if len(sink.rows) != 0 {
		t.Fatal("duplicate event must not be written")
	}
}

func TestConsumerNacksOnSinkFailure(t *testing.T) {
	sink := &stubSink{err: errors.New("insert failed")}
	manager := &stubManager{}
	consumer := newTestConsumer(t, sink, manager)

	payload := payloads.EarningRecordedEvent{EntryID: uuid.New(), CreatorID: uuid.New(), Source: enums.LedgerSourceViewEarning, AmountCents: 10}
	res := consumer.process(context.Background(), buildEarningMessage(t, payload))
	if !res.nack {
		t.Fatal("expected nack on sink failure")
	}
	if len(manager.deleted) != 1 {
		t.Fatal("expected idempotency delete so the retry can reprocess")
	}
}

func TestConsumerAcksInvalidEnvelope(t *testing.T) {
	sink := &stubSink{}
	manager := &stubManager{}
	consumer := newTestConsumer(t, sink, manager)

	msg := &gcppubsub.Message{
		ID:         "msg-3",
		Data:       []byte("not json"),
		Attributes: map[string]string{"event_type": string(enums.EventEarningRecorded)},
	}
	res := consumer.process(context.Background(), msg)
	if res.nack {
		t.Fatal("poison message should ack")
	}
	if len(sink.rows) != 0 {
		t.Fatal("poison message must not be written")
	}
}
