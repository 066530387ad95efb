package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox"
	"github.com/angelmondragon/streamvault-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines operations over the append-only earnings ledger.
type Service interface {
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error)
	RecordEntryTx(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.LedgerEntry, error)
	Balance(ctx context.Context, creatorID uuid.UUID) (int64, error)
	History(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	Totals(ctx context.Context, creatorID uuid.UUID) (Totals, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// RecordEntryInput captures the immutable data one ledger entry requires.
// Negative amounts represent deductions; zero is rejected outright.
type RecordEntryInput struct {
	CreatorID   uuid.UUID
	Source      enums.LedgerSource
	AmountCents int64
	Reason      *string
	ActorUserID uuid.UUID
	ActorRole   string
}

// Totals aggregates a creator's lifetime ledger position.
type Totals struct {
	BalanceCents     int64 `json:"balance_cents"`
	TotalEarnedCents int64 `json:"total_earned_cents"`
	TotalPaidCents   int64 `json:"total_paid_cents"`
}

// NewService wires a ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, txErr := s.RecordEntryTx(ctx, tx, input)
		if txErr != nil {
			return txErr
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordEntryTx appends one entry inside an existing transaction. Callers that
// combine the append with other writes (payout settlement, account counters)
// use this form so the whole unit commits or rolls back together.
func (s *service) RecordEntryTx(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if !input.Source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger source %q", input.Source))
	}
	if input.AmountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-zero")
	}

	entry := &models.LedgerEntry{
		CreatorID:   input.CreatorID,
		Source:      input.Source,
		AmountCents: input.AmountCents,
		Reason:      input.Reason,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create ledger entry")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventEarningRecorded,
		AggregateType: enums.AggregateLedgerEntry,
		AggregateID:   entry.ID,
		Data: payloads.EarningRecordedEvent{
			EntryID:     entry.ID,
			CreatorID:   entry.CreatorID,
			Source:      entry.Source,
			AmountCents: entry.AmountCents,
		},
		Version: 1,
	}
	if input.ActorUserID != uuid.Nil {
		event.Actor = &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit earning recorded event")
	}
	return entry, nil
}

func (s *service) Balance(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	if creatorID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	total, err := s.repo.SumUnpaid(ctx, creatorID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum unpaid entries")
	}
	return total, nil
}

func (s *service) History(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	entries, err := s.repo.ListByCreator(ctx, creatorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) Totals(ctx context.Context, creatorID uuid.UUID) (Totals, error) {
	if creatorID == uuid.Nil {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	balance, err := s.repo.SumUnpaid(ctx, creatorID)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum unpaid entries")
	}
	earned, err := s.repo.SumEarned(ctx, creatorID)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum earned entries")
	}
	paid, err := s.repo.SumPaid(ctx, creatorID)
	if err != nil {
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum paid entries")
	}
	return Totals{BalanceCents: balance, TotalEarnedCents: earned, TotalPaidCents: paid}, nil
}
