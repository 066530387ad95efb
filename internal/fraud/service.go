package fraud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
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

// PayoutRejector force-rejects a creator's open payout request when fraud is
// confirmed. The payout workflow implements this; the local interface keeps
// the two packages from importing each other.
type PayoutRejector interface {
	ForceRejectOpen(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, reason string) error
}

// Service exposes the fraud monitor.
type Service interface {
	Raise(ctx context.Context, input RaiseInput) (*models.FraudFlag, error)
	StartInvestigation(ctx context.Context, flagID uuid.UUID, actor Actor) (*models.FraudFlag, error)
	Resolve(ctx context.Context, input ResolveInput) (*models.FraudFlag, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.FraudFlag, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.FraudFlag, error)
	HasBlockingFlag(ctx context.Context, creatorID uuid.UUID) (bool, error)
	HasBlockingFlagTx(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (bool, error)
}

type service struct {
	repo     Repository
	accounts creators.Repository
	payouts  PayoutRejector
	tx       txRunner
	outbox   outboxPublisher
}

// Actor identifies the admin performing a fraud action.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// RaiseInput opens a new flag against a creator.
type RaiseInput struct {
	CreatorID   uuid.UUID
	FlagType    enums.FraudFlagType
	Severity    enums.FraudSeverity
	Description string
	Actor       Actor
}

// ResolveOutcome is the terminal decision for a flag.
type ResolveOutcome string

const (
	// OutcomeCleared closes the flag with no action against the creator.
	OutcomeCleared ResolveOutcome = "cleared"
	// OutcomeConfirmed upholds the flag: the creator is suspended, takes a
	// strike, and any open payout request is force-rejected.
	OutcomeConfirmed ResolveOutcome = "confirmed"
)

// ResolveInput closes a flag one way or the other.
type ResolveInput struct {
	FlagID      uuid.UUID
	Outcome     ResolveOutcome
	ActionTaken *string
	Actor       Actor
}

// NewService builds the fraud monitor.
func NewService(repo Repository, accounts creators.Repository, payouts PayoutRejector, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fraud repository required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("creators repository required")
	}
	if payouts == nil {
		return nil, fmt.Errorf("payout rejector required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, accounts: accounts, payouts: payouts, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Raise(ctx context.Context, input RaiseInput) (*models.FraudFlag, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if !input.FlagType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid flag type %q", input.FlagType))
	}
	if !input.Severity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid severity %q", input.Severity))
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	if _, err := s.accounts.FindByID(ctx, input.CreatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load creator account")
	}

	flag := &models.FraudFlag{
		CreatorID:   input.CreatorID,
		FlagType:    input.FlagType,
		Severity:    input.Severity,
		Description: input.Description,
		Status:      enums.FraudFlagStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, flag); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create fraud flag")
		}
		return s.emitFlagEvent(ctx, tx, enums.EventFlagRaised, flag, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return flag, nil
}

func (s *service) StartInvestigation(ctx context.Context, flagID uuid.UUID, actor Actor) (*models.FraudFlag, error) {
	if flagID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flag id required")
	}
	var updated *models.FraudFlag
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		flag, err := repo.FindForUpdate(ctx, flagID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "fraud flag not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock fraud flag")
		}
		if flag.Status != enums.FraudFlagStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("flag is %q, only pending flags can move to investigating", flag.Status))
		}
		flag.Status = enums.FraudFlagStatusInvestigating
		if err := repo.Update(ctx, flag); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update fraud flag")
		}
		updated = flag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Resolve closes a flag. A confirmed outcome suspends the creator, adds a
// strike, and force-rejects any open payout request, all in one transaction
// so the account can never end up suspended with a live withdrawal.
func (s *service) Resolve(ctx context.Context, input ResolveInput) (*models.FraudFlag, error) {
	if input.FlagID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flag id required")
	}
	if input.Outcome != OutcomeCleared && input.Outcome != OutcomeConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid outcome %q", input.Outcome))
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	var updated *models.FraudFlag
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		flag, err := repo.FindForUpdate(ctx, input.FlagID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "fraud flag not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock fraud flag")
		}
		if flag.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("flag already closed as %q", flag.Status))
		}

		now := time.Now()
		flag.ResolvedAt = &now
		flag.ActionTaken = input.ActionTaken

		if input.Outcome == OutcomeCleared {
			flag.Status = enums.FraudFlagStatusResolved
			if err := repo.Update(ctx, flag); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update fraud flag")
			}
			if err := s.emitFlagEvent(ctx, tx, enums.EventFlagResolved, flag, input.Actor); err != nil {
				return err
			}
			updated = flag
			return nil
		}

		flag.Status = enums.FraudFlagStatusConfirmed
		if err := repo.Update(ctx, flag); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update fraud flag")
		}

		accounts := s.accounts.WithTx(tx)
		account, err := accounts.FindForUpdate(ctx, flag.CreatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock creator account")
		}
		if err := accounts.UpdateStatus(ctx, account.ID, enums.CreatorStatusSuspended); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "suspend creator account")
		}
		if err := accounts.IncrementStrikes(ctx, account.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment strike count")
		}
		if err := s.payouts.ForceRejectOpen(ctx, tx, account.ID, "account suspended pending investigation"); err != nil {
			return err
		}

		if err := s.emitFlagEvent(ctx, tx, enums.EventFlagConfirmed, flag, input.Actor); err != nil {
			return err
		}
		suspendedEvent := outbox.DomainEvent{
			EventType:     enums.EventCreatorSuspended,
			AggregateType: enums.AggregateCreatorAccount,
			AggregateID:   account.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: input.Actor.Role},
			Data: payloads.CreatorSuspendedEvent{
				CreatorID:   account.ID,
				FlagID:      flag.ID,
				StrikeCount: account.StrikeCount + 1,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, suspendedEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit creator suspended event")
		}
		updated = flag
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.FraudFlag, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	flags, err := s.repo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list fraud flags")
	}
	return flags, nil
}

func (s *service) ListOpen(ctx context.Context, limit, offset int) ([]models.FraudFlag, error) {
	flags, err := s.repo.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list open fraud flags")
	}
	return flags, nil
}

// HasBlockingFlag is the payout gate: a pending high or critical flag blocks,
// and so does an already-suspended account.
func (s *service) HasBlockingFlag(ctx context.Context, creatorID uuid.UUID) (bool, error) {
	return hasBlock(ctx, s.repo, s.accounts, creatorID)
}

func (s *service) HasBlockingFlagTx(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (bool, error) {
	return hasBlock(ctx, s.repo.WithTx(tx), s.accounts.WithTx(tx), creatorID)
}

func hasBlock(ctx context.Context, flags Repository, accounts creators.Repository, creatorID uuid.UUID) (bool, error) {
	blocked, err := flags.HasBlockingFlag(ctx, creatorID)
	if err != nil {
		return false, err
	}
	if blocked {
		return true, nil
	}
	account, err := accounts.FindByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.Status == enums.CreatorStatusSuspended, nil
}

func (s *service) emitFlagEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, flag *models.FraudFlag, actor Actor) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateFraudFlag,
		AggregateID:   flag.ID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role},
		Data: payloads.FlagEvent{
			FlagID:    flag.ID,
			CreatorID: flag.CreatorID,
			FlagType:  flag.FlagType,
			Severity:  flag.Severity,
			Status:    flag.Status,
		},
		Version: 1,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit fraud flag event")
	}
	return nil
}
