package adminops

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/creators"
	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	RecordEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error)
}

// Service is the admin control surface over creator balances.
type Service interface {
	Fund(ctx context.Context, input AdjustInput) (*models.LedgerEntry, error)
	Debit(ctx context.Context, input AdjustInput) (*models.LedgerEntry, error)
	MassBonus(ctx context.Context, input MassBonusInput) (*MassBonusReport, error)
}

type service struct {
	accounts creators.Repository
	ledger   ledgerRecorder
	tx       txRunner
	logg     *logger.Logger
}

// AdjustInput credits or debits a single creator.
type AdjustInput struct {
	CreatorID   uuid.UUID
	AmountCents int64
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// MassBonusInput grants every active creator the same bonus.
type MassBonusInput struct {
	AmountCents int64
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// MassBonusReport summarizes a mass grant. Failures carry the per-creator
// errors; successes are unaffected by them.
type MassBonusReport struct {
	Granted int                `json:"granted"`
	Failed  []MassBonusFailure `json:"failed,omitempty"`
}

// MassBonusFailure is one creator the grant skipped.
type MassBonusFailure struct {
	CreatorID uuid.UUID `json:"creator_id"`
	Error     string    `json:"error"`
}

// NewService builds the admin control surface.
func NewService(accounts creators.Repository, ledgerSvc ledgerRecorder, tx txRunner, logg *logger.Logger) (Service, error) {
	if accounts == nil {
		return nil, fmt.Errorf("creators repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{accounts: accounts, ledger: ledgerSvc, tx: tx, logg: logg}, nil
}

// Fund credits a creator's balance.
func (s *service) Fund(ctx context.Context, input AdjustInput) (*models.LedgerEntry, error) {
	return s.adjust(ctx, input, enums.LedgerSourceAdminBonus, input.AmountCents)
}

// Debit removes funds, recording a negative entry. The balance may go
// negative; chargeback recoveries legitimately exceed the unpaid balance.
func (s *service) Debit(ctx context.Context, input AdjustInput) (*models.LedgerEntry, error) {
	return s.adjust(ctx, input, enums.LedgerSourceAdminDeduction, -input.AmountCents)
}

func (s *service) adjust(ctx context.Context, input AdjustInput, source enums.LedgerSource, signedCents int64) (*models.LedgerEntry, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.accounts.WithTx(tx).FindForUpdate(ctx, input.CreatorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock creator account")
		}
		reason := input.Reason
		created, err := s.ledger.RecordEntryTx(ctx, tx, ledger.RecordEntryInput{
			CreatorID:   input.CreatorID,
			Source:      source,
			AmountCents: signedCents,
			Reason:      &reason,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
		})
		if err != nil {
			return err
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// MassBonus grants the bonus to every active creator, one transaction per
// creator so a failure never rolls back the others. The aggregated error is
// logged and reported but the call succeeds if any grant landed.
func (s *service) MassBonus(ctx context.Context, input MassBonusInput) (*MassBonusReport, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	ids, err := s.accounts.ListActiveIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active creators")
	}

	report := &MassBonusReport{}
	var combined error
	for _, creatorID := range ids {
		_, grantErr := s.Fund(ctx, AdjustInput{
			CreatorID:   creatorID,
			AmountCents: input.AmountCents,
			Reason:      input.Reason,
			ActorUserID: input.ActorUserID,
			ActorRole:   input.ActorRole,
		})
		if grantErr != nil {
			combined = multierr.Append(combined, fmt.Errorf("creator %s: %w", creatorID, grantErr))
			report.Failed = append(report.Failed, MassBonusFailure{
				CreatorID: creatorID,
				Error:     grantErr.Error(),
			})
			continue
		}
		report.Granted++
	}

	if combined != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"granted": report.Granted,
			"failed":  len(report.Failed),
		})
		s.logg.Warn(logCtx, "mass bonus completed with failures: "+combined.Error())
	}
	if report.Granted == 0 && len(report.Failed) > 0 {
		return report, pkgerrors.Wrap(pkgerrors.CodeInternal, combined, "mass bonus failed for every creator")
	}
	return report, nil
}
