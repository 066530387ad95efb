package creators

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	"github.com/angelmondragon/streamvault-backend/pkg/config"
	dbpkg "github.com/angelmondragon/streamvault-backend/pkg/db"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
	"github.com/angelmondragon/streamvault-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	RecordEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error)
}

// TierResolver reports a creator's current tier and the per-view USD rate
// for it. The tier engine implements this; a local interface keeps the
// dependency one-directional.
type TierResolver interface {
	CurrentTier(ctx context.Context, tx *gorm.DB, creatorID uuid.UUID) (enums.Tier, error)
	RateForTier(tier enums.Tier) (decimal.Decimal, error)
}

// Service exposes creator account operations.
type Service interface {
	CreateAccount(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error)
	List(ctx context.Context, limit, offset int) ([]models.CreatorAccount, error)
	AccrueViewEarning(ctx context.Context, input AccrueInput) (*AccrueResult, error)
	RecordUpload(ctx context.Context, creatorID uuid.UUID) error
	SetPin(ctx context.Context, creatorID uuid.UUID, pin string) error
	VerifyPin(ctx context.Context, creatorID uuid.UUID, pin string) error
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger ledgerRecorder
	tiers  TierResolver
	pinCfg config.PinConfig
}

// AccrueInput is one batch of monetizable views reported by the content
// ingestion pipeline.
type AccrueInput struct {
	CreatorID uuid.UUID
	Views     int64
}

// AccrueResult reports what an accrual batch produced. Entry is nil when the
// batch was too small to mint a whole cent.
type AccrueResult struct {
	Entry       *models.LedgerEntry
	Views       int64
	AmountCents int64
	Tier        enums.Tier
	RatePerView decimal.Decimal
}

// NewService builds a creator account service.
func NewService(repo Repository, tx txRunner, ledgerSvc ledgerRecorder, tiers TierResolver, pinCfg config.PinConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("creators repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger recorder required")
	}
	if tiers == nil {
		return nil, fmt.Errorf("tier resolver required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		ledger: ledgerSvc,
		tiers:  tiers,
		pinCfg: pinCfg,
	}, nil
}

func (s *service) CreateAccount(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	account := &models.CreatorAccount{
		UserID: userID,
		Status: enums.CreatorStatusActive,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "creator account already exists for user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create creator account")
	}
	return account, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load creator account")
	}
	return account, nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	account, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load creator account")
	}
	return account, nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]models.CreatorAccount, error) {
	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list creator accounts")
	}
	return accounts, nil
}

// AccrueViewEarning converts a batch of monetizable views into a ledger
// entry priced at the creator's current tier rate. The creator row is locked
// first so concurrent batches for one creator serialize. Fractional cents
// truncate; a batch too small to mint one cent still counts its views.
func (s *service) AccrueViewEarning(ctx context.Context, input AccrueInput) (*AccrueResult, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if input.Views <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "views must be positive")
	}

	var result *AccrueResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		account, err := repo.FindForUpdate(ctx, input.CreatorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "creator account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock creator account")
		}
		if account.Status == enums.CreatorStatusSuspended {
			return pkgerrors.New(pkgerrors.CodePolicyBlock, "suspended creators do not accrue earnings")
		}

		tier, err := s.tiers.CurrentTier(ctx, tx, account.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve creator tier")
		}
		rate, err := s.tiers.RateForTier(tier)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve tier rate")
		}

		amountCents := rate.
			Mul(decimal.NewFromInt(input.Views)).
			Mul(decimal.NewFromInt(100)).
			IntPart()

		result = &AccrueResult{
			Views:       input.Views,
			AmountCents: amountCents,
			Tier:        tier,
			RatePerView: rate,
		}

		if amountCents > 0 {
			entry, err := s.ledger.RecordEntryTx(ctx, tx, ledger.RecordEntryInput{
				CreatorID:   account.ID,
				Source:      enums.LedgerSourceViewEarning,
				AmountCents: amountCents,
			})
			if err != nil {
				return err
			}
			result.Entry = entry
		}

		if err := repo.IncrementViews(ctx, account.ID, input.Views); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment view count")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) RecordUpload(ctx context.Context, creatorID uuid.UUID) error {
	if creatorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if err := s.repo.IncrementUploads(ctx, creatorID, 1); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "increment upload count")
	}
	return nil
}

func (s *service) SetPin(ctx context.Context, creatorID uuid.UUID, pin string) error {
	if creatorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if err := security.ValidatePinFormat(pin); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	hash, err := security.HashPin(pin, s.pinCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash withdrawal pin")
	}
	if err := s.repo.SetPinHash(ctx, creatorID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store withdrawal pin")
	}
	return nil
}

// VerifyPin checks the withdrawal PIN for a creator. Failures return the
// unauthorized code without revealing whether a PIN is configured.
func (s *service) VerifyPin(ctx context.Context, creatorID uuid.UUID, pin string) error {
	account, err := s.GetByID(ctx, creatorID)
	if err != nil {
		return err
	}
	if account.PinHash == nil || *account.PinHash == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "withdrawal pin verification failed")
	}
	ok, err := security.VerifyPin(pin, *account.PinHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify withdrawal pin")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "withdrawal pin verification failed")
	}
	return nil
}
