package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/internal/ledger"
	dbpkg "github.com/angelmondragon/streamvault-backend/pkg/db"
	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerRecorder interface {
	RecordEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error)
}

// Service manages promotional offers. Redeeming one synthesizes a single
// offer-bonus ledger entry; there is no further offer lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Offer, error)
	ListActive(ctx context.Context) ([]models.Offer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Redeem(ctx context.Context, input RedeemInput) (*models.LedgerEntry, error)
}

type service struct {
	repo    Repository
	entries ledger.Repository
	ledger  ledgerRecorder
	tx      txRunner
}

// CreateInput defines a new offer. Flat offers pay ValueCents outright;
// multiplier offers pay (multiplier - 1) times the creator's unpaid balance
// at redemption time.
type CreateInput struct {
	Code       string
	Kind       models.OfferKind
	ValueCents int64
	Multiplier float64
}

// RedeemInput applies an offer code to a creator.
type RedeemInput struct {
	CreatorID uuid.UUID
	Code      string
}

// NewService builds the offers service.
func NewService(repo Repository, entries ledger.Repository, ledgerSvc ledgerRecorder, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if entries == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger recorder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, entries: entries, ledger: ledgerSvc, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Offer, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code required")
	}
	switch input.Kind {
	case models.OfferKindFlat:
		if input.ValueCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "flat offers need a positive value")
		}
	case models.OfferKindMultiplier:
		if input.Multiplier <= 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "multiplier must exceed 1")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid offer kind %q", input.Kind))
	}

	offer := &models.Offer{
		Code:       code,
		Kind:       input.Kind,
		ValueCents: input.ValueCents,
		Multiplier: input.Multiplier,
		Active:     true,
	}
	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "offer code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create offer")
	}
	return offer, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Offer, error) {
	offers, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list offers")
	}
	return offers, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate offer")
	}
	return nil
}

func (s *service) Redeem(ctx context.Context, input RedeemInput) (*models.LedgerEntry, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer code required")
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		offer, err := repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load offer")
		}
		if !offer.Active {
			return pkgerrors.New(pkgerrors.CodePolicyBlock, "offer is no longer active")
		}

		redeemed, err := repo.HasRedeemed(ctx, offer.ID, input.CreatorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check redemption")
		}
		if redeemed {
			return pkgerrors.New(pkgerrors.CodeConflict, "offer already redeemed")
		}

		bonusCents, err := s.bonusFor(ctx, tx, offer, input.CreatorID)
		if err != nil {
			return err
		}
		if bonusCents <= 0 {
			return pkgerrors.New(pkgerrors.CodePolicyBlock, "offer yields no bonus for this account")
		}

		reason := "offer " + offer.Code
		created, err := s.ledger.RecordEntryTx(ctx, tx, ledger.RecordEntryInput{
			CreatorID:   input.CreatorID,
			Source:      enums.LedgerSourceOfferBonus,
			AmountCents: bonusCents,
			Reason:      &reason,
		})
		if err != nil {
			return err
		}

		redemption := &models.OfferRedemption{
			OfferID:   offer.ID,
			CreatorID: input.CreatorID,
			EntryID:   created.ID,
		}
		if err := repo.CreateRedemption(ctx, redemption); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_offer_redemptions_offer_creator") {
				return pkgerrors.New(pkgerrors.CodeConflict, "offer already redeemed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record redemption")
		}
		entry = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) bonusFor(ctx context.Context, tx *gorm.DB, offer *models.Offer, creatorID uuid.UUID) (int64, error) {
	switch offer.Kind {
	case models.OfferKindFlat:
		return offer.ValueCents, nil
	case models.OfferKindMultiplier:
		balance, err := s.entries.WithTx(tx).SumUnpaid(ctx, creatorID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute balance")
		}
		bonus := decimal.NewFromInt(balance).
			Mul(decimal.NewFromFloat(offer.Multiplier - 1)).
			IntPart()
		return bonus, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown offer kind %q", offer.Kind))
	}
}
