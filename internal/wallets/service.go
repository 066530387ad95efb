package wallets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
)

// Service manages each creator's payout destination. One wallet per creator;
// setting a new one replaces the old. Open payout requests are unaffected
// because they carry their own wallet snapshot.
type Service interface {
	Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error)
	Set(ctx context.Context, input SetInput) (*models.Wallet, error)
	Remove(ctx context.Context, creatorID uuid.UUID) error
}

type service struct {
	repo Repository
}

// SetInput registers or replaces a payout wallet.
type SetInput struct {
	CreatorID  uuid.UUID
	WalletType enums.WalletType
	Address    string
}

// NewService builds the wallet directory service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	if creatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	wallet, err := s.repo.Get(ctx, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payout wallet configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) Set(ctx context.Context, input SetInput) (*models.Wallet, error) {
	if input.CreatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if !input.WalletType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid wallet type %q", input.WalletType))
	}
	address := strings.TrimSpace(input.Address)
	if len(address) < 20 || len(address) > 128 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address length out of range")
	}

	wallet := &models.Wallet{
		CreatorID:  input.CreatorID,
		WalletType: input.WalletType,
		Address:    address,
	}
	if err := s.repo.Upsert(ctx, wallet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save wallet")
	}
	return wallet, nil
}

func (s *service) Remove(ctx context.Context, creatorID uuid.UUID) error {
	if creatorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "creator id required")
	}
	if err := s.repo.Delete(ctx, creatorID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete wallet")
	}
	return nil
}
