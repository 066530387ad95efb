package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/streamvault-backend/pkg/errors"
)

type fakeRepo struct {
	wallets map[uuid.UUID]*models.Wallet
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	wallet, ok := f.wallets[creatorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return wallet, nil
}

func (f *fakeRepo) Upsert(ctx context.Context, wallet *models.Wallet) error {
	f.wallets[wallet.CreatorID] = wallet
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, creatorID uuid.UUID) error {
	delete(f.wallets, creatorID)
	return nil
}

func TestService_SetReplacesWallet(t *testing.T) {
	repo := &fakeRepo{wallets: map[uuid.UUID]*models.Wallet{}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	creatorID := uuid.New()
	first, err := svc.Set(context.Background(), SetInput{
		CreatorID:  creatorID,
		WalletType: enums.WalletTypeBitcoin,
		Address:    "bc1q7cyrfmck2ffu2ud3rn5l5a8lv6f0rnjsrycnt4",
	})
	if err != nil {
		t.Fatalf("Set error: %v", err)
	}

	second, err := svc.Set(context.Background(), SetInput{
		CreatorID:  creatorID,
		WalletType: enums.WalletTypeEthereum,
		Address:    "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
	})
	if err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if second.WalletType == first.WalletType {
		t.Fatal("wallet should be replaced")
	}

	got, err := svc.Get(context.Background(), creatorID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.WalletType != enums.WalletTypeEthereum {
		t.Fatalf("expected ethereum wallet, got %q", got.WalletType)
	}
}

func TestService_SetValidation(t *testing.T) {
	repo := &fakeRepo{wallets: map[uuid.UUID]*models.Wallet{}}
	svc, _ := NewService(repo)

	_, err := svc.Set(context.Background(), SetInput{
		CreatorID:  uuid.New(),
		WalletType: enums.WalletType("paypal"),
		Address:    "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Set(context.Background(), SetInput{
		CreatorID:  uuid.New(),
		WalletType: enums.WalletTypeBitcoin,
		Address:    "short",
	})
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_GetMissing(t *testing.T) {
	repo := &fakeRepo{wallets: map[uuid.UUID]*models.Wallet{}}
	svc, _ := NewService(repo)

	_, err := svc.Get(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
