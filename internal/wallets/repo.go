package wallets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
)

// Repository manages persistence for payout wallets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error)
	Upsert(ctx context.Context, wallet *models.Wallet) error
	Delete(ctx context.Context, creatorID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, creatorID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Upsert(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"wallet_type", "address", "updated_at"}),
		}).
		Create(wallet).Error
}

func (r *repository) Delete(ctx context.Context, creatorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Delete(&models.Wallet{}).Error
}
