package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
)

// Repository manages persistence for offers and their redemptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOffer(ctx context.Context, offer *models.Offer) error
	FindByCode(ctx context.Context, code string) (*models.Offer, error)
	ListActive(ctx context.Context) ([]models.Offer, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	CreateRedemption(ctx context.Context, redemption *models.OfferRedemption) error
	HasRedeemed(ctx context.Context, offerID, creatorID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an offers repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("active", false).Error
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.OfferRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repository) HasRedeemed(ctx context.Context, offerID, creatorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OfferRedemption{}).
		Where("offer_id = ? AND creator_id = ?", offerID, creatorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
