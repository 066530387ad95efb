package fraud

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// Repository manages persistence for fraud flags.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, flag *models.FraudFlag) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FraudFlag, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.FraudFlag, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.FraudFlag, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.FraudFlag, error)
	Update(ctx context.Context, flag *models.FraudFlag) error
	HasBlockingFlag(ctx context.Context, creatorID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fraud flag repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, flag *models.FraudFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FraudFlag, error) {
	var flag models.FraudFlag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&flag).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

// FindForUpdate locks the flag row so concurrent resolutions of the same
// flag serialize.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.FraudFlag, error) {
	var flag models.FraudFlag
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&flag).Error
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.FraudFlag, error) {
	var flags []models.FraudFlag
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&flags).Error
	if err != nil {
		return nil, err
	}
	return flags, nil
}

func (r *repository) ListOpen(ctx context.Context, limit, offset int) ([]models.FraudFlag, error) {
	q := r.db.WithContext(ctx).
		Where("status IN ?", []enums.FraudFlagStatus{
			enums.FraudFlagStatusPending,
			enums.FraudFlagStatusInvestigating,
		}).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var flags []models.FraudFlag
	if err := q.Find(&flags).Error; err != nil {
		return nil, err
	}
	return flags, nil
}

func (r *repository) Update(ctx context.Context, flag *models.FraudFlag) error {
	return r.db.WithContext(ctx).Save(flag).Error
}

// HasBlockingFlag reports whether the creator has a pending flag severe
// enough to block withdrawals. Flags under active investigation do not block
// on their own; a confirmed investigation suspends the account, which the
// service-level gate checks separately.
func (r *repository) HasBlockingFlag(ctx context.Context, creatorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FraudFlag{}).
		Where("creator_id = ?", creatorID).
		Where("status = ?", enums.FraudFlagStatusPending).
		Where("severity IN ?", []enums.FraudSeverity{
			enums.FraudSeverityHigh,
			enums.FraudSeverityCritical,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
