package creators

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// Repository manages persistence for creator accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, account *models.CreatorAccount) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error)
	List(ctx context.Context, limit, offset int) ([]models.CreatorAccount, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CreatorStatus) error
	IncrementStrikes(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID, delta int64) error
	IncrementUploads(ctx context.Context, id uuid.UUID, delta int64) error
	SetPinHash(ctx context.Context, id uuid.UUID, hash string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a creator account repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, account *models.CreatorAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error) {
	var account models.CreatorAccount
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CreatorAccount, error) {
	var account models.CreatorAccount
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindForUpdate loads the account under a row lock. Monetization writes for
// one creator serialize on this lock, so balance reads and payout snapshots
// inside the same transaction see a stable ledger.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.CreatorAccount, error) {
	var account models.CreatorAccount
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]models.CreatorAccount, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var accounts []models.CreatorAccount
	if err := q.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.CreatorAccount{}).
		Where("status = ?", enums.CreatorStatusActive).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CreatorStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CreatorAccount{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) IncrementStrikes(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CreatorAccount{}).
		Where("id = ?", id).
		Update("strike_count", gorm.Expr("strike_count + 1")).Error
}

func (r *repository) IncrementViews(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CreatorAccount{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + ?", delta)).Error
}

func (r *repository) IncrementUploads(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CreatorAccount{}).
		Where("id = ?", id).
		Update("upload_count", gorm.Expr("upload_count + ?", delta)).Error
}

func (r *repository) SetPinHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.CreatorAccount{}).
		Where("id = ?", id).
		Update("pin_hash", hash).Error
}
