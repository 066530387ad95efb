package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

var openStatuses = []enums.PayoutStatus{
	enums.PayoutStatusPending,
	enums.PayoutStatusApproved,
}

// Repository manages persistence for payout requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.PayoutRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	FindOpenByCreatorForUpdate(ctx context.Context, creatorID uuid.UUID) (*models.PayoutRequest, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.PayoutRequest, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error)
	Update(ctx context.Context, request *models.PayoutRequest) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout request repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.PayoutRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FindOpenByCreatorForUpdate locks the creator's non-terminal request if one
// exists. The partial unique index guarantees at most one row matches.
func (r *repository) FindOpenByCreatorForUpdate(ctx context.Context, creatorID uuid.UUID) (*models.PayoutRequest, error) {
	var request models.PayoutRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("creator_id = ? AND status IN ?", creatorID, openStatuses).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.PayoutRequest, error) {
	q := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("requested_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var requests []models.PayoutRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit, offset int) ([]models.PayoutRequest, error) {
	q := r.db.WithContext(ctx).Order("requested_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var requests []models.PayoutRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) Update(ctx context.Context, request *models.PayoutRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}
