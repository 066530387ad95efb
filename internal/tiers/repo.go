package tiers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// CandidateRow pairs a creator with their current tier and view count for
// eligibility screening.
type CandidateRow struct {
	CreatorID uuid.UUID  `gorm:"column:creator_id"`
	Tier      enums.Tier `gorm:"column:tier"`
	ViewCount int64      `gorm:"column:view_count"`
}

// Repository manages persistence for tier states.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, creatorID uuid.UUID) (*models.TierState, error)
	GetForUpdate(ctx context.Context, creatorID uuid.UUID) (*models.TierState, error)
	Upsert(ctx context.Context, state *models.TierState) error
	ListCandidates(ctx context.Context) ([]CandidateRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tier state repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Get loads a creator's tier state. Creators without a row default to
// bronze; the row is written lazily on the first promotion.
func (r *repository) Get(ctx context.Context, creatorID uuid.UUID) (*models.TierState, error) {
	var state models.TierState
	err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TierState{CreatorID: creatorID, Tier: enums.TierBronze}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) GetForUpdate(ctx context.Context, creatorID uuid.UUID) (*models.TierState, error) {
	var state models.TierState
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("creator_id = ?", creatorID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TierState{CreatorID: creatorID, Tier: enums.TierBronze}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repository) Upsert(ctx context.Context, state *models.TierState) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier", "views_at_recompute", "updated_at"}),
		}).
		Create(state).Error
}

// ListCandidates returns every active creator joined with their tier state.
// Missing tier rows surface as bronze so new creators are screened too.
func (r *repository) ListCandidates(ctx context.Context) ([]CandidateRow, error) {
	var rows []CandidateRow
	err := r.db.WithContext(ctx).
		Table("creator_accounts AS ca").
		Select("ca.id AS creator_id, COALESCE(ts.tier, 'bronze') AS tier, ca.view_count").
		Joins("LEFT JOIN tier_states ts ON ts.creator_id = ca.id").
		Where("ca.status = ?", enums.CreatorStatusActive).
		Order("ca.view_count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
