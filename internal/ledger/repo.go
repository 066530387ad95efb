package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/streamvault-backend/pkg/db/models"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	SumUnpaid(ctx context.Context, creatorID uuid.UUID) (int64, error)
	ListUnpaid(ctx context.Context, creatorID uuid.UUID) ([]models.LedgerEntry, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.LedgerEntry, error)
	MarkPaid(ctx context.Context, entryIDs []uuid.UUID) (int64, error)
	SumPaid(ctx context.Context, creatorID uuid.UUID) (int64, error)
	SumEarned(ctx context.Context, creatorID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database handle.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// SumUnpaid computes the live balance from entry rows. The sum always comes
// from the table, never a cached column, so the balance cannot drift.
func (r *repository) SumUnpaid(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("creator_id = ? AND paid = ?", creatorID, false).
		Scan(&total).Error
	return total, err
}

func (r *repository) ListUnpaid(ctx context.Context, creatorID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND paid = ?", creatorID, false).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.LedgerEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkPaid flips the paid flag for the given entries in a single statement
// and reports how many rows actually changed. The paid = false guard makes
// double settlement visible to the caller as a row-count mismatch.
func (r *repository) MarkPaid(ctx context.Context, entryIDs []uuid.UUID) (int64, error) {
	if len(entryIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("id IN ? AND paid = ?", entryIDs, false).
		Updates(map[string]any{
			"paid":    true,
			"paid_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) SumPaid(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("creator_id = ? AND paid = ?", creatorID, true).
		Scan(&total).Error
	return total, err
}

// SumEarned totals positive entries regardless of paid state. Deductions are
// excluded so the figure reads as lifetime earnings, not net position.
func (r *repository) SumEarned(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("creator_id = ? AND amount_cents > 0 AND source <> ?", creatorID, enums.LedgerSourceAdminDeduction).
		Scan(&total).Error
	return total, err
}
