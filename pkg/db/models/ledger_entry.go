package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// LedgerEntry records one immutable balance-affecting event for a creator.
// Rows are append-only; the paid flag is the only mutable column and flips
// exactly once when a payout settles.
type LedgerEntry struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID   uuid.UUID          `gorm:"column:creator_id;type:uuid;not null;index"`
	Source      enums.LedgerSource `gorm:"column:source;type:ledger_source_enum;not null"`
	AmountCents int64              `gorm:"column:amount_cents;not null"`
	Paid        bool               `gorm:"column:paid;not null;default:false"`
	Reason      *string            `gorm:"column:reason"`
	PaidAt      *time.Time         `gorm:"column:paid_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
