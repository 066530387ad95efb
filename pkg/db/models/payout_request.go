package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// PayoutRequest captures a withdrawal attempt. The amount and destination
// wallet are snapshots taken at submission so later ledger writes or wallet
// edits never retroactively alter the request. A partial unique index on
// (creator_id) WHERE status IN ('pending','approved') guarantees at most one
// non-terminal request per creator.
type PayoutRequest struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID     uuid.UUID          `gorm:"column:creator_id;type:uuid;not null;index"`
	AmountCents   int64              `gorm:"column:amount_cents;not null"`
	FeeCents      int64              `gorm:"column:fee_cents;not null;default:0"`
	WalletType    enums.WalletType   `gorm:"column:wallet_type;type:wallet_type_enum;not null"`
	WalletAddress string             `gorm:"column:wallet_address;not null"`
	Status        enums.PayoutStatus `gorm:"column:status;type:payout_status_enum;not null;default:pending"`
	SettlementRef *string            `gorm:"column:settlement_ref"`
	RejectReason  *string            `gorm:"column:reject_reason"`
	AdminNote     *string            `gorm:"column:admin_note"`
	RequestedAt   time.Time          `gorm:"column:requested_at;autoCreateTime"`
	ApprovedAt    *time.Time         `gorm:"column:approved_at"`
	CompletedAt   *time.Time         `gorm:"column:completed_at"`
	RejectedAt    *time.Time         `gorm:"column:rejected_at"`
}
