package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// Wallet is the payout destination a creator has on file. The payout workflow
// reads it at submission time and snapshots the values onto the request.
type Wallet struct {
	CreatorID  uuid.UUID        `gorm:"column:creator_id;type:uuid;primaryKey"`
	WalletType enums.WalletType `gorm:"column:wallet_type;type:wallet_type_enum;not null"`
	Address    string           `gorm:"column:address;not null"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
