package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// CreatorAccount is the monetization profile for a creator-enabled user.
// Accounts are never deleted, only suspended.
type CreatorAccount struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Status      enums.CreatorStatus `gorm:"column:status;type:creator_status_enum;not null;default:active"`
	StrikeCount int                 `gorm:"column:strike_count;not null;default:0"`
	UploadCount int64               `gorm:"column:upload_count;not null;default:0"`
	ViewCount   int64               `gorm:"column:view_count;not null;default:0"`
	PinHash     *string             `gorm:"column:pin_hash"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
