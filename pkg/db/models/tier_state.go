package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// TierState is the persisted performance tier for a creator. The per-view
// rate is derived from the tier via configuration, never stored per creator.
type TierState struct {
	CreatorID        uuid.UUID  `gorm:"column:creator_id;type:uuid;primaryKey"`
	Tier             enums.Tier `gorm:"column:tier;type:creator_tier_enum;not null;default:bronze"`
	ViewsAtRecompute int64      `gorm:"column:views_at_recompute;not null;default:0"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
