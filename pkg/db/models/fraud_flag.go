package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// FraudFlag is one raised suspicion against a creator. Multiple pending flags
// per creator are allowed; each is investigated independently.
type FraudFlag struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatorID   uuid.UUID             `gorm:"column:creator_id;type:uuid;not null;index"`
	FlagType    enums.FraudFlagType   `gorm:"column:flag_type;type:fraud_flag_type_enum;not null"`
	Severity    enums.FraudSeverity   `gorm:"column:severity;type:fraud_severity_enum;not null"`
	Description string                `gorm:"column:description;type:text;not null"`
	Status      enums.FraudFlagStatus `gorm:"column:status;type:fraud_flag_status_enum;not null;default:pending"`
	ActionTaken *string               `gorm:"column:action_taken;type:text"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	ResolvedAt  *time.Time            `gorm:"column:resolved_at"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
