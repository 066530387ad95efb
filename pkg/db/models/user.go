package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. Identity issuance lives with
// the external provider; this table only mirrors the stable user id and role.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string     `gorm:"type:text;not null;uniqueIndex"`
	DisplayName string     `gorm:"column:display_name;not null"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	SystemRole  *string    `gorm:"column:system_role"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
