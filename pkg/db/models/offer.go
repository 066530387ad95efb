package models

import (
	"time"

	"github.com/google/uuid"
)

// OfferKind distinguishes flat-amount bonuses from earnings multipliers.
type OfferKind string

const (
	OfferKindFlat       OfferKind = "flat"
	OfferKindMultiplier OfferKind = "multiplier"
)

// Offer is a promotional record. Redeeming one synthesizes a ledger entry;
// offers carry no further lifecycle of their own.
type Offer struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string    `gorm:"column:code;not null;uniqueIndex"`
	Kind       OfferKind `gorm:"column:kind;type:offer_kind_enum;not null"`
	ValueCents int64     `gorm:"column:value_cents;not null;default:0"`
	Multiplier float64   `gorm:"column:multiplier;not null;default:1"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// OfferRedemption prevents a creator from redeeming the same offer twice.
type OfferRedemption struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OfferID   uuid.UUID `gorm:"column:offer_id;type:uuid;not null;uniqueIndex:ux_offer_redemptions_offer_creator"`
	CreatorID uuid.UUID `gorm:"column:creator_id;type:uuid;not null;uniqueIndex:ux_offer_redemptions_offer_creator"`
	EntryID   uuid.UUID `gorm:"column:entry_id;type:uuid;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
