package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// EarningRecordedEvent is emitted whenever a new ledger entry lands.
type EarningRecordedEvent struct {
	EntryID     uuid.UUID          `json:"entry_id"`
	CreatorID   uuid.UUID          `json:"creator_id"`
	Source      enums.LedgerSource `json:"source"`
	AmountCents int64              `json:"amount_cents"`
}

// PayoutEvent carries the payout lifecycle transitions.
type PayoutEvent struct {
	PayoutID      uuid.UUID          `json:"payout_id"`
	CreatorID     uuid.UUID          `json:"creator_id"`
	AmountCents   int64              `json:"amount_cents"`
	FeeCents      int64              `json:"fee_cents"`
	Status        enums.PayoutStatus `json:"status"`
	SettlementRef *string            `json:"settlement_ref,omitempty"`
	RejectReason  *string            `json:"reject_reason,omitempty"`
}

// TierDecisionEvent is emitted when an admin approves or denies a promotion.
type TierDecisionEvent struct {
	CreatorID uuid.UUID  `json:"creator_id"`
	Tier      enums.Tier `json:"tier"`
	Previous  enums.Tier `json:"previous,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

// FlagEvent tracks a fraud flag through its lifecycle.
type FlagEvent struct {
	FlagID    uuid.UUID             `json:"flag_id"`
	CreatorID uuid.UUID             `json:"creator_id"`
	FlagType  enums.FraudFlagType   `json:"flag_type"`
	Severity  enums.FraudSeverity   `json:"severity"`
	Status    enums.FraudFlagStatus `json:"status"`
}

// CreatorSuspendedEvent is emitted alongside a confirmed flag.
type CreatorSuspendedEvent struct {
	CreatorID   uuid.UUID `json:"creator_id"`
	FlagID      uuid.UUID `json:"flag_id"`
	StrikeCount int       `json:"strike_count"`
}

// NotificationRequestedEvent tells downstream systems to alert a creator.
type NotificationRequestedEvent struct {
	CreatorID uuid.UUID              `json:"creator_id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      *string                `json:"link,omitempty"`
}
