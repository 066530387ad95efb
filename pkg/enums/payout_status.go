package enums

import "fmt"

// PayoutStatus maps to the payout_status_enum enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusApproved  PayoutStatus = "approved"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusRejected  PayoutStatus = "rejected"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusApproved,
	PayoutStatusCompleted,
	PayoutStatusRejected,
}

// IsValid reports whether the value matches the canonical payout status enum.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusCompleted || s == PayoutStatusRejected
}

// ParsePayoutStatus converts raw input into PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
