package enums

import "fmt"

// FraudFlagType maps to the fraud_flag_type_enum enum in Postgres.
type FraudFlagType string

const (
	FraudFlagTypeViewBotting     FraudFlagType = "view_botting"
	FraudFlagTypeChargebackAbuse FraudFlagType = "chargeback_abuse"
	FraudFlagTypeStolenContent   FraudFlagType = "stolen_content"
	FraudFlagTypeMultiAccount    FraudFlagType = "multi_account"
	FraudFlagTypePayoutAnomaly   FraudFlagType = "payout_anomaly"
	FraudFlagTypeManualSuspicion FraudFlagType = "manual_suspicion"
)

var validFraudFlagTypes = []FraudFlagType{
	FraudFlagTypeViewBotting,
	FraudFlagTypeChargebackAbuse,
	FraudFlagTypeStolenContent,
	FraudFlagTypeMultiAccount,
	FraudFlagTypePayoutAnomaly,
	FraudFlagTypeManualSuspicion,
}

// IsValid reports whether the value matches the canonical fraud flag type enum.
func (t FraudFlagType) IsValid() bool {
	for _, candidate := range validFraudFlagTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseFraudFlagType converts raw input into FraudFlagType.
func ParseFraudFlagType(value string) (FraudFlagType, error) {
	for _, candidate := range validFraudFlagTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fraud flag type %q", value)
}

// FraudSeverity maps to the fraud_severity_enum enum in Postgres.
type FraudSeverity string

const (
	FraudSeverityLow      FraudSeverity = "low"
	FraudSeverityMedium   FraudSeverity = "medium"
	FraudSeverityHigh     FraudSeverity = "high"
	FraudSeverityCritical FraudSeverity = "critical"
)

var validFraudSeverities = []FraudSeverity{
	FraudSeverityLow,
	FraudSeverityMedium,
	FraudSeverityHigh,
	FraudSeverityCritical,
}

// IsValid reports whether the value matches the canonical fraud severity enum.
func (s FraudSeverity) IsValid() bool {
	for _, candidate := range validFraudSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// Blocking reports whether a pending flag at this severity blocks payouts.
func (s FraudSeverity) Blocking() bool {
	return s == FraudSeverityHigh || s == FraudSeverityCritical
}

// ParseFraudSeverity converts raw input into FraudSeverity.
func ParseFraudSeverity(value string) (FraudSeverity, error) {
	for _, candidate := range validFraudSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fraud severity %q", value)
}

// FraudFlagStatus maps to the fraud_flag_status_enum enum in Postgres.
type FraudFlagStatus string

const (
	FraudFlagStatusPending       FraudFlagStatus = "pending"
	FraudFlagStatusInvestigating FraudFlagStatus = "investigating"
	FraudFlagStatusResolved      FraudFlagStatus = "resolved"
	FraudFlagStatusConfirmed     FraudFlagStatus = "confirmed"
)

var validFraudFlagStatuses = []FraudFlagStatus{
	FraudFlagStatusPending,
	FraudFlagStatusInvestigating,
	FraudFlagStatusResolved,
	FraudFlagStatusConfirmed,
}

// IsValid reports whether the value matches the canonical fraud flag status enum.
func (s FraudFlagStatus) IsValid() bool {
	for _, candidate := range validFraudFlagStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the flag has been fully adjudicated.
func (s FraudFlagStatus) IsTerminal() bool {
	return s == FraudFlagStatusResolved || s == FraudFlagStatusConfirmed
}

// ParseFraudFlagStatus converts raw input into FraudFlagStatus.
func ParseFraudFlagStatus(value string) (FraudFlagStatus, error) {
	for _, candidate := range validFraudFlagStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fraud flag status %q", value)
}
