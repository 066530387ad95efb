package enums

import "fmt"

// LedgerSource maps to the ledger_source_enum enum in Postgres.
type LedgerSource string

const (
	LedgerSourceViewEarning    LedgerSource = "view_earning"
	LedgerSourceAdminBonus     LedgerSource = "admin_bonus"
	LedgerSourceAdminDeduction LedgerSource = "admin_deduction"
	LedgerSourceOfferBonus     LedgerSource = "offer_bonus"
)

var validLedgerSources = []LedgerSource{
	LedgerSourceViewEarning,
	LedgerSourceAdminBonus,
	LedgerSourceAdminDeduction,
	LedgerSourceOfferBonus,
}

// IsValid reports whether the value matches the canonical ledger source enum.
func (s LedgerSource) IsValid() bool {
	for _, candidate := range validLedgerSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLedgerSource converts raw input into LedgerSource.
func ParseLedgerSource(value string) (LedgerSource, error) {
	for _, candidate := range validLedgerSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger source %q", value)
}
