package payouts

import "github.com/shopspring/decimal"

// FeeCents computes the display-only processing fee for a withdrawal amount.
// The fee is never deducted from the ledger; the external payment rail takes
// it out of the transfer. Fractions round down in the creator's favor.
func FeeCents(amountCents int64, feePercent float64) int64 {
	if amountCents <= 0 || feePercent <= 0 {
		return 0
	}
	return decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromFloat(feePercent)).
		Div(decimal.NewFromInt(100)).
		IntPart()
}
