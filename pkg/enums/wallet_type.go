package enums

import "fmt"

// WalletType maps to the wallet_type_enum enum in Postgres.
type WalletType string

const (
	WalletTypeBitcoin  WalletType = "bitcoin"
	WalletTypeEthereum WalletType = "ethereum"
	WalletTypeUSDT     WalletType = "usdt"
	WalletTypeLitecoin WalletType = "litecoin"
)

var validWalletTypes = []WalletType{
	WalletTypeBitcoin,
	WalletTypeEthereum,
	WalletTypeUSDT,
	WalletTypeLitecoin,
}

// IsValid reports whether the value matches the canonical wallet type enum.
func (t WalletType) IsValid() bool {
	for _, candidate := range validWalletTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWalletType converts raw input into WalletType.
func ParseWalletType(value string) (WalletType, error) {
	for _, candidate := range validWalletTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet type %q", value)
}
