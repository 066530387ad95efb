package enums

import "fmt"

// Tier maps to the creator_tier_enum enum in Postgres.
// Tiers are ordered; Rank exposes the ordering for transition checks.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

var orderedTiers = []Tier{
	TierBronze,
	TierSilver,
	TierGold,
	TierPlatinum,
}

// OrderedTiers returns the tiers from lowest to highest.
func OrderedTiers() []Tier {
	out := make([]Tier, len(orderedTiers))
	copy(out, orderedTiers)
	return out
}

// Rank returns the ordinal position of the tier, or -1 for unknown values.
func (t Tier) Rank() int {
	for i, candidate := range orderedTiers {
		if candidate == t {
			return i
		}
	}
	return -1
}

// IsValid reports whether the value matches the canonical tier enum.
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// ParseTier converts raw input into Tier.
func ParseTier(value string) (Tier, error) {
	for _, candidate := range orderedTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tier %q", value)
}
