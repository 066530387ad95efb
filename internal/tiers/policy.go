package tiers

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/streamvault-backend/pkg/config"
	"github.com/angelmondragon/streamvault-backend/pkg/enums"
)

// Policy holds the tier ladder: the view threshold each tier unlocks at and
// the per-view USD rate it pays. Thresholds and rates come from configuration
// so they can change without a migration.
type Policy struct {
	thresholds map[enums.Tier]int64
	rates      map[enums.Tier]decimal.Decimal
}

// NewPolicy parses the configured rates and builds the ladder.
func NewPolicy(cfg config.TierConfig) (*Policy, error) {
	rates := map[enums.Tier]string{
		enums.TierBronze:   cfg.BronzeRate,
		enums.TierSilver:   cfg.SilverRate,
		enums.TierGold:     cfg.GoldRate,
		enums.TierPlatinum: cfg.PlatinumRate,
	}
	parsed := make(map[enums.Tier]decimal.Decimal, len(rates))
	for tier, raw := range rates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s rate %q: %w", tier, raw, err)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%s rate must not be negative", tier)
		}
		parsed[tier] = rate
	}
	return &Policy{
		thresholds: map[enums.Tier]int64{
			enums.TierBronze:   0,
			enums.TierSilver:   cfg.SilverViews,
			enums.TierGold:     cfg.GoldViews,
			enums.TierPlatinum: cfg.PlatinumViews,
		},
		rates: parsed,
	}, nil
}

// EligibleTier returns the highest tier the given cumulative view count
// qualifies for.
func (p *Policy) EligibleTier(views int64) enums.Tier {
	eligible := enums.TierBronze
	for _, tier := range enums.OrderedTiers() {
		if views >= p.thresholds[tier] {
			eligible = tier
		}
	}
	return eligible
}

// RateForTier returns the per-view USD rate for a tier.
func (p *Policy) RateForTier(tier enums.Tier) (decimal.Decimal, error) {
	rate, ok := p.rates[tier]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no rate configured for tier %q", tier)
	}
	return rate, nil
}

// ThresholdFor returns the view count at which a tier unlocks.
func (p *Policy) ThresholdFor(tier enums.Tier) (int64, bool) {
	threshold, ok := p.thresholds[tier]
	return threshold, ok
}

// NextTier returns the tier above the given one, or false at the top.
func NextTier(tier enums.Tier) (enums.Tier, bool) {
	ordered := enums.OrderedTiers()
	rank := tier.Rank()
	if rank < 0 || rank >= len(ordered)-1 {
		return "", false
	}
	return ordered[rank+1], true
}
