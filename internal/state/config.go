package state

import "fmt"

// FeeConfig holds the governance-mutable fee schedule, in basis points.
type FeeConfig struct {
	EntryFeeBps  int64
	ExitFeeBps   int64
	MarginFeeBps int64
}

// RiskConfig holds the governance-mutable risk limits.
type RiskConfig struct {
	MinMarginRatioBps       int64
	LiquidationThresholdBps int64
	MaxLeverage             uint16
	LiquidationPenaltyBps   int64
}

// InterestRates holds the annualized RateScale rates driving reward
// accrual, plus the block cadence used to annualize them.
type InterestRates struct {
	EurRate       int64
	UsdRate       int64
	BlocksPerYear uint64
}

var (
	// Defaults applied at pool construction; governance overrides at runtime.
	DefaultFeeConfig = FeeConfig{
		EntryFeeBps:  100, // 1%
		ExitFeeBps:   50,  // 0.5%
		MarginFeeBps: 25,  // 0.25%
	}

	DefaultRiskConfig = RiskConfig{
		MinMarginRatioBps:       1_000, // 10%
		LiquidationThresholdBps: 500,   // 5%
		MaxLeverage:             10,
		LiquidationPenaltyBps:   500, // 5% of remaining margin
	}

	DefaultInterestRates = InterestRates{
		EurRate:       1_000_000, // 1%
		UsdRate:       3_000_000, // 3%
		BlocksPerYear: 2_425_846, // ~13s blocks
	}
)

// ValidateFeeConfig checks that every fee stays below 100%.
func ValidateFeeConfig(cfg FeeConfig) error {
	for name, bps := range map[string]int64{
		"entry_fee_bps":  cfg.EntryFeeBps,
		"exit_fee_bps":   cfg.ExitFeeBps,
		"margin_fee_bps": cfg.MarginFeeBps,
	} {
		if bps < 0 || bps >= 10_000 {
			return fmt.Errorf("%s out of range [0, 10_000): %d", name, bps)
		}
	}
	return nil
}

// ValidateRiskConfig checks threshold ordering: positions must become
// liquidatable strictly below the ratio they are allowed to open at.
func ValidateRiskConfig(cfg RiskConfig) error {
	if cfg.MinMarginRatioBps <= 0 || cfg.MinMarginRatioBps >= 10_000 {
		return fmt.Errorf("min_margin_ratio_bps out of range (0, 10_000): %d", cfg.MinMarginRatioBps)
	}
	if cfg.LiquidationThresholdBps <= 0 {
		return fmt.Errorf("liquidation_threshold_bps must be > 0, got %d", cfg.LiquidationThresholdBps)
	}
	if cfg.LiquidationThresholdBps >= cfg.MinMarginRatioBps {
		return fmt.Errorf("liquidation_threshold_bps (%d) must be < min_margin_ratio_bps (%d)",
			cfg.LiquidationThresholdBps, cfg.MinMarginRatioBps)
	}
	if cfg.MaxLeverage < 1 {
		return fmt.Errorf("max_leverage must be >= 1, got %d", cfg.MaxLeverage)
	}
	if cfg.LiquidationPenaltyBps < 0 || cfg.LiquidationPenaltyBps >= 10_000 {
		return fmt.Errorf("liquidation_penalty_bps out of range [0, 10_000): %d", cfg.LiquidationPenaltyBps)
	}
	return nil
}

// ValidateInterestRates checks rate sanity. A negative differential is
// legal (it simply accrues nothing); negative absolute rates are not.
func ValidateInterestRates(rates InterestRates) error {
	if rates.EurRate < 0 || rates.UsdRate < 0 {
		return fmt.Errorf("interest rates must be >= 0, got eur=%d usd=%d", rates.EurRate, rates.UsdRate)
	}
	if rates.BlocksPerYear == 0 {
		return fmt.Errorf("blocks_per_year must be > 0")
	}
	return nil
}
