package event

import (
	"github.com/google/uuid"
)

type RewardsClaimed struct {
	Hedger               uuid.UUID `json:"hedger"`
	InterestDifferential int64     `json:"interest_differential"`
	ExternalYieldShare   int64     `json:"external_yield_share"`
	Total                int64     `json:"total"`
}

type InterestRatesUpdated struct {
	EurRate       int64  `json:"eur_rate"`
	UsdRate       int64  `json:"usd_rate"`
	BlocksPerYear uint64 `json:"blocks_per_year"`
}

type RiskConfigUpdated struct {
	MinMarginRatioBps       int64  `json:"min_margin_ratio_bps"`
	LiquidationThresholdBps int64  `json:"liquidation_threshold_bps"`
	MaxLeverage             uint16 `json:"max_leverage"`
	LiquidationPenaltyBps   int64  `json:"liquidation_penalty_bps"`
}

type FeeConfigUpdated struct {
	EntryFeeBps  int64 `json:"entry_fee_bps"`
	ExitFeeBps   int64 `json:"exit_fee_bps"`
	MarginFeeBps int64 `json:"margin_fee_bps"`
}

type PoolPaused struct {
	By uuid.UUID `json:"by"`
}

type PoolUnpaused struct {
	By uuid.UUID `json:"by"`
}
