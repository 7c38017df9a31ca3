package event

import (
	"github.com/google/uuid"
)

type LiquidationCommitted struct {
	Hedger     uuid.UUID `json:"hedger"`
	PositionID uint64    `json:"position_id"`
	Committer  uuid.UUID `json:"committer"`
	CommitHash string    `json:"commit_hash"`
	Block      uint64    `json:"block"`
}

// LiquidationExecuted is the reveal. Reward goes to the liquidator,
// Remainder becomes claimable margin for the position owner.
type LiquidationExecuted struct {
	Hedger     uuid.UUID `json:"hedger"`
	PositionID uint64    `json:"position_id"`
	Liquidator uuid.UUID `json:"liquidator"`
	MarkPrice  int64     `json:"mark_price"`
	Equity     int64     `json:"equity"`
	Reward     int64     `json:"reward"`
	Remainder  int64     `json:"remainder"`
}

type CommitmentCancelled struct {
	Hedger     uuid.UUID `json:"hedger"`
	PositionID uint64    `json:"position_id"`
	Committer  uuid.UUID `json:"committer"`
}

type CommitmentExpired struct {
	Hedger     uuid.UUID `json:"hedger"`
	PositionID uint64    `json:"position_id"`
	ClearedBy  uuid.UUID `json:"cleared_by"`
}
