package event

import (
	"time"
)

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypePositionOpened
	EventTypeMarginAdded
	EventTypeMarginRemoved
	EventTypePositionClosed
	EventTypePositionsBatchClosed
	EventTypeEmergencyPositionClosed
	EventTypeLiquidationCommitted
	EventTypeLiquidationExecuted
	EventTypeCommitmentCancelled
	EventTypeCommitmentExpired
	EventTypeRewardsClaimed
	EventTypeInterestRatesUpdated
	EventTypeRiskConfigUpdated
	EventTypeFeeConfigUpdated
	EventTypePoolPaused
	EventTypePoolUnpaused
)

// Envelope wraps every committed pool mutation in the event log.
// The state-hash chain makes any divergence between a replayed log and
// the live pool detectable at the first differing event.
type Envelope struct {
	// Global monotonic sequence assigned by the pool
	Sequence int64

	// Event type discriminator
	EventType EventType

	// Block height at which the operation executed
	Block uint64

	// Versioned input timestamp (NOT wall-clock)
	Timestamp time.Time

	// Event-specific payload, JSON-encoded for persistence
	Payload interface{}

	// SHA-256 of pool state AFTER applying this event
	StateHash [32]byte

	// Previous event's state hash (chain integrity)
	PrevHash [32]byte
}

func (et EventType) String() string {
	switch et {
	case EventTypePositionOpened:
		return "PositionOpened"
	case EventTypeMarginAdded:
		return "MarginAdded"
	case EventTypeMarginRemoved:
		return "MarginRemoved"
	case EventTypePositionClosed:
		return "PositionClosed"
	case EventTypePositionsBatchClosed:
		return "PositionsBatchClosed"
	case EventTypeEmergencyPositionClosed:
		return "EmergencyPositionClosed"
	case EventTypeLiquidationCommitted:
		return "LiquidationCommitted"
	case EventTypeLiquidationExecuted:
		return "LiquidationExecuted"
	case EventTypeCommitmentCancelled:
		return "CommitmentCancelled"
	case EventTypeCommitmentExpired:
		return "CommitmentExpired"
	case EventTypeRewardsClaimed:
		return "RewardsClaimed"
	case EventTypeInterestRatesUpdated:
		return "InterestRatesUpdated"
	case EventTypeRiskConfigUpdated:
		return "RiskConfigUpdated"
	case EventTypeFeeConfigUpdated:
		return "FeeConfigUpdated"
	case EventTypePoolPaused:
		return "PoolPaused"
	case EventTypePoolUnpaused:
		return "PoolUnpaused"
	default:
		return "Unknown"
	}
}
