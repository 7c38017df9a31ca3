package state

import (
	"time"

	"github.com/google/uuid"
)

// Position is a single leveraged exposure record owned by one hedger.
// Amounts are CollateralScale fixed-point; prices are PriceScale.
type Position struct {
	ID                uint64
	Owner             uuid.UUID
	Margin            int64 // net collateral backing the position, after entry fee
	NotionalExposure  int64 // margin * leverage at open, in collateral-asset units
	EntryPrice        int64
	EntryTime         time.Time
	LastUpdateBlock   uint64
	Leverage          uint16
	Active            bool
	AccumulatedReward int64
	LastRewardBlock   uint64
	Version           int64 // Bumped on every mutation
}

// TerminationReason records how an active position was terminated.
// A position is terminated exactly once.
type TerminationReason int32

const (
	TerminationClose TerminationReason = iota
	TerminationLiquidation
	TerminationEmergencyClose
)

func (tr TerminationReason) String() string {
	switch tr {
	case TerminationClose:
		return "Close"
	case TerminationLiquidation:
		return "Liquidation"
	case TerminationEmergencyClose:
		return "EmergencyClose"
	default:
		return "Unknown"
	}
}

func appendUint64LE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// CanonicalBytes returns deterministic serialization for state hashing.
func (p *Position) CanonicalBytes() []byte {
	buf := make([]byte, 0, 96)

	buf = appendUint64LE(buf, p.ID)
	buf = append(buf, p.Owner[:]...)
	buf = appendUint64LE(buf, uint64(p.Margin))
	buf = appendUint64LE(buf, uint64(p.NotionalExposure))
	buf = appendUint64LE(buf, uint64(p.EntryPrice))
	buf = appendUint64LE(buf, uint64(p.Leverage))
	buf = appendUint64LE(buf, p.LastUpdateBlock)
	if p.Active {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendUint64LE(buf, uint64(p.AccumulatedReward))

	return buf
}
