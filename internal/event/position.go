package event

import (
	"github.com/google/uuid"
)

// PositionOpened is emitted once per successful open. Margin is net of
// the entry fee.
type PositionOpened struct {
	PositionID uint64    `json:"position_id"`
	Owner      uuid.UUID `json:"owner"`
	Margin     int64     `json:"margin"`
	Notional   int64     `json:"notional"`
	EntryPrice int64     `json:"entry_price"`
	Leverage   uint16    `json:"leverage"`
	EntryFee   int64     `json:"entry_fee"`
}

type MarginAdded struct {
	PositionID     uint64    `json:"position_id"`
	Owner          uuid.UUID `json:"owner"`
	Amount         int64     `json:"amount"`
	Fee            int64     `json:"fee"`
	NewMargin      int64     `json:"new_margin"`
	MarginRatioBps int64     `json:"margin_ratio_bps"`
}

type MarginRemoved struct {
	PositionID     uint64    `json:"position_id"`
	Owner          uuid.UUID `json:"owner"`
	Amount         int64     `json:"amount"`
	NewMargin      int64     `json:"new_margin"`
	MarginRatioBps int64     `json:"margin_ratio_bps"`
}

// PositionClosed covers voluntary closes. Payout is what left custody
// toward the owner, net of the exit fee.
type PositionClosed struct {
	PositionID uint64    `json:"position_id"`
	Owner      uuid.UUID `json:"owner"`
	ClosePrice int64     `json:"close_price"`
	PnL        int64     `json:"pnl"`
	Payout     int64     `json:"payout"`
	ExitFee    int64     `json:"exit_fee"`
}

type PositionsBatchClosed struct {
	Owner       uuid.UUID `json:"owner"`
	PositionIDs []uint64  `json:"position_ids"`
	ClosePrice  int64     `json:"close_price"`
	TotalPayout int64     `json:"total_payout"`
	TotalFee    int64     `json:"total_fee"`
}

// EmergencyPositionClosed refunds the full remaining margin with no
// exit fee. Only possible while the pool is paused.
type EmergencyPositionClosed struct {
	PositionID uint64    `json:"position_id"`
	Owner      uuid.UUID `json:"owner"`
	Refund     int64     `json:"refund"`
}
