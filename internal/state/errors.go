package state

import "errors"

// Validation errors surfaced by the pool. All are synchronous and
// side-effect-free: checks run before any ledger or aggregate mutation.
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrLeverageTooHigh       = errors.New("leverage too high")
	ErrInsufficientMargin    = errors.New("insufficient margin")
	ErrMarginRatioTooLow     = errors.New("margin ratio too low")
	ErrPositionOwnerMismatch = errors.New("position owner mismatch") // covers not-found
	ErrNoValidCommitment     = errors.New("no valid liquidation commitment")
	ErrCommitmentActive      = errors.New("liquidation commitment active")
	ErrPositionHealthy       = errors.New("position healthy")
	ErrBatchSizeTooLarge     = errors.New("batch size too large")
	ErrInvalidOracleData     = errors.New("invalid oracle data")
	ErrPoolPaused            = errors.New("pool paused")
	ErrPoolNotPaused         = errors.New("pool not paused")
	ErrUnauthorized          = errors.New("unauthorized")
)
