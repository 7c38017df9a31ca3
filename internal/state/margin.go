package state

import (
	"time"

	"github.com/google/uuid"

	fpmath "HedgePool/internal/math"
)

// commitmentView is the slice of the commitment book the margin engine
// needs: whether a live commitment blocks margin changes on a position.
type commitmentView interface {
	HasLive(owner uuid.UUID, positionID uint64, currentBlock uint64) bool
}

// MarginEngine validates and applies margin changes (open, add, remove)
// against the configured ratios and leverage limits. Reward checkpointing
// and custody transfers are sequenced by the facade; the engine only
// mutates ledger and aggregate state after all checks pass.
type MarginEngine struct {
	ledger      *PositionLedger
	aggregates  *PoolAggregates
	commitments commitmentView
}

func NewMarginEngine(ledger *PositionLedger, aggregates *PoolAggregates, commitments commitmentView) *MarginEngine {
	return &MarginEngine{
		ledger:      ledger,
		aggregates:  aggregates,
		commitments: commitments,
	}
}

// OpenPosition creates a new leveraged position from grossMargin at the
// given entry price. The entry fee is deducted first; the notional is
// netMargin * leverage. The opening margin ratio equals 10_000/leverage
// bps by construction, but is re-checked against MinMarginRatioBps so a
// mis-set leverage cap can never admit an undercollateralized open.
// Returns the inserted position and the entry fee taken.
func (me *MarginEngine) OpenPosition(
	owner uuid.UUID,
	grossMargin int64,
	leverage uint16,
	fees FeeConfig,
	risk RiskConfig,
	entryPrice int64,
	entryTime time.Time,
	currentBlock uint64,
) (*Position, int64, error) {
	if grossMargin <= 0 {
		return nil, 0, ErrInvalidAmount
	}
	if leverage < 1 || leverage > risk.MaxLeverage {
		return nil, 0, ErrLeverageTooHigh
	}

	netMargin, entryFee := fpmath.ApplyFeeBps(grossMargin, fees.EntryFeeBps)
	if netMargin <= 0 {
		return nil, 0, ErrInsufficientMargin
	}

	notional, ok := fpmath.MulCheck(netMargin, int64(leverage))
	if !ok {
		return nil, 0, ErrInvalidAmount
	}
	if fpmath.RatioBps(netMargin, notional) < risk.MinMarginRatioBps {
		return nil, 0, ErrMarginRatioTooLow
	}

	pos := &Position{
		Owner:            owner,
		Margin:           netMargin,
		NotionalExposure: notional,
		EntryPrice:       entryPrice,
		EntryTime:        entryTime,
		LastUpdateBlock:  currentBlock,
		Leverage:         leverage,
		Active:           true,
		LastRewardBlock:  currentBlock,
	}

	me.ledger.Insert(pos)
	me.aggregates.AddPosition(owner, netMargin, notional)

	return pos, entryFee, nil
}

// AddMargin tops up an active position's collateral. Rejected while a
// live liquidation commitment exists on the position, so a hedger cannot
// rescue a position inside the liquidation window. The post-add ratio at
// currentPrice must reach MinMarginRatioBps; a top-up that merely shrinks
// the deficit is rejected whole. Returns the new margin ratio and the
// margin fee taken.
func (me *MarginEngine) AddMargin(
	owner uuid.UUID,
	positionID uint64,
	amount int64,
	currentPrice int64,
	fees FeeConfig,
	risk RiskConfig,
	currentBlock uint64,
) (int64, int64, error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}

	pos, err := me.ledger.GetActiveOwned(owner, positionID)
	if err != nil {
		return 0, 0, err
	}

	if me.commitments.HasLive(owner, positionID, currentBlock) {
		return 0, 0, ErrCommitmentActive
	}

	netAmount, marginFee := fpmath.ApplyFeeBps(amount, fees.MarginFeeBps)
	if netAmount <= 0 {
		return 0, 0, ErrInvalidAmount
	}

	newMargin := pos.Margin + netAmount
	pnl := fpmath.MarkPnL(pos.NotionalExposure, pos.EntryPrice, currentPrice)
	newRatio := fpmath.MarginRatioBps(newMargin, pnl, pos.NotionalExposure)
	if newRatio < risk.MinMarginRatioBps {
		return 0, 0, ErrMarginRatioTooLow
	}

	pos.Margin = newMargin
	pos.LastUpdateBlock = currentBlock
	pos.Version++
	me.aggregates.AdjustMargin(netAmount)

	return newRatio, marginFee, nil
}

// RemoveMargin withdraws collateral from an active position. The amount
// must leave some margin behind, and the resulting ratio at currentPrice
// must stay at or above MinMarginRatioBps. Blocked by a live liquidation
// commitment, symmetric with AddMargin.
func (me *MarginEngine) RemoveMargin(
	owner uuid.UUID,
	positionID uint64,
	amount int64,
	currentPrice int64,
	risk RiskConfig,
	currentBlock uint64,
) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	pos, err := me.ledger.GetActiveOwned(owner, positionID)
	if err != nil {
		return 0, err
	}

	if me.commitments.HasLive(owner, positionID, currentBlock) {
		return 0, ErrCommitmentActive
	}

	if amount >= pos.Margin {
		return 0, ErrInvalidAmount
	}

	newMargin := pos.Margin - amount
	pnl := fpmath.MarkPnL(pos.NotionalExposure, pos.EntryPrice, currentPrice)
	newRatio := fpmath.MarginRatioBps(newMargin, pnl, pos.NotionalExposure)
	if newRatio < risk.MinMarginRatioBps {
		return 0, ErrMarginRatioTooLow
	}

	pos.Margin = newMargin
	pos.LastUpdateBlock = currentBlock
	pos.Version++
	me.aggregates.AdjustMargin(-amount)

	return newRatio, nil
}
