package pool

import (
	"context"

	"github.com/google/uuid"

	"HedgePool/internal/event"
	"HedgePool/internal/state"
)

// UpdateRiskConfig swaps the risk limits. Governance only; allowed while
// paused so a bad parameter can be fixed before resuming.
func (p *HedgingPool) UpdateRiskConfig(ctx context.Context, caller uuid.UUID, cfg state.RiskConfig) error {
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Governance {
			p.reject("update_risk", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if err := state.ValidateRiskConfig(cfg); err != nil {
			p.reject("update_risk", "invalid")
			opErr = err
			return
		}

		p.risk = cfg

		p.emit(event.EventTypeRiskConfigUpdated, event.RiskConfigUpdated{
			MinMarginRatioBps:       cfg.MinMarginRatioBps,
			LiquidationThresholdBps: cfg.LiquidationThresholdBps,
			MaxLeverage:             cfg.MaxLeverage,
			LiquidationPenaltyBps:   cfg.LiquidationPenaltyBps,
		}, nil, p.blocks.CurrentBlock(), p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}

// UpdateFeeConfig swaps the fee schedule. Governance only.
func (p *HedgingPool) UpdateFeeConfig(ctx context.Context, caller uuid.UUID, cfg state.FeeConfig) error {
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Governance {
			p.reject("update_fees", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if err := state.ValidateFeeConfig(cfg); err != nil {
			p.reject("update_fees", "invalid")
			opErr = err
			return
		}

		p.fees = cfg

		p.emit(event.EventTypeFeeConfigUpdated, event.FeeConfigUpdated{
			EntryFeeBps:  cfg.EntryFeeBps,
			ExitFeeBps:   cfg.ExitFeeBps,
			MarginFeeBps: cfg.MarginFeeBps,
		}, nil, p.blocks.CurrentBlock(), p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}

// SetLiquidator grants or revokes the liquidator role. Governance only.
func (p *HedgingPool) SetLiquidator(ctx context.Context, caller uuid.UUID, liquidator uuid.UUID, enabled bool) error {
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Governance {
			p.reject("set_liquidator", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if enabled {
			p.liquidators[liquidator] = true
		} else {
			delete(p.liquidators, liquidator)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// Pause halts every hedger-facing mutation, reveals included. Reads and
// governance config updates stay available. Admin only; idempotent.
func (p *HedgingPool) Pause(ctx context.Context, caller uuid.UUID) error {
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Admin {
			p.reject("pause", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if p.paused {
			return
		}

		p.paused = true
		p.log.Warn().Msg("pool paused")

		p.emit(event.EventTypePoolPaused, event.PoolPaused{By: caller},
			nil, p.blocks.CurrentBlock(), p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}

// Unpause resumes normal operation. Admin only; idempotent. Commitments
// that expired during the pause are cleared on demand, not here.
func (p *HedgingPool) Unpause(ctx context.Context, caller uuid.UUID) error {
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Admin {
			p.reject("unpause", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if !p.paused {
			return
		}

		p.paused = false
		p.log.Info().Msg("pool unpaused")

		p.emit(event.EventTypePoolUnpaused, event.PoolUnpaused{By: caller},
			nil, p.blocks.CurrentBlock(), p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}

// EmergencyClosePosition refunds a position's full remaining margin with
// no exit fee and no PnL settlement. Admin only, and only inside a pause
// window; the position terminates exactly once like any other path.
func (p *HedgingPool) EmergencyClosePosition(
	ctx context.Context,
	caller uuid.UUID,
	hedger uuid.UUID,
	positionID uint64,
) (int64, error) {
	var refund int64
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Admin {
			p.reject("emergency_close", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if !p.paused {
			p.reject("emergency_close", "not_paused")
			opErr = state.ErrPoolNotPaused
			return
		}

		pos, err := p.ledger.GetActiveOwned(hedger, positionID)
		if err != nil {
			opErr = err
			return
		}

		refund = pos.Margin
		if err := p.custody.TransferOut(ctx, hedger, refund); err != nil {
			p.reject("emergency_close", "custody")
			refund = 0
			opErr = err
			return
		}

		block := p.blocks.CurrentBlock()
		p.terminate(pos, state.TerminationEmergencyClose, block)

		p.emit(event.EventTypeEmergencyPositionClosed, event.EmergencyPositionClosed{
			PositionID: positionID,
			Owner:      hedger,
			Refund:     refund,
		}, pos, block, p.blocks.BlockTime())
	})
	if err != nil {
		return 0, err
	}
	return refund, opErr
}
