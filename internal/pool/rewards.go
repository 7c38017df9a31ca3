package pool

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"HedgePool/internal/event"
	"HedgePool/internal/state"
)

// RewardClaim reports a completed reward claim.
type RewardClaim struct {
	InterestDifferential int64
	ExternalYieldShare   int64
	Total                int64
}

// ClaimHedgingRewards settles everything the hedger has earned: the
// interest-differential accrual across all their positions (active and
// terminated) plus the external-yield share from the distributor. The
// yield is quoted up front and the custody payout is the only fallible
// step, so a failure anywhere leaves both books untouched; drains run
// only after the money has moved.
func (p *HedgingPool) ClaimHedgingRewards(
	ctx context.Context,
	hedger uuid.UUID,
) (RewardClaim, error) {
	var res RewardClaim
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("claim_rewards", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		block := p.blocks.CurrentBlock()

		external, err := p.distributor.PendingExternalYield(ctx, hedger)
		if err != nil {
			p.reject("claim_rewards", "distributor")
			opErr = fmt.Errorf("external yield quote: %w", err)
			return
		}

		pending := p.rewards.PendingRewards(hedger, p.ledger, p.rates, block)

		if total := pending + external; total > 0 {
			if err := p.custody.TransferOut(ctx, hedger, total); err != nil {
				p.reject("claim_rewards", "custody")
				opErr = err
				return
			}
		}

		claimed := p.rewards.ClaimRewards(hedger, p.ledger, p.rates, block)
		if claimed != pending {
			panic(fmt.Sprintf("FATAL: reward drain mismatch: pending=%d claimed=%d", pending, claimed))
		}
		if external > 0 {
			if err := p.distributor.SettleExternalYield(hedger, external); err != nil {
				panic("FATAL: yield settle failed after custody payout: " + err.Error())
			}
		}

		if p.metrics != nil {
			p.metrics.RewardsClaimed.Inc()
			p.metrics.RewardAmountClaimed.Add(float64(claimed + external))
		}

		res = RewardClaim{
			InterestDifferential: claimed,
			ExternalYieldShare:   external,
			Total:                claimed + external,
		}

		p.emit(event.EventTypeRewardsClaimed, event.RewardsClaimed{
			Hedger:               hedger,
			InterestDifferential: claimed,
			ExternalYieldShare:   external,
			Total:                res.Total,
		}, nil, block, p.blocks.BlockTime())
	})
	if err != nil {
		return RewardClaim{}, err
	}
	return res, opErr
}

// WithdrawClaimableMargin pays out margin returned to the hedger by
// liquidation remainders. Returns the amount withdrawn; zero when the
// balance is empty.
func (p *HedgingPool) WithdrawClaimableMargin(
	ctx context.Context,
	hedger uuid.UUID,
) (int64, error) {
	var amount int64
	var opErr error

	err := p.do(ctx, func() {
		if p.paused {
			p.reject("withdraw_margin", "paused")
			opErr = state.ErrPoolPaused
			return
		}

		amount = p.rewards.ClaimableMargin(hedger)
		if amount == 0 {
			return
		}

		if err := p.custody.TransferOut(ctx, hedger, amount); err != nil {
			p.reject("withdraw_margin", "custody")
			amount = 0
			opErr = err
			return
		}

		p.rewards.WithdrawMargin(hedger)
	})
	if err != nil {
		return 0, err
	}
	return amount, opErr
}

// UpdateInterestRates swaps the accrual rates. Governance only. Every
// active position is checkpointed under the old rates first so the new
// rates only apply forward.
func (p *HedgingPool) UpdateInterestRates(
	ctx context.Context,
	caller uuid.UUID,
	rates state.InterestRates,
) error {
	var opErr error

	err := p.do(ctx, func() {
		if caller != p.roles.Governance {
			p.reject("update_rates", "unauthorized")
			opErr = state.ErrUnauthorized
			return
		}
		if err := state.ValidateInterestRates(rates); err != nil {
			p.reject("update_rates", "invalid")
			opErr = err
			return
		}

		block := p.blocks.CurrentBlock()
		for _, pos := range p.ledger.ActivePositions() {
			p.rewards.Checkpoint(pos, p.rates, block)
		}

		p.rates = rates

		p.emit(event.EventTypeInterestRatesUpdated, event.InterestRatesUpdated{
			EurRate:       rates.EurRate,
			UsdRate:       rates.UsdRate,
			BlocksPerYear: rates.BlocksPerYear,
		}, nil, block, p.blocks.BlockTime())
	})
	if err != nil {
		return err
	}
	return opErr
}
