package state

import (
	"github.com/google/uuid"

	fpmath "HedgePool/internal/math"
)

// RewardBook tracks interest-differential reward accrual and the
// per-hedger claimable balances that outlive individual positions.
// Accrual on an active position is checkpointed into the position's
// AccumulatedReward; termination banks it into the hedger's balance so
// nothing is lost when the position record goes inactive.
type RewardBook struct {
	bankedReward    map[uuid.UUID]int64 // reward from terminated positions
	claimableMargin map[uuid.UUID]int64 // margin returned by liquidation/emergency paths
}

func NewRewardBook() *RewardBook {
	return &RewardBook{
		bankedReward:    make(map[uuid.UUID]int64),
		claimableMargin: make(map[uuid.UUID]int64),
	}
}

// Checkpoint accrues the reward earned by a position since its last
// checkpoint and advances the checkpoint block. Safe to call repeatedly;
// a zero-elapsed checkpoint accrues nothing.
func (rb *RewardBook) Checkpoint(pos *Position, rates InterestRates, currentBlock uint64) int64 {
	if !pos.Active || currentBlock <= pos.LastRewardBlock {
		return 0
	}

	reward := fpmath.InterestDifferentialReward(
		pos.NotionalExposure,
		rates.EurRate,
		rates.UsdRate,
		pos.LastRewardBlock,
		currentBlock,
		rates.BlocksPerYear,
	)

	pos.AccumulatedReward += reward
	pos.LastRewardBlock = currentBlock

	return reward
}

// Bank moves a terminating position's accrued reward into its owner's
// hedger-level balance. Called exactly once, on termination.
func (rb *RewardBook) Bank(pos *Position) {
	if pos.AccumulatedReward != 0 {
		rb.bankedReward[pos.Owner] += pos.AccumulatedReward
		pos.AccumulatedReward = 0
	}
}

// CreditMargin adds returned collateral to the hedger's claimable balance.
func (rb *RewardBook) CreditMargin(hedger uuid.UUID, amount int64) {
	if amount > 0 {
		rb.claimableMargin[hedger] += amount
	}
}

// ClaimRewards checkpoints all of the hedger's active positions at
// currentBlock, then drains every accrued counter (active and banked).
// Returns the total interest-differential reward claimed.
func (rb *RewardBook) ClaimRewards(
	hedger uuid.UUID,
	ledger *PositionLedger,
	rates InterestRates,
	currentBlock uint64,
) int64 {
	total := rb.bankedReward[hedger]
	delete(rb.bankedReward, hedger)

	for _, id := range ledger.ActiveIDs(hedger) {
		pos := ledger.Get(id)
		rb.Checkpoint(pos, rates, currentBlock)
		total += pos.AccumulatedReward
		pos.AccumulatedReward = 0
		pos.Version++
	}

	return total
}

// WithdrawMargin drains the hedger's claimable margin balance and
// returns the amount to pay out.
func (rb *RewardBook) WithdrawMargin(hedger uuid.UUID) int64 {
	amount := rb.claimableMargin[hedger]
	delete(rb.claimableMargin, hedger)
	return amount
}

// PendingRewards returns the hedger's accrued-but-unclaimed reward as of
// currentBlock without mutating any checkpoint.
func (rb *RewardBook) PendingRewards(
	hedger uuid.UUID,
	ledger *PositionLedger,
	rates InterestRates,
	currentBlock uint64,
) int64 {
	total := rb.bankedReward[hedger]

	for _, id := range ledger.ActiveIDs(hedger) {
		pos := ledger.Get(id)
		total += pos.AccumulatedReward
		if currentBlock > pos.LastRewardBlock {
			total += fpmath.InterestDifferentialReward(
				pos.NotionalExposure,
				rates.EurRate,
				rates.UsdRate,
				pos.LastRewardBlock,
				currentBlock,
				rates.BlocksPerYear,
			)
		}
	}

	return total
}

// ClaimableMargin returns the hedger's unclaimed returned-margin balance.
func (rb *RewardBook) ClaimableMargin(hedger uuid.UUID) int64 {
	return rb.claimableMargin[hedger]
}

// Balances returns both balance maps (for snapshots).
func (rb *RewardBook) Balances() (banked map[uuid.UUID]int64, claimable map[uuid.UUID]int64) {
	banked = make(map[uuid.UUID]int64, len(rb.bankedReward))
	for k, v := range rb.bankedReward {
		banked[k] = v
	}
	claimable = make(map[uuid.UUID]int64, len(rb.claimableMargin))
	for k, v := range rb.claimableMargin {
		claimable[k] = v
	}
	return banked, claimable
}

// RestoreBalances re-seats balances from a snapshot.
func (rb *RewardBook) RestoreBalances(banked, claimable map[uuid.UUID]int64) {
	for k, v := range banked {
		rb.bankedReward[k] = v
	}
	for k, v := range claimable {
		rb.claimableMargin[k] = v
	}
}
