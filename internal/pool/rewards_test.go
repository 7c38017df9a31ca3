package pool

import (
	"context"
	"errors"
	"testing"

	"HedgePool/internal/state"
)

// ==========================================================================
// Interest-differential claims
// ==========================================================================

func TestClaimHedgingRewards_FullYearAccrual(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustOpen(t, env.hedger, 10_000, 5)

	// One full year of blocks on 49_500 exposure at a 2% differential.
	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)

	view, err := env.pool.Rewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("rewards view: %v", err)
	}
	if view.PendingReward != 990 {
		t.Errorf("pending reward = %d, want 990", view.PendingReward)
	}

	claim, err := env.pool.ClaimHedgingRewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.InterestDifferential != 990 {
		t.Errorf("interest differential = %d, want 990", claim.InterestDifferential)
	}
	if claim.Total != 990 {
		t.Errorf("total = %d, want 990", claim.Total)
	}

	// Immediately claiming again yields nothing.
	claim, err = env.pool.ClaimHedgingRewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claim.InterestDifferential != 0 {
		t.Errorf("second claim = %d, want 0", claim.InterestDifferential)
	}
}

func TestClaimHedgingRewards_IncludesExternalYield(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustOpen(t, env.hedger, 10_000, 5)
	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)

	env.dist.SetYield(123)

	claim, err := env.pool.ClaimHedgingRewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.ExternalYieldShare != 123 {
		t.Errorf("external share = %d, want 123", claim.ExternalYieldShare)
	}
	if claim.Total != claim.InterestDifferential+123 {
		t.Errorf("total = %d, want %d", claim.Total, claim.InterestDifferential+123)
	}
}

func TestClaimHedgingRewards_DistributorFailureLeavesAccrualIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustOpen(t, env.hedger, 10_000, 5)
	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)

	env.dist.SetError(errors.New("distributor offline"))

	if _, err := env.pool.ClaimHedgingRewards(ctx, env.hedger); err == nil {
		t.Fatal("claim succeeded despite distributor failure")
	}

	view, _ := env.pool.Rewards(ctx, env.hedger)
	if view.PendingReward != 990 {
		t.Errorf("pending reward = %d after failed claim, want 990", view.PendingReward)
	}
}

func TestClaimHedgingRewards_CustodyFailurePreservesYield(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustOpen(t, env.hedger, 10_000, 5)
	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)
	env.dist.SetYield(7_777)

	env.custody.FailNext()
	if _, err := env.pool.ClaimHedgingRewards(ctx, env.hedger); err == nil {
		t.Fatal("claim succeeded despite custody failure")
	}

	// Nothing was drained, so a retry delivers everything.
	if got := env.dist.Yield(); got != 7_777 {
		t.Errorf("unsettled yield = %d after failed claim, want 7_777", got)
	}
	view, _ := env.pool.Rewards(ctx, env.hedger)
	if view.PendingReward != 990 {
		t.Errorf("pending reward = %d after failed claim, want 990", view.PendingReward)
	}

	claim, err := env.pool.ClaimHedgingRewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("retry claim: %v", err)
	}
	if claim.ExternalYieldShare != 7_777 {
		t.Errorf("external share = %d, want 7_777", claim.ExternalYieldShare)
	}
	if claim.InterestDifferential != 990 {
		t.Errorf("interest differential = %d, want 990", claim.InterestDifferential)
	}
	if got := env.dist.Yield(); got != 0 {
		t.Errorf("unsettled yield = %d after delivered claim, want 0", got)
	}
}

func TestClaimHedgingRewards_SurvivesClose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)

	if _, err := env.pool.ClosePosition(ctx, env.hedger, res.PositionID); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Accrual was banked at termination and is still claimable.
	claim, err := env.pool.ClaimHedgingRewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.InterestDifferential != 990 {
		t.Errorf("banked reward = %d, want 990", claim.InterestDifferential)
	}
}

// ==========================================================================
// Interest rate updates
// ==========================================================================

func TestUpdateInterestRates_CheckpointsBeforeSwap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.mustOpen(t, env.hedger, 10_000, 5)
	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)

	// Flatten the differential. The year already elapsed must still pay
	// out under the old rates.
	flat := state.InterestRates{
		EurRate:       2_000_000,
		UsdRate:       2_000_000,
		BlocksPerYear: state.DefaultInterestRates.BlocksPerYear,
	}
	if err := env.pool.UpdateInterestRates(ctx, env.gov, flat); err != nil {
		t.Fatalf("update rates: %v", err)
	}

	env.blocks.Advance(state.DefaultInterestRates.BlocksPerYear)

	claim, err := env.pool.ClaimHedgingRewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.InterestDifferential != 990 {
		t.Errorf("claimed = %d, want 990 (old-rate year only)", claim.InterestDifferential)
	}
}

func TestUpdateInterestRates_GovernanceOnly(t *testing.T) {
	env := newTestEnv(t)

	err := env.pool.UpdateInterestRates(context.Background(), env.hedger, state.DefaultInterestRates)
	if !errors.Is(err, state.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}
