package pool

import (
	"context"
	"errors"
	"testing"

	"HedgePool/internal/state"
)

// Price at which the canonical 10_000 @ 5x position (net margin 9_900,
// notional 49_500) has ratio 400 bps, below the 500 bps threshold.
const underwaterPrice = int64(1_160_000)

// ==========================================================================
// Commit
// ==========================================================================

func TestCommitLiquidation_RoleGated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	hash := state.HashSalt([]byte("salt"))

	err := env.pool.CommitLiquidation(ctx, env.hedger, env.hedger, res.PositionID, hash)
	if !errors.Is(err, state.ErrUnauthorized) {
		t.Errorf("commit by non-liquidator err = %v, want ErrUnauthorized", err)
	}

	if err := env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, hash); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Second commit on the same pair while live.
	err = env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, hash)
	if !errors.Is(err, state.ErrCommitmentActive) {
		t.Errorf("duplicate commit err = %v, want ErrCommitmentActive", err)
	}
}

func TestCommitLiquidation_UnknownPositionRejected(t *testing.T) {
	env := newTestEnv(t)

	err := env.pool.CommitLiquidation(context.Background(), env.liquidator, env.hedger, 999,
		state.HashSalt([]byte("salt")))
	if !errors.Is(err, state.ErrPositionOwnerMismatch) {
		t.Errorf("err = %v, want ErrPositionOwnerMismatch", err)
	}
}

// ==========================================================================
// Reveal
// ==========================================================================

func TestLiquidateHedger_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	salt := []byte("reveal-salt")

	if err := env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, state.HashSalt(salt)); err != nil {
		t.Fatalf("commit: %v", err)
	}

	env.oracle.SetPrice(underwaterPrice, true)

	// Reveal before the cooldown has elapsed.
	_, err := env.pool.LiquidateHedger(ctx, env.liquidator, env.hedger, res.PositionID, salt)
	if !errors.Is(err, state.ErrNoValidCommitment) {
		t.Fatalf("early reveal err = %v, want ErrNoValidCommitment", err)
	}

	env.blocks.Advance(state.DefaultCommitCooldownBlocks)

	// Wrong salt does not burn the commitment.
	if _, err := env.pool.LiquidateHedger(ctx, env.liquidator, env.hedger, res.PositionID, []byte("wrong")); !errors.Is(err, state.ErrNoValidCommitment) {
		t.Fatalf("wrong salt err = %v, want ErrNoValidCommitment", err)
	}

	lres, err := env.pool.LiquidateHedger(ctx, env.liquidator, env.hedger, res.PositionID, salt)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	// pnl = 49_500 - 57_420 = -7_920; equity = 1_980;
	// reward = 5% of margin 9_900 = 495; remainder = 1_485.
	if lres.Equity != 1_980 {
		t.Errorf("equity = %d, want 1_980", lres.Equity)
	}
	if lres.Reward != 495 {
		t.Errorf("reward = %d, want 495", lres.Reward)
	}
	if lres.Remainder != 1_485 {
		t.Errorf("remainder = %d, want 1_485", lres.Remainder)
	}

	if got := env.custody.Net(env.liquidator); got != 495 {
		t.Errorf("liquidator custody net = %d, want 495", got)
	}

	stats, _ := env.pool.Stats(ctx)
	if stats.OpenPositions != 0 || stats.TotalMargin != 0 || stats.TotalExposure != 0 {
		t.Errorf("aggregates not zeroed after liquidation: %+v", stats)
	}

	// The remainder is claimable by the owner.
	view, err := env.pool.Rewards(ctx, env.hedger)
	if err != nil {
		t.Fatalf("rewards view: %v", err)
	}
	if view.ClaimableMargin != 1_485 {
		t.Errorf("claimable margin = %d, want 1_485", view.ClaimableMargin)
	}

	amount, err := env.pool.WithdrawClaimableMargin(ctx, env.hedger)
	if err != nil {
		t.Fatalf("withdraw claimable: %v", err)
	}
	if amount != 1_485 {
		t.Errorf("withdrawn = %d, want 1_485", amount)
	}
	if amount, _ := env.pool.WithdrawClaimableMargin(ctx, env.hedger); amount != 0 {
		t.Errorf("second withdraw = %d, want 0", amount)
	}
}

func TestLiquidateHedger_HealthyPositionKeepsCommitment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	salt := []byte("salt")

	if err := env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, state.HashSalt(salt)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	env.blocks.Advance(state.DefaultCommitCooldownBlocks)

	// Price unchanged: ratio is 2_000 bps, far above the threshold.
	_, err := env.pool.LiquidateHedger(ctx, env.liquidator, env.hedger, res.PositionID, salt)
	if !errors.Is(err, state.ErrPositionHealthy) {
		t.Fatalf("err = %v, want ErrPositionHealthy", err)
	}

	// The commitment survives a failed health re-check.
	_, found, err := env.pool.Commitment(ctx, env.hedger, res.PositionID)
	if err != nil || !found {
		t.Errorf("commitment gone after healthy reveal (found=%v, err=%v)", found, err)
	}
}

func TestLiquidateHedger_WrongCallerRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	salt := []byte("salt")

	if err := env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, state.HashSalt(salt)); err != nil {
		t.Fatalf("commit: %v", err)
	}
	env.oracle.SetPrice(underwaterPrice, true)
	env.blocks.Advance(state.DefaultCommitCooldownBlocks)

	_, err := env.pool.LiquidateHedger(ctx, env.hedger, env.hedger, res.PositionID, salt)
	if !errors.Is(err, state.ErrNoValidCommitment) {
		t.Errorf("err = %v, want ErrNoValidCommitment", err)
	}
}

// ==========================================================================
// Cancel and expiry
// ==========================================================================

func TestCancelCommitment_CommitterOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	if err := env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, state.HashSalt([]byte("s"))); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := env.pool.CancelLiquidationCommitment(ctx, env.hedger, env.hedger, res.PositionID); !errors.Is(err, state.ErrUnauthorized) {
		t.Errorf("cancel by stranger err = %v, want ErrUnauthorized", err)
	}
	if err := env.pool.CancelLiquidationCommitment(ctx, env.liquidator, env.hedger, res.PositionID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, found, _ := env.pool.Commitment(ctx, env.hedger, res.PositionID); found {
		t.Error("commitment still present after cancel")
	}
}

func TestClearExpiredCommitment_AnyoneAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.mustOpen(t, env.hedger, 10_000, 5)
	if err := env.pool.CommitLiquidation(ctx, env.liquidator, env.hedger, res.PositionID, state.HashSalt([]byte("s"))); err != nil {
		t.Fatalf("commit: %v", err)
	}

	stranger := env.hedger
	if err := env.pool.ClearExpiredLiquidationCommitment(ctx, stranger, env.hedger, res.PositionID); !errors.Is(err, state.ErrNoValidCommitment) {
		t.Errorf("clear before expiry err = %v, want ErrNoValidCommitment", err)
	}

	env.blocks.Advance(state.DefaultCommitExpiryBlocks)
	if err := env.pool.ClearExpiredLiquidationCommitment(ctx, stranger, env.hedger, res.PositionID); err != nil {
		t.Fatalf("clear expired: %v", err)
	}
	if _, found, _ := env.pool.Commitment(ctx, env.hedger, res.PositionID); found {
		t.Error("commitment still present after clear")
	}
}
