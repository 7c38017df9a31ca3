package state_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"HedgePool/internal/state"
)

const entryPrice = int64(1_000_000)

func newMarginFixture() (*state.MarginEngine, *state.PositionLedger, *state.PoolAggregates, *state.CommitmentBook) {
	pl := state.NewPositionLedger()
	pa := state.NewPoolAggregates()
	cb := state.NewCommitmentBook(state.DefaultCommitCooldownBlocks, state.DefaultCommitExpiryBlocks)
	me := state.NewMarginEngine(pl, pa, cb)
	return me, pl, pa, cb
}

// ============================================================================
// Test: OpenPosition
// ============================================================================

func TestOpenPosition_FeeAndNotional(t *testing.T) {
	me, _, pa, _ := newMarginFixture()
	owner := uuid.New()

	// The canonical scenario: 10_000 gross at 5x with a 1% entry fee
	pos, fee, err := me.OpenPosition(owner, 10_000, 5,
		state.FeeConfig{EntryFeeBps: 100},
		state.DefaultRiskConfig,
		entryPrice, time.Unix(0, 0), 100)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if pos.Margin != 9_900 {
		t.Errorf("net margin: got %d, want 9_900", pos.Margin)
	}
	if pos.NotionalExposure != 49_500 {
		t.Errorf("notional: got %d, want 49_500", pos.NotionalExposure)
	}
	if fee != 100 {
		t.Errorf("entry fee: got %d, want 100", fee)
	}
	if !pos.Active || pos.ID == 0 {
		t.Error("position must be active with an assigned id")
	}
	if pa.TotalMargin != 9_900 || pa.TotalExposure != 49_500 {
		t.Errorf("aggregates: margin=%d exposure=%d", pa.TotalMargin, pa.TotalExposure)
	}
}

func TestOpenPosition_ZeroMargin(t *testing.T) {
	me, _, _, _ := newMarginFixture()

	_, _, err := me.OpenPosition(uuid.New(), 0, 5,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)
	if err != state.ErrInvalidAmount {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestOpenPosition_LeverageBounds(t *testing.T) {
	me, _, _, _ := newMarginFixture()

	_, _, err := me.OpenPosition(uuid.New(), 10_000, 11,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)
	if err != state.ErrLeverageTooHigh {
		t.Errorf("above max: got %v, want ErrLeverageTooHigh", err)
	}

	_, _, err = me.OpenPosition(uuid.New(), 10_000, 0,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)
	if err != state.ErrLeverageTooHigh {
		t.Errorf("below 1: got %v, want ErrLeverageTooHigh", err)
	}
}

func TestOpenPosition_NotionalOverflowRejected(t *testing.T) {
	me, _, pa, _ := newMarginFixture()

	// Margin large enough that margin * leverage wraps int64. The open
	// must fail cleanly instead of recording a garbage notional.
	_, _, err := me.OpenPosition(uuid.New(), math.MaxInt64, 10,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)
	if err != state.ErrInvalidAmount {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
	if pa.TotalExposure != 0 || pa.TotalMargin != 0 {
		t.Errorf("aggregates mutated on rejected open: margin=%d exposure=%d",
			pa.TotalMargin, pa.TotalExposure)
	}
}

func TestOpenPosition_RatioRecheckCatchesMisconfiguredLeverageCap(t *testing.T) {
	me, _, _, _ := newMarginFixture()

	// A leverage cap above 1/minRatio would admit ratios below the floor;
	// the construction-time re-check must reject it.
	risk := state.DefaultRiskConfig
	risk.MaxLeverage = 20 // 20x -> 500 bps < min 1_000 bps

	_, _, err := me.OpenPosition(uuid.New(), 10_000, 20,
		state.DefaultFeeConfig, risk, entryPrice, time.Unix(0, 0), 100)
	if err != state.ErrMarginRatioTooLow {
		t.Errorf("got %v, want ErrMarginRatioTooLow", err)
	}
}

// ============================================================================
// Test: AddMargin
// ============================================================================

func TestAddMargin_AppliesFeeAndRaisesRatio(t *testing.T) {
	me, pl, pa, _ := newMarginFixture()
	owner := uuid.New()

	pos, _, _ := me.OpenPosition(owner, 10_000, 5,
		state.FeeConfig{EntryFeeBps: 100, MarginFeeBps: 25},
		state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)

	ratio, fee, err := me.AddMargin(owner, pos.ID, 5_000, entryPrice,
		state.FeeConfig{EntryFeeBps: 100, MarginFeeBps: 25}, state.DefaultRiskConfig, 110)
	if err != nil {
		t.Fatalf("add margin: %v", err)
	}

	// 5_000 * 0.25% fee = 12 (half-even), net 4_988
	wantMargin := int64(9_900 + 4_988)
	if got := pl.Get(pos.ID).Margin; got != wantMargin {
		t.Errorf("margin: got %d, want %d", got, wantMargin)
	}
	if fee != 12 {
		t.Errorf("margin fee: got %d, want 12", fee)
	}
	if ratio <= 2_000 {
		t.Errorf("ratio should rise above opening 2_000 bps, got %d", ratio)
	}
	if pa.TotalMargin != wantMargin {
		t.Errorf("aggregate margin: got %d", pa.TotalMargin)
	}
}

func TestAddMargin_MustRestoreRatioFloor(t *testing.T) {
	me, pl, _, _ := newMarginFixture()
	owner := uuid.New()

	pos, _, _ := me.OpenPosition(owner, 10_000_000, 5,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)

	// At +15% the position is 7_425_000 underwater. A 1_000_000 top-up
	// leaves roughly 702 bps, still under the 1_000 bps floor, and must
	// be rejected whole rather than accepted as a partial rescue.
	marked := int64(1_150_000)
	_, _, err := me.AddMargin(owner, pos.ID, 1_000_000, marked,
		state.DefaultFeeConfig, state.DefaultRiskConfig, 110)
	if err != state.ErrMarginRatioTooLow {
		t.Errorf("got %v, want ErrMarginRatioTooLow", err)
	}
	if got := pl.Get(pos.ID).Margin; got != 9_900_000 {
		t.Errorf("margin mutated on rejected top-up: %d", got)
	}

	// A top-up that clears the floor goes through.
	ratio, _, err := me.AddMargin(owner, pos.ID, 3_000_000, marked,
		state.DefaultFeeConfig, state.DefaultRiskConfig, 110)
	if err != nil {
		t.Fatalf("add margin: %v", err)
	}
	if ratio < state.DefaultRiskConfig.MinMarginRatioBps {
		t.Errorf("resulting ratio %d below floor", ratio)
	}
}

func TestAddMargin_NotOwner(t *testing.T) {
	me, _, _, _ := newMarginFixture()
	owner := uuid.New()

	pos, _, _ := me.OpenPosition(owner, 10_000, 5,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)

	_, _, err := me.AddMargin(uuid.New(), pos.ID, 1_000, entryPrice,
		state.DefaultFeeConfig, state.DefaultRiskConfig, 110)
	if err != state.ErrPositionOwnerMismatch {
		t.Errorf("got %v, want ErrPositionOwnerMismatch", err)
	}
}

func TestAddMargin_BlockedByLiveCommitment(t *testing.T) {
	me, _, _, cb := newMarginFixture()
	owner := uuid.New()

	pos, _, _ := me.OpenPosition(owner, 10_000, 5,
		state.DefaultFeeConfig, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)

	liquidator := uuid.New()
	hash := state.HashSalt([]byte("salt"))
	if _, err := cb.Commit(liquidator, owner, pos.ID, hash, 200); err != nil {
		t.Fatalf("commit: %v", err)
	}

	_, _, err := me.AddMargin(owner, pos.ID, 1_000, entryPrice,
		state.DefaultFeeConfig, state.DefaultRiskConfig, 205)
	if err != state.ErrCommitmentActive {
		t.Errorf("margin rescue inside liquidation window: got %v, want ErrCommitmentActive", err)
	}

	// Once the commitment expires, the top-up goes through again
	_, _, err = me.AddMargin(owner, pos.ID, 1_000, entryPrice,
		state.DefaultFeeConfig, state.DefaultRiskConfig,
		200+state.DefaultCommitExpiryBlocks)
	if err != nil {
		t.Errorf("after expiry: %v", err)
	}
}

// ============================================================================
// Test: RemoveMargin
// ============================================================================

func TestRemoveMargin_RatioFloor(t *testing.T) {
	me, _, _, _ := newMarginFixture()
	owner := uuid.New()

	pos, _, _ := me.OpenPosition(owner, 10_000, 5,
		state.FeeConfig{EntryFeeBps: 100},
		state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)

	// Opening ratio is exactly the 10% floor at 10x... here 5x opens at
	// 2_000 bps; removing 5_000 would drop to (4_900/49_500) < 1_000 bps.
	_, err := me.RemoveMargin(owner, pos.ID, 5_000, entryPrice, state.DefaultRiskConfig, 110)
	if err != state.ErrMarginRatioTooLow {
		t.Errorf("got %v, want ErrMarginRatioTooLow", err)
	}

	// Removing a sliver that keeps the ratio at/above the floor is fine
	ratio, err := me.RemoveMargin(owner, pos.ID, 4_000, entryPrice, state.DefaultRiskConfig, 110)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ratio < state.DefaultRiskConfig.MinMarginRatioBps {
		t.Errorf("resulting ratio %d below floor", ratio)
	}
}

func TestRemoveMargin_CannotDrainPosition(t *testing.T) {
	me, _, _, _ := newMarginFixture()
	owner := uuid.New()

	pos, _, _ := me.OpenPosition(owner, 10_000, 1,
		state.FeeConfig{}, state.DefaultRiskConfig, entryPrice, time.Unix(0, 0), 100)

	_, err := me.RemoveMargin(owner, pos.ID, pos.Margin, entryPrice, state.DefaultRiskConfig, 110)
	if err != state.ErrInvalidAmount {
		t.Errorf("full drain: got %v, want ErrInvalidAmount", err)
	}
}
