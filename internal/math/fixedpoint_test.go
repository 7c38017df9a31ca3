package math_test

import (
	"testing"

	fpmath "HedgePool/internal/math"
)

// ============================================================================
// Test: MulDiv / rounding
// ============================================================================

func TestMulDiv_Exact(t *testing.T) {
	got := fpmath.MulDiv(10_000, 5, 1, fpmath.RoundHalfEven)
	if got != 50_000 {
		t.Errorf("got %d, want 50_000", got)
	}
}

func TestMulDiv_HalfEven_RoundsToEven(t *testing.T) {
	// 5/2 = 2.5 -> rounds to 2 (even)
	if got := fpmath.MulDiv(5, 1, 2, fpmath.RoundHalfEven); got != 2 {
		t.Errorf("5/2 half-even: got %d, want 2", got)
	}
	// 7/2 = 3.5 -> rounds to 4 (even)
	if got := fpmath.MulDiv(7, 1, 2, fpmath.RoundHalfEven); got != 4 {
		t.Errorf("7/2 half-even: got %d, want 4", got)
	}
}

func TestMulDiv_RoundDown(t *testing.T) {
	if got := fpmath.MulDiv(7, 1, 2, fpmath.RoundDown); got != 3 {
		t.Errorf("7/2 down: got %d, want 3", got)
	}
}

func TestMulDiv_RoundUp(t *testing.T) {
	if got := fpmath.MulDiv(7, 1, 3, fpmath.RoundUp); got != 3 {
		t.Errorf("7/3 up: got %d, want 3", got)
	}
}

func TestMulDiv_NegativeSymmetric(t *testing.T) {
	pos := fpmath.MulDiv(7, 1, 2, fpmath.RoundHalfEven)
	neg := fpmath.MulDiv(-7, 1, 2, fpmath.RoundHalfEven)
	if neg != -pos {
		t.Errorf("rounding not symmetric: %d vs %d", pos, neg)
	}
}

func TestMulDiv_LargeIntermediateNoOverflow(t *testing.T) {
	// a*b overflows int64 but the int128 intermediate must not.
	a := int64(9_000_000_000_000)
	b := int64(9_000_000)
	got := fpmath.MulDiv(a, b, b, fpmath.RoundHalfEven)
	if got != a {
		t.Errorf("got %d, want %d", got, a)
	}
}

func TestMulCheck_DetectsOverflow(t *testing.T) {
	if got, ok := fpmath.MulCheck(9_900, 5); !ok || got != 49_500 {
		t.Errorf("got (%d, %v), want (49_500, true)", got, ok)
	}
	if _, ok := fpmath.MulCheck(fpmath.MaxInt64, 2); ok {
		t.Error("overflowing product reported as fitting int64")
	}
	if _, ok := fpmath.MulCheck(fpmath.MaxInt64/3, 10); ok {
		t.Error("overflowing product reported as fitting int64")
	}
	if got, ok := fpmath.MulCheck(-fpmath.MaxInt64, 1); !ok || got != -fpmath.MaxInt64 {
		t.Errorf("got (%d, %v), want (-MaxInt64, true)", got, ok)
	}
}

// ============================================================================
// Test: fees and ratios
// ============================================================================

func TestApplyFeeBps_OnePercent(t *testing.T) {
	net, fee := fpmath.ApplyFeeBps(10_000, 100)
	if net != 9_900 || fee != 100 {
		t.Errorf("got net=%d fee=%d, want 9_900/100", net, fee)
	}
	if net+fee != 10_000 {
		t.Error("net + fee must equal gross exactly")
	}
}

func TestApplyFeeBps_ZeroFee(t *testing.T) {
	net, fee := fpmath.ApplyFeeBps(12_345, 0)
	if net != 12_345 || fee != 0 {
		t.Errorf("got net=%d fee=%d", net, fee)
	}
}

func TestRatioBps_ZeroDenom(t *testing.T) {
	if got := fpmath.RatioBps(100, 0); got != fpmath.MaxInt64 {
		t.Errorf("zero denom should report MaxInt64, got %d", got)
	}
}

func TestRatioBps_Basic(t *testing.T) {
	// 9_900 / 49_500 = 20% = 2_000 bps
	if got := fpmath.RatioBps(9_900, 49_500); got != 2_000 {
		t.Errorf("got %d, want 2_000", got)
	}
}

func TestClamp(t *testing.T) {
	if got := fpmath.Clamp(-5, 0, 10); got != 0 {
		t.Errorf("clamp low: got %d", got)
	}
	if got := fpmath.Clamp(15, 0, 10); got != 10 {
		t.Errorf("clamp high: got %d", got)
	}
	if got := fpmath.Clamp(5, 0, 10); got != 5 {
		t.Errorf("clamp mid: got %d", got)
	}
}
