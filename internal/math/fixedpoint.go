package math

import (
	"math/big"
	"sync"
)

// Fixed-point scales used across the pool.
const (
	CollateralScale int64 = 1_000_000   // 0.000001 of the collateral asset
	PriceScale      int64 = 1_000_000   // 0.000001 quote per backing unit
	RateScale       int64 = 100_000_000 // 0.00000001 (annualized interest rate)
	BpsScale        int64 = 10_000      // basis points
)

type RoundingMode int

const (
	RoundHalfEven RoundingMode = iota // Banker's rounding (default)
	RoundDown
	RoundUp
)

// Int128 is a pooled big.Int for intermediate calculations
var int128Pool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getInt128() *big.Int {
	return int128Pool.Get().(*big.Int)
}

func putInt128(v *big.Int) {
	v.SetInt64(0) // Clear before returning to pool
	int128Pool.Put(v)
}

// MultiplyInt128 performs a * b using int128 to prevent overflow
func MultiplyInt128(a, b int64) *big.Int {
	result := getInt128()
	result.Mul(big.NewInt(a), big.NewInt(b))
	return result
}

// DivideInt128 performs numerator / denominator with rounding.
// Truncation is toward zero, so the rounding adjustment is applied
// symmetrically for negative numerators.
func DivideInt128(numerator *big.Int, denominator int64, roundingMode RoundingMode) int64 {
	denom := big.NewInt(denominator)
	quotient := getInt128()
	remainder := getInt128()

	quotient.QuoRem(numerator, denom, remainder)

	result := quotient.Int64()
	rem := remainder.Int64()
	negative := rem < 0
	if negative {
		rem = -rem
	}

	switch roundingMode {
	case RoundHalfEven:
		half := denominator / 2
		if rem > half || (rem == half && denominator%2 == 0 && result%2 != 0) {
			if negative {
				result--
			} else {
				result++
			}
		}
	case RoundUp:
		if rem != 0 {
			if negative {
				result--
			} else {
				result++
			}
		}
	case RoundDown:
		// Truncation already applied by QuoRem
	}

	putInt128(quotient)
	putInt128(remainder)

	return result
}

// MulCheck computes a * b with an int128 intermediate, reporting whether
// the product fits in int64. A raw int64 multiply would wrap silently.
func MulCheck(a, b int64) (int64, bool) {
	prod := MultiplyInt128(a, b)
	ok := prod.IsInt64()
	var v int64
	if ok {
		v = prod.Int64()
	}
	putInt128(prod)
	return v, ok
}

// MulDiv computes a * b / denom with an int128 intermediate.
func MulDiv(a, b, denom int64, mode RoundingMode) int64 {
	num := MultiplyInt128(a, b)
	result := DivideInt128(num, denom, mode)
	putInt128(num)
	return result
}

// BpsOf returns amount * bps / 10_000 with banker's rounding.
func BpsOf(amount, bps int64) int64 {
	return MulDiv(amount, bps, BpsScale, RoundHalfEven)
}

// ApplyFeeBps deducts a basis-point fee from amount.
// Returns (net, fee) where net + fee == amount exactly.
func ApplyFeeBps(amount, feeBps int64) (net int64, fee int64) {
	fee = BpsOf(amount, feeBps)
	return amount - fee, fee
}

// RatioBps returns num / denom scaled to basis points.
// Returns MaxInt64 when denom == 0 (no exposure is always healthy).
func RatioBps(num, denom int64) int64 {
	if denom == 0 {
		return MaxInt64
	}
	return MulDiv(num, BpsScale, denom, RoundHalfEven)
}

const MaxInt64 = int64(^uint64(0) >> 1)

func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
