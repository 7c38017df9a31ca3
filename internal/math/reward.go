package math

import "math/big"

// InterestDifferentialReward computes the time-weighted reward a hedger
// earns from the interest-rate differential between the quote-side and
// collateral-side rates, accrued per block on notional exposure.
//
//	reward = exposure * (usdRate - eurRate) * elapsedBlocks / blocksPerYear
//
// Rates are RateScale fixed-point annualized rates. The reward is zero
// whenever the differential is non-positive or no blocks have elapsed,
// and is monotonically non-decreasing in exposure and elapsed blocks.
func InterestDifferentialReward(
	exposure int64,
	eurRate int64,
	usdRate int64,
	fromBlock uint64,
	toBlock uint64,
	blocksPerYear uint64,
) int64 {
	if exposure <= 0 || blocksPerYear == 0 {
		return 0
	}
	if usdRate <= eurRate {
		return 0
	}
	if toBlock <= fromBlock {
		return 0
	}

	differential := usdRate - eurRate
	elapsed := int64(toBlock - fromBlock)

	// raw = exposure * differential * elapsed, then rescale out of
	// RateScale and annualize over blocksPerYear.
	raw := MultiplyInt128(exposure, differential)
	raw.Mul(raw, big.NewInt(elapsed))

	annualized := DivideInt128(raw, RateScale*int64(blocksPerYear), RoundDown)
	putInt128(raw)

	return annualized
}
