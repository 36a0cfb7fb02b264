// Package curve implements constant-product (x * y = k) swap arithmetic.
//
// Every function is pure and integer-only. Intermediates are computed in 128
// bits, so the product of two u64 reserves never wraps.
package curve

import (
	"math"

	"lukechampine.com/uint128"
)

const bpsDenominator = 10_000

// Invariant returns k = x * y.
func Invariant(x, y uint64) uint128.Uint128 {
	return uint128.From64(x).Mul64(y)
}

// DeltaYFromXSwapAmount returns the amount of Y released when deltaX of X is
// deposited into reserves (x, y): y - floor(x*y / (x + deltaX)).
func DeltaYFromXSwapAmount(x, y, deltaX uint64) (uint64, error) {
	return counterDelta(x, y, deltaX)
}

// DeltaXFromYSwapAmount returns the amount of X released when deltaY of Y is
// deposited into reserves (x, y): x - floor(x*y / (y + deltaY)).
func DeltaXFromYSwapAmount(x, y, deltaY uint64) (uint64, error) {
	return counterDelta(y, x, deltaY)
}

// counterDelta returns reserveOut - floor(reserveIn*reserveOut / (reserveIn+amountIn)).
func counterDelta(reserveIn, reserveOut, amountIn uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInvalidReserves
	}
	if amountIn == 0 {
		return 0, ErrInvalidAmount
	}

	k := Invariant(reserveIn, reserveOut)
	updatedIn := uint128.From64(reserveIn).Add64(amountIn)
	if updatedIn.IsZero() {
		return 0, ErrDivisionByZero
	}

	newOut := k.Div(updatedIn)
	if newOut.Cmp64(reserveOut) > 0 {
		return 0, ErrOverflow
	}
	// A zero opposite reserve would hand the whole side to one trader.
	if newOut.IsZero() {
		return 0, ErrInsufficientLiquidity
	}

	return reserveOut - newOut.Lo, nil
}

// AmountInForExactOut returns the smallest deposit into reserveIn that
// releases at least amountOut from reserveOut.
func AmountInForExactOut(reserveIn, reserveOut, amountOut uint64) (uint64, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInvalidReserves
	}
	if amountOut == 0 {
		return 0, ErrInvalidAmount
	}
	if amountOut >= reserveOut {
		return 0, ErrInsufficientLiquidity
	}

	k := Invariant(reserveIn, reserveOut)

	// floor(k / d) <= remaining holds exactly when d > k / (remaining + 1).
	// The smallest such d is strictly greater than reserveIn.
	bound := uint128.From64(reserveOut - amountOut).Add64(1)
	newIn := k.Div(bound).Add64(1)

	amountIn := newIn.Sub64(reserveIn)
	if amountIn.Hi != 0 {
		return 0, ErrOverflow
	}
	return amountIn.Lo, nil
}

// AddReserve returns r + d, or ErrOverflow if a custody balance would no
// longer fit in a u64.
func AddReserve(r, d uint64) (uint64, error) {
	sum := uint128.From64(r).Add64(d)
	if sum.Hi != 0 {
		return 0, ErrOverflow
	}
	return sum.Lo, nil
}

// ApplySlippage calculates minimum output with slippage tolerance.
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= bpsDenominator {
		return 0
	}
	factor := uint64(bpsDenominator - slippageBps)
	return uint128.From64(amountOut).Mul64(factor).Div64(bpsDenominator).Lo
}

// PriceImpact reports how far the execution rate falls below the spot rate,
// as a fraction (0.01 = 1%). Informational only.
func PriceImpact(reserveIn, reserveOut, amountIn, amountOut uint64) float64 {
	if reserveIn == 0 || amountIn == 0 {
		return 0
	}
	idealRate := float64(reserveOut) / float64(reserveIn)
	executionRate := float64(amountOut) / float64(amountIn)
	if idealRate <= 0 {
		return 0
	}
	return math.Max(0, 1-(executionRate/idealRate))
}
