package curve

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaYFromXSwapAmount(t *testing.T) {
	tests := []struct {
		name    string
		x, y    uint64
		deltaX  uint64
		want    uint64
		wantErr error
	}{
		{name: "balanced pool", x: 10_000, y: 10_000, deltaX: 1_000, want: 910},
		{name: "skewed pool", x: 1, y: 1_000_000, deltaX: 1, want: 500_000},
		{name: "dust input", x: 10_000, y: 10_000, deltaX: 1, want: 1},
		{name: "max reserves", x: math.MaxUint64, y: math.MaxUint64, deltaX: math.MaxUint64, want: math.MaxUint64 - math.MaxUint64/2},
		{name: "zero x reserve", x: 0, y: 10, deltaX: 1, wantErr: ErrInvalidReserves},
		{name: "zero y reserve", x: 10, y: 0, deltaX: 1, wantErr: ErrInvalidReserves},
		{name: "zero amount", x: 10, y: 10, deltaX: 0, wantErr: ErrInvalidAmount},
		{name: "would drain pool", x: 1, y: 1, deltaX: 1, wantErr: ErrInsufficientLiquidity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeltaYFromXSwapAmount(tt.x, tt.y, tt.deltaX)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeltaXFromYSwapAmount(t *testing.T) {
	got, err := DeltaXFromYSwapAmount(10_000, 10_000, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(910), got)

	got, err = DeltaXFromYSwapAmount(1_000_000, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), got)

	_, err = DeltaXFromYSwapAmount(0, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidReserves)

	_, err = DeltaXFromYSwapAmount(1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSwapAmount_Deterministic(t *testing.T) {
	first, err := DeltaYFromXSwapAmount(123_456_789, 987_654_321, 55_555)
	require.NoError(t, err)
	second, err := DeltaYFromXSwapAmount(123_456_789, 987_654_321, 55_555)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// randomPool returns reserves with small <= large, and an input of at least
// sqrt(small) so that one unit of rounding stays below one unit of input.
func randomPool(r *rand.Rand) (small, large, amount uint64) {
	a := uint64(r.Int63n(1_000_000_000_000)) + 1_000
	b := uint64(r.Int63n(1_000_000_000_000)) + 1_000
	if a > b {
		a, b = b, a
	}
	minAmount := uint64(math.Sqrt(float64(a))) + 1
	amount = minAmount + uint64(r.Int63n(int64(10*a)))
	return a, b, amount
}

func TestDeltaYFromXSwapAmount_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 5_000; i++ {
		x, y, dx := randomPool(r)

		dy, err := DeltaYFromXSwapAmount(x, y, dx)
		require.NoError(t, err, "x=%d y=%d dx=%d", x, y, dx)

		// never drains the pool
		assert.Less(t, dy, y)

		// flooring the new reserve loses strictly less than one unit of it:
		// (x+dx)*(y-dy) > x*y - (x+dx)
		updatedX := new(big.Int).Add(new(big.Int).SetUint64(x), new(big.Int).SetUint64(dx))
		after := new(big.Int).Mul(updatedX, new(big.Int).SetUint64(y-dy))
		after.Add(after, updatedX)
		before := Invariant(x, y).Big()
		assert.Equal(t, 1, after.Cmp(before), "x=%d y=%d dx=%d dy=%d", x, y, dx, dy)

		// depositing the output back on the opposite side never yields more
		// than was put in
		back, err := DeltaXFromYSwapAmount(x, y, dy)
		require.NoError(t, err)
		assert.LessOrEqual(t, back, dx, "x=%d y=%d dx=%d dy=%d", x, y, dx, dy)
	}
}

// Symmetry on the same reserves only holds once the input clears the floor.
// Below that bound the read-back can exceed the deposit.
func TestSymmetry_SmallInputOnTinyPool(t *testing.T) {
	dy, err := DeltaYFromXSwapAmount(4, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), dy) // 2 - floor(8/5)

	back, err := DeltaXFromYSwapAmount(4, 2, dy)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), back) // 4 - floor(8/3)
	assert.Greater(t, back, uint64(1))
}

func TestDeltaXFromYSwapAmount_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 5_000; i++ {
		y, x, dy := randomPool(r)

		dx, err := DeltaXFromYSwapAmount(x, y, dy)
		require.NoError(t, err)
		assert.Less(t, dx, x)

		back, err := DeltaYFromXSwapAmount(x, y, dx)
		require.NoError(t, err)
		assert.LessOrEqual(t, back, dy, "x=%d y=%d dy=%d dx=%d", x, y, dy, dx)
	}
}

func TestAmountInForExactOut(t *testing.T) {
	in, err := AmountInForExactOut(10_000, 10_000, 910)
	require.NoError(t, err)

	// the quoted input must actually buy the requested output
	out, err := DeltaYFromXSwapAmount(10_000, 10_000, in)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out, uint64(910))

	// and one unit less must not
	out, err = DeltaYFromXSwapAmount(10_000, 10_000, in-1)
	require.NoError(t, err)
	assert.Less(t, out, uint64(910))

	_, err = AmountInForExactOut(10_000, 10_000, 10_000)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = AmountInForExactOut(10_000, 10_000, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AmountInForExactOut(0, 10_000, 1)
	assert.ErrorIs(t, err, ErrInvalidReserves)

	// draining all but one unit of a deep pool needs more than a u64 of input
	_, err = AmountInForExactOut(math.MaxUint64, math.MaxUint64, math.MaxUint64-1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAddReserve(t *testing.T) {
	sum, err := AddReserve(10, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), sum)

	_, err = AddReserve(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, uint64(990), ApplySlippage(1_000, 100))
	assert.Equal(t, uint64(1_000), ApplySlippage(1_000, 0))
	assert.Equal(t, uint64(0), ApplySlippage(1_000, 10_000))
	assert.Equal(t, uint64(math.MaxUint64)/10_000*9_950+(uint64(math.MaxUint64)%10_000)*9_950/10_000, ApplySlippage(math.MaxUint64, 50))
}

func TestPriceImpact(t *testing.T) {
	impact := PriceImpact(10_000, 10_000, 1_000, 910)
	assert.InDelta(t, 0.09, impact, 1e-9)

	assert.Equal(t, 0.0, PriceImpact(0, 10, 1, 1))
	assert.Equal(t, 0.0, PriceImpact(10, 10, 1, 1))
}
