package amm

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferCall struct {
	From      solana.PublicKey
	To        solana.PublicKey
	Amount    uint64
	Authority Authority
}

// fakeCustody records transfers and serves fixed balances
type fakeCustody struct {
	balances  map[solana.PublicKey]uint64
	transfers []transferCall
	failOn    int // 1-based index of the transfer to fail, 0 = never
	balErr    error
}

func (f *fakeCustody) Balance(_ context.Context, account solana.PublicKey) (uint64, error) {
	if f.balErr != nil {
		return 0, f.balErr
	}
	return f.balances[account], nil
}

func (f *fakeCustody) Transfer(_ context.Context, from, to solana.PublicKey, amount uint64, authority Authority) error {
	n := len(f.transfers) + 1
	if f.failOn == n {
		return errors.New("insufficient funds")
	}
	f.transfers = append(f.transfers, transferCall{From: from, To: to, Amount: amount, Authority: authority})
	return nil
}

type fixture struct {
	pool     *Pool
	accounts SwapAccounts
	custody  *fakeCustody
	swapper  *Swapper
}

func newFixture(t *testing.T, x, y uint64) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	accounts := SwapAccounts{
		Trader:  solana.NewWallet().PublicKey(),
		Vaults:  Vaults{X: solana.NewWallet().PublicKey(), Y: solana.NewWallet().PublicKey()},
		TraderX: solana.NewWallet().PublicKey(),
		TraderY: solana.NewWallet().PublicKey(),
	}

	custody := &fakeCustody{balances: map[solana.PublicKey]uint64{
		accounts.Vaults.X: x,
		accounts.Vaults.Y: y,
	}}

	return &fixture{
		pool:     &Pool{Seed: 1234, Bump: 254},
		accounts: accounts,
		custody:  custody,
		swapper:  NewSwapper(SwapperConfig{Logger: logger}),
	}
}

func (f *fixture) swap(dir Direction, amount, minOut uint64) (*SwapResult, error) {
	return f.swapper.Swap(context.Background(), f.custody, f.pool, f.accounts,
		SwapRequest{Direction: dir, Amount: amount, MinOutput: minOut})
}

func TestSwap_XIn(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)

	res, err := f.swap(XIn, 1_000, 910)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000), res.InputAmount)
	assert.Equal(t, uint64(910), res.OutputAmount)
	assert.Equal(t, Reserves{X: 10_000, Y: 10_000}, res.Before)
	assert.Equal(t, Reserves{X: 11_000, Y: 9_090}, res.After)

	require.Len(t, f.custody.transfers, 2)

	deposit := f.custody.transfers[0]
	assert.Equal(t, f.accounts.TraderX, deposit.From)
	assert.Equal(t, f.accounts.Vaults.X, deposit.To)
	assert.Equal(t, uint64(1_000), deposit.Amount)
	assert.False(t, deposit.Authority.IsDerived())
	assert.Equal(t, f.accounts.Trader, deposit.Authority.Signer)

	withdraw := f.custody.transfers[1]
	assert.Equal(t, f.accounts.Vaults.Y, withdraw.From)
	assert.Equal(t, f.accounts.TraderY, withdraw.To)
	assert.Equal(t, uint64(910), withdraw.Amount)
	require.True(t, withdraw.Authority.IsDerived())
	assert.Equal(t, AuthorityCredential(1234, 254), *withdraw.Authority.Credential)
}

func TestSwap_YIn(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)

	res, err := f.swap(YIn, 1_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(910), res.OutputAmount)
	assert.Equal(t, Reserves{X: 9_090, Y: 11_000}, res.After)

	require.Len(t, f.custody.transfers, 2)
	assert.Equal(t, f.accounts.TraderY, f.custody.transfers[0].From)
	assert.Equal(t, f.accounts.Vaults.Y, f.custody.transfers[0].To)
	assert.Equal(t, f.accounts.Vaults.X, f.custody.transfers[1].From)
	assert.Equal(t, f.accounts.TraderX, f.custody.transfers[1].To)
}

func TestSwap_SlippageBoundary(t *testing.T) {
	for _, minOut := range []uint64{0, 909, 910} {
		f := newFixture(t, 10_000, 10_000)
		_, err := f.swap(XIn, 1_000, minOut)
		assert.NoError(t, err, "min_output=%d", minOut)
	}

	f := newFixture(t, 10_000, 10_000)
	_, err := f.swap(XIn, 1_000, 911)
	assert.ErrorIs(t, err, ErrSlippageExceeded)
	assert.Empty(t, f.custody.transfers)
	assert.False(t, IsFatal(err))
}

func TestSwap_PoolLocked(t *testing.T) {
	for _, dir := range []Direction{XIn, YIn} {
		f := newFixture(t, 10_000, 10_000)
		f.pool.Locked = true

		_, err := f.swap(dir, 1_000, 0)
		assert.ErrorIs(t, err, ErrPoolLocked)
		assert.Empty(t, f.custody.transfers)

		var se *SwapError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, StageStart, se.Stage)
	}
}

func TestSwap_ZeroAmount(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)

	_, err := f.swap(XIn, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, f.custody.transfers)
}

func TestSwap_InvalidDirection(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)

	_, err := f.swap(Direction(0), 1_000, 0)
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.Empty(t, f.custody.transfers)
}

func TestSwap_EmptyReserves(t *testing.T) {
	f := newFixture(t, 0, 10_000)

	_, err := f.swap(XIn, 1_000, 0)
	assert.ErrorIs(t, err, ErrInvalidReserves)
	assert.Empty(t, f.custody.transfers)

	var se *SwapError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StagePreconditionsChecked, se.Stage)
}

func TestSwap_DepositWouldOverflowVault(t *testing.T) {
	f := newFixture(t, math.MaxUint64-10, 10_000)

	_, err := f.swap(XIn, 11, 0)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Empty(t, f.custody.transfers)
}

func TestSwap_BalanceReadFailure(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)
	f.custody.balErr = errors.New("rpc down")

	_, err := f.swap(XIn, 1_000, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc down")
	assert.Empty(t, f.custody.transfers)
}

func TestSwap_DepositFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)
	f.custody.failOn = 1

	_, err := f.swap(XIn, 1_000, 0)
	require.Error(t, err)
	assert.False(t, IsFatal(err))
	assert.Empty(t, f.custody.transfers)
}

func TestSwap_WithdrawalFailureIsFatal(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)
	f.custody.failOn = 2

	_, err := f.swap(XIn, 1_000, 0)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "insufficient funds")

	var se *SwapError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageDeposited, se.Stage)

	// only the deposit landed; the host must roll it back
	assert.Len(t, f.custody.transfers, 1)
}

func TestSwap_NilPool(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)
	f.pool = nil

	_, err := f.swap(XIn, 1_000, 0)
	assert.ErrorIs(t, err, ErrNilPool)
}

func TestQuote(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)

	q, err := f.swapper.Quote(context.Background(), f.custody, f.accounts.Vaults, XIn, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(910), q.AmountOut)
	assert.Equal(t, Reserves{X: 10_000, Y: 10_000}, q.Reserves)
	assert.InDelta(t, 0.09, q.PriceImpact, 1e-9)
	assert.Empty(t, f.custody.transfers)

	_, err = f.swapper.Quote(context.Background(), f.custody, f.accounts.Vaults, XIn, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.swapper.Quote(context.Background(), f.custody, f.accounts.Vaults, Direction(9), 1)
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestQuoteExactOut(t *testing.T) {
	f := newFixture(t, 10_000, 10_000)

	q, err := f.swapper.QuoteExactOut(context.Background(), f.custody, f.accounts.Vaults, YIn, 910)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), q.AmountIn)
	assert.Equal(t, uint64(910), q.AmountOut)

	_, err = f.swapper.QuoteExactOut(context.Background(), f.custody, f.accounts.Vaults, YIn, 10_000)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}
