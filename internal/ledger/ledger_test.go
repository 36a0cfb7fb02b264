package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func TestOpenAccount_Idempotent(t *testing.T) {
	l := New(newKey())
	owner, mint := newKey(), newKey()

	a, err := l.OpenAccount(owner, mint)
	require.NoError(t, err)
	b, err := l.OpenAccount(owner, mint)
	require.NoError(t, err)

	assert.Equal(t, a.Address, b.Address)
	assert.Equal(t, owner, a.Owner)
	assert.Equal(t, mint, a.Mint)
	assert.Zero(t, a.Amount)

	ata, _, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, ata, a.Address)
}

func TestMint(t *testing.T) {
	l := New(newKey())
	owner, mint := newKey(), newKey()

	acc, err := l.Mint(owner, mint, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), acc.Amount)

	acc, err = l.Mint(owner, mint, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), acc.Amount)

	_, err = l.Mint(owner, mint, math.MaxUint64)
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	bal, err := l.Balance(context.Background(), acc.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), bal)
}

func TestBalance_UnknownAccount(t *testing.T) {
	l := New(newKey())
	_, err := l.Balance(context.Background(), newKey())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

type pair struct {
	owner solana.PublicKey
	mint  solana.PublicKey
	from  Account
	to    Account
}

func setupPair(t *testing.T, l *Ledger, amount uint64) pair {
	t.Helper()
	owner, other, mint := newKey(), newKey(), newKey()

	from, err := l.Mint(owner, mint, amount)
	require.NoError(t, err)
	to, err := l.OpenAccount(other, mint)
	require.NoError(t, err)

	return pair{owner: owner, mint: mint, from: from, to: to}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	l := New(newKey())
	p := setupPair(t, l, 1_000)

	tx, err := l.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Transfer(ctx, p.from.Address, p.to.Address, 400, amm.TraderAuthority(p.owner)))

	bal, err := tx.Balance(ctx, p.to.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), bal)

	require.NoError(t, tx.Commit())

	bal, _ = l.Balance(ctx, p.from.Address)
	assert.Equal(t, uint64(600), bal)
	bal, _ = l.Balance(ctx, p.to.Address)
	assert.Equal(t, uint64(400), bal)
}

func TestTransfer_Failures(t *testing.T) {
	ctx := context.Background()
	l := New(newKey())
	p := setupPair(t, l, 1_000)

	otherMint, err := l.Mint(p.owner, newKey(), 1)
	require.NoError(t, err)

	full, err := l.Mint(newKey(), p.mint, math.MaxUint64)
	require.NoError(t, err)

	tests := []struct {
		name      string
		from, to  solana.PublicKey
		amount    uint64
		authority amm.Authority
		wantErr   error
	}{
		{"unknown source", newKey(), p.to.Address, 1, amm.TraderAuthority(p.owner), ErrAccountNotFound},
		{"unknown destination", p.from.Address, newKey(), 1, amm.TraderAuthority(p.owner), ErrAccountNotFound},
		{"mint mismatch", p.from.Address, otherMint.Address, 1, amm.TraderAuthority(p.owner), ErrMintMismatch},
		{"wrong signer", p.from.Address, p.to.Address, 1, amm.TraderAuthority(newKey()), ErrAuthorityMismatch},
		{"credential for trader account", p.from.Address, p.to.Address, 1, amm.PoolAuthority(amm.AuthorityCredential(1, 255)), ErrAuthorityMismatch},
		{"insufficient funds", p.from.Address, p.to.Address, 1_001, amm.TraderAuthority(p.owner), ErrInsufficientFunds},
		{"destination overflow", p.from.Address, full.Address, 1, amm.TraderAuthority(p.owner), ErrBalanceOverflow},
		{"self transfer", p.from.Address, p.from.Address, 1, amm.TraderAuthority(p.owner), ErrSelfTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := l.Begin(ctx)
			require.NoError(t, err)
			defer tx.Rollback()

			err = tx.Transfer(ctx, tt.from, tt.to, tt.amount, tt.authority)
			assert.ErrorIs(t, err, tt.wantErr)

			// a failed transfer changes nothing
			bal, _ := tx.Balance(ctx, p.from.Address)
			assert.Equal(t, uint64(1_000), bal)
		})
	}
}

func TestTransfer_DerivedAuthority(t *testing.T) {
	ctx := context.Background()
	programID := newKey()
	l := New(programID)

	const seed = 99
	config, bump, err := solana.FindProgramAddress(amm.ConfigSeeds(seed), programID)
	require.NoError(t, err)

	mint := newKey()
	vault, err := l.Mint(config, mint, 500)
	require.NoError(t, err)
	dst, err := l.OpenAccount(newKey(), mint)
	require.NoError(t, err)

	tx, err := l.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	// wrong bump or seed does not derive the vault owner
	err = tx.Transfer(ctx, vault.Address, dst.Address, 1, amm.PoolAuthority(amm.AuthorityCredential(seed+1, bump)))
	assert.ErrorIs(t, err, ErrAuthorityMismatch)

	err = tx.Transfer(ctx, vault.Address, dst.Address, 100, amm.PoolAuthority(amm.AuthorityCredential(seed, bump)))
	require.NoError(t, err)

	// the pool credential cannot be impersonated by signing as the config
	err = tx.Transfer(ctx, vault.Address, dst.Address, 1, amm.TraderAuthority(newKey()))
	assert.ErrorIs(t, err, ErrAuthorityMismatch)
}

func TestRollback_UndoesAllTransfers(t *testing.T) {
	ctx := context.Background()
	l := New(newKey())
	p := setupPair(t, l, 1_000)

	tx, err := l.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Transfer(ctx, p.from.Address, p.to.Address, 300, amm.TraderAuthority(p.owner)))
	require.NoError(t, tx.Transfer(ctx, p.from.Address, p.to.Address, 200, amm.TraderAuthority(p.owner)))
	require.NoError(t, tx.Rollback())

	bal, _ := l.Balance(ctx, p.from.Address)
	assert.Equal(t, uint64(1_000), bal)
	bal, _ = l.Balance(ctx, p.to.Address)
	assert.Zero(t, bal)

	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
	assert.ErrorIs(t, tx.Rollback(), ErrTxDone)
	assert.ErrorIs(t, tx.Transfer(ctx, p.from.Address, p.to.Address, 1, amm.TraderAuthority(p.owner)), ErrTxDone)
}

func TestBegin_Exclusive(t *testing.T) {
	l := New(newKey())

	tx, err := l.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, tx.Commit())

	next, err := l.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, next.Commit())
}
