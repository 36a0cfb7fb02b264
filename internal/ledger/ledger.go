// Package ledger is an in-memory token ledger that hosts pool swaps: it owns
// the token accounts, verifies transfer authority and gives each swap an
// exclusive, all-or-nothing transaction.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
)

var (
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintMismatch      = errors.New("token account mint mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrAuthorityMismatch = errors.New("transfer authority does not own source account")
	ErrSelfTransfer      = errors.New("source and destination are the same account")
	ErrTxDone            = errors.New("transaction already committed or rolled back")
)

// Account is a token account: Amount units of Mint held for Owner
type Account struct {
	Address solana.PublicKey `json:"address"`
	Mint    solana.PublicKey `json:"mint"`
	Owner   solana.PublicKey `json:"owner"`
	Amount  uint64           `json:"amount"`
}

// Ledger holds token accounts keyed by their associated token address.
type Ledger struct {
	programID solana.PublicKey

	txMu sync.Mutex // held by the open transaction, if any

	mu       sync.RWMutex
	accounts map[solana.PublicKey]*Account
}

// New creates an empty ledger. programID is the program that owns pool
// credentials; derived authorities are verified against it.
func New(programID solana.PublicKey) *Ledger {
	return &Ledger{
		programID: programID,
		accounts:  make(map[solana.PublicKey]*Account),
	}
}

// ProgramID returns the program pool credentials derive from
func (l *Ledger) ProgramID() solana.PublicKey {
	return l.programID
}

// OpenAccount creates the associated token account for (owner, mint) if it
// does not exist yet and returns a snapshot of it.
func (l *Ledger) OpenAccount(owner, mint solana.PublicKey) (Account, error) {
	addr, _, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return Account{}, fmt.Errorf("failed to derive token account: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[addr]
	if !ok {
		acc = &Account{Address: addr, Mint: mint, Owner: owner}
		l.accounts[addr] = acc
	}
	return *acc, nil
}

// Mint credits amount to the (owner, mint) account, opening it if needed.
// It waits for any open transaction so a swap never sees a balance move
// under it.
func (l *Ledger) Mint(owner, mint solana.PublicKey, amount uint64) (Account, error) {
	l.txMu.Lock()
	defer l.txMu.Unlock()

	opened, err := l.OpenAccount(owner, mint)
	if err != nil {
		return Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.accounts[opened.Address]
	if acc.Amount > math.MaxUint64-amount {
		return Account{}, fmt.Errorf("%w: %s", ErrBalanceOverflow, acc.Address)
	}
	acc.Amount += amount
	return *acc, nil
}

// Account returns a snapshot of the account at addr
func (l *Ledger) Account(addr solana.PublicKey) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[addr]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return *acc, nil
}

// Balance implements amm.BalanceReader outside of a transaction
func (l *Ledger) Balance(_ context.Context, addr solana.PublicKey) (uint64, error) {
	acc, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// Begin opens an exclusive transaction. It blocks until the previous one is
// committed or rolled back, or ctx is done.
func (l *Ledger) Begin(ctx context.Context) (*Tx, error) {
	acquired := make(chan struct{})
	go func() {
		l.txMu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return &Tx{ledger: l}, nil
	case <-ctx.Done():
		// release the lock once the pending acquisition lands
		go func() {
			<-acquired
			l.txMu.Unlock()
		}()
		return nil, ctx.Err()
	}
}

type undoEntry struct {
	from, to *Account
	amount   uint64
}

// Tx is an open ledger transaction. It implements amm.Custody.
type Tx struct {
	ledger *Ledger
	undo   []undoEntry
	done   bool
}

var _ amm.Custody = (*Tx)(nil)

// Balance returns the balance of addr as seen by the transaction
func (tx *Tx) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	if tx.done {
		return 0, ErrTxDone
	}
	return tx.ledger.Balance(ctx, addr)
}

// Transfer moves amount from one account to another. It either applies in
// full or leaves both accounts unchanged.
func (tx *Tx) Transfer(_ context.Context, from, to solana.PublicKey, amount uint64, authority amm.Authority) error {
	if tx.done {
		return ErrTxDone
	}
	if from.Equals(to) {
		return fmt.Errorf("%w: %s", ErrSelfTransfer, from)
	}

	l := tx.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	dst, ok := l.accounts[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, to)
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%w: %s -> %s", ErrMintMismatch, src.Mint, dst.Mint)
	}
	if err := l.authorize(src, authority); err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	if dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}

	src.Amount -= amount
	dst.Amount += amount
	tx.undo = append(tx.undo, undoEntry{from: src, to: dst, amount: amount})
	return nil
}

// authorize checks that authority controls src. A derived credential must
// re-derive to the account owner under the ledger's program.
func (l *Ledger) authorize(src *Account, authority amm.Authority) error {
	if !authority.IsDerived() {
		if !authority.Signer.Equals(src.Owner) {
			return fmt.Errorf("%w: signer %s, owner %s", ErrAuthorityMismatch, authority.Signer, src.Owner)
		}
		return nil
	}

	signer, err := solana.CreateProgramAddress(authority.Credential.SignerSeeds(), l.programID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorityMismatch, err)
	}
	if !signer.Equals(src.Owner) {
		return fmt.Errorf("%w: credential %s, owner %s", ErrAuthorityMismatch, signer, src.Owner)
	}
	return nil
}

// Commit keeps every transfer and releases the ledger
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.undo = nil
	tx.ledger.txMu.Unlock()
	return nil
}

// Rollback undoes every transfer in reverse order and releases the ledger
func (tx *Tx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}

	l := tx.ledger
	l.mu.Lock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		e := tx.undo[i]
		e.to.Amount -= e.amount
		e.from.Amount += e.amount
	}
	l.mu.Unlock()

	tx.done = true
	tx.undo = nil
	l.txMu.Unlock()
	return nil
}
