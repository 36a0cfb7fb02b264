// Package poolstore keeps pool configuration records: a JSON registry for
// local runs and a Redis store for shared deployments.
package poolstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
)

var (
	ErrNotFound    = errors.New("pool not found")
	ErrInvalidPool = errors.New("invalid pool config")
)

// Store is a pool record store the API can read and lock
type Store interface {
	amm.PoolLookup
	List(ctx context.Context) ([]*amm.Pool, error)
	SetLocked(ctx context.Context, seed uint64, locked bool) (*amm.Pool, error)
}

// NewPool derives the config address and bump for seed under programID and
// returns the pool record.
func NewPool(programID solana.PublicKey, seed uint64, mintX, mintY solana.PublicKey) (*amm.Pool, error) {
	if mintX.IsZero() || mintY.IsZero() {
		return nil, fmt.Errorf("%w: mints must be set", ErrInvalidPool)
	}
	if mintX.Equals(mintY) {
		return nil, fmt.Errorf("%w: mint_x and mint_y are the same", ErrInvalidPool)
	}

	addr, bump, err := solana.FindProgramAddress(amm.ConfigSeeds(seed), programID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive config address: %w", err)
	}

	return &amm.Pool{
		Seed:    seed,
		Address: addr,
		MintX:   mintX,
		MintY:   mintY,
		Bump:    bump,
	}, nil
}
