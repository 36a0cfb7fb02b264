// Package journal records completed swaps to Redis pub/sub and ClickHouse.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
)

// SwapRecord is one committed swap
type SwapRecord struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	PoolSeed       uint64    `json:"pool_seed"`
	Pool           string    `json:"pool"`
	Trader         string    `json:"trader"`
	Direction      string    `json:"direction"`
	MintIn         string    `json:"mint_in"`
	MintOut        string    `json:"mint_out"`
	AmountIn       uint64    `json:"amount_in"`
	AmountOut      uint64    `json:"amount_out"`
	ReserveXBefore uint64    `json:"reserve_x_before"`
	ReserveYBefore uint64    `json:"reserve_y_before"`
	ReserveXAfter  uint64    `json:"reserve_x_after"`
	ReserveYAfter  uint64    `json:"reserve_y_after"`
}

// NewSwapRecord builds the record for a committed swap
func NewSwapRecord(pool *amm.Pool, trader solana.PublicKey, res *amm.SwapResult, at time.Time) SwapRecord {
	mintIn, mintOut := pool.MintX, pool.MintY
	if res.Direction == amm.YIn {
		mintIn, mintOut = pool.MintY, pool.MintX
	}

	return SwapRecord{
		ID:             uuid.NewString(),
		Timestamp:      at.UTC(),
		PoolSeed:       pool.Seed,
		Pool:           pool.Address.String(),
		Trader:         trader.String(),
		Direction:      res.Direction.String(),
		MintIn:         mintIn.String(),
		MintOut:        mintOut.String(),
		AmountIn:       res.InputAmount,
		AmountOut:      res.OutputAmount,
		ReserveXBefore: res.Before.X,
		ReserveYBefore: res.Before.Y,
		ReserveXAfter:  res.After.X,
		ReserveYAfter:  res.After.Y,
	}
}

// Recorder persists or fans out a swap record
type Recorder interface {
	Record(ctx context.Context, rec SwapRecord) error
}

// Multi sends every record to each recorder and joins their errors
type Multi []Recorder

func (m Multi) Record(ctx context.Context, rec SwapRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
