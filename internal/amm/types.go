package amm

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Pool is the pool configuration record. It is owned by the hosting
// environment and read-only here.
type Pool struct {
	Seed    uint64           `json:"seed"`
	Address solana.PublicKey `json:"address"` // config account derived from Seed and Bump
	MintX   solana.PublicKey `json:"mint_x"`
	MintY   solana.PublicKey `json:"mint_y"`
	Locked  bool             `json:"locked"`
	Bump    uint8            `json:"bump"`
}

// Reserves are the live custody balances at the start of a swap
type Reserves struct {
	X uint64 `json:"x"`
	Y uint64 `json:"y"`
}

// Vaults are the pool's two custody token accounts
type Vaults struct {
	X solana.PublicKey `json:"x"`
	Y solana.PublicKey `json:"y"`
}

// SwapAccounts are the accounts a single swap touches
type SwapAccounts struct {
	Trader  solana.PublicKey // signer of the deposit leg
	Vaults  Vaults
	TraderX solana.PublicKey // trader's token account for MintX
	TraderY solana.PublicKey // trader's token account for MintY
}

// SwapRequest is the caller's trade. Immutable for the duration of a call.
type SwapRequest struct {
	Direction Direction `json:"direction"`
	Amount    uint64    `json:"amount"`
	MinOutput uint64    `json:"min_output"`
}

// SwapResult reports the amounts actually moved
type SwapResult struct {
	Direction    Direction `json:"direction"`
	InputAmount  uint64    `json:"input_amount"`
	OutputAmount uint64    `json:"output_amount"`
	Before       Reserves  `json:"before"`
	After        Reserves  `json:"after"`
}

// Quote is a read-only pricing of a swap against current reserves
type Quote struct {
	Direction   Direction `json:"direction"`
	AmountIn    uint64    `json:"amount_in"`
	AmountOut   uint64    `json:"amount_out"`
	Reserves    Reserves  `json:"reserves"`
	PriceImpact float64   `json:"price_impact"` // 0.01 = 1%
}

// BalanceReader reads the current balance of a token account
type BalanceReader interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Transferer moves amount from one token account to another, atomically or
// not at all.
type Transferer interface {
	Transfer(ctx context.Context, from, to solana.PublicKey, amount uint64, authority Authority) error
}

// Custody is the value-container capability a swap needs
type Custody interface {
	BalanceReader
	Transferer
}

// PoolLookup resolves a pool record by its seed
type PoolLookup interface {
	Get(ctx context.Context, seed uint64) (*Pool, error)
}
