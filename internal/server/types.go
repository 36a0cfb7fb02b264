package server

import (
	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
	"github.com/aman-zulfiqar/solana-amm-core/internal/ledger"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"`
}

// PoolResponse is a pool record with its vaults and live reserves
type PoolResponse struct {
	*amm.Pool
	Vaults   *amm.Vaults   `json:"vaults,omitempty"`
	Reserves *amm.Reserves `json:"reserves,omitempty"`
}

// PoolLockRequest toggles the pool lock flag
type PoolLockRequest struct {
	Locked *bool `json:"locked"`
}

// QuoteResponse is a quote plus the minimum output for the requested
// slippage tolerance
type QuoteResponse struct {
	*amm.Quote
	SlippageBps uint16 `json:"slippage_bps"`
	MinOutput   uint64 `json:"min_output"`
}

// SwapRequest is the body of a swap call
type SwapRequest struct {
	Trader    string        `json:"trader"`
	Direction amm.Direction `json:"direction"`
	Amount    uint64        `json:"amount"`
	MinOutput uint64        `json:"min_output"`
}

// AccountResponse is a token account snapshot
type AccountResponse struct {
	ledger.Account
}

// DevMintRequest credits tokens to an account (dev mode only)
type DevMintRequest struct {
	Owner  string `json:"owner"`
	Mint   string `json:"mint"`
	Amount uint64 `json:"amount"`
}
