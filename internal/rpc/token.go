package rpc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
)

// GetTokenAccountBalance returns the raw token amount held by account
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	params := []interface{}{
		account.String(),
		map[string]interface{}{"commitment": c.commitment},
	}

	var resp TokenAccountBalanceResponse
	if err := c.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getTokenAccountBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getTokenAccountBalance error: %w", resp.Error)
	}
	if resp.Result == nil {
		return 0, fmt.Errorf("getTokenAccountBalance: empty result for %s", account)
	}

	amount, err := strconv.ParseUint(resp.Result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format: %w", err)
	}
	return amount, nil
}

// AccountExists checks if an account exists on-chain (getAccountInfo != nil)
func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	params := []interface{}{
		account.String(),
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var resp AccountInfoResponse
	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return false, fmt.Errorf("getAccountInfo RPC failed: %w", err)
	}
	if resp.Error != nil {
		return false, fmt.Errorf("getAccountInfo error: %w", resp.Error)
	}
	return resp.Result != nil && resp.Result.Value != nil, nil
}

// CustodyReader reads pool vault balances from a live cluster
type CustodyReader struct {
	client *Client
}

var _ amm.BalanceReader = (*CustodyReader)(nil)

func NewCustodyReader(client *Client) *CustodyReader {
	return &CustodyReader{client: client}
}

// Balance implements amm.BalanceReader
func (r *CustodyReader) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return r.client.GetTokenAccountBalance(ctx, account)
}
