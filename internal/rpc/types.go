package rpc

import "errors"

var ErrRateLimited = errors.New("rate limited (429)")

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// ResponseContext is the slot a result was read at
type ResponseContext struct {
	Slot uint64 `json:"slot"`
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       uint8    `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// TokenAccountBalanceResponse is the response from getTokenAccountBalance
type TokenAccountBalanceResponse struct {
	Result *struct {
		Context ResponseContext `json:"context"`
		Value   TokenAmount     `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// AccountInfoResponse is the response from getAccountInfo. Value is null for
// accounts that do not exist.
type AccountInfoResponse struct {
	Result *struct {
		Context ResponseContext `json:"context"`
		Value   *struct {
			Owner    string `json:"owner"`
			Lamports uint64 `json:"lamports"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
