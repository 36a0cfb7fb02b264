package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
	"github.com/aman-zulfiqar/solana-amm-core/internal/ledger"
	"github.com/aman-zulfiqar/solana-amm-core/internal/poolstore"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 400, etc.)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		// Handle all other errors as internal server error
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// swapStatus maps a swap or quote failure to an HTTP status and message
func swapStatus(err error) (int, string) {
	switch {
	case amm.IsFatal(err):
		return http.StatusInternalServerError, "swap aborted"
	case errors.Is(err, amm.ErrPoolLocked):
		return http.StatusLocked, "pool is locked"
	case errors.Is(err, amm.ErrSlippageExceeded):
		return http.StatusConflict, "slippage exceeded"
	case errors.Is(err, amm.ErrOverflow), errors.Is(err, ledger.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity, "arithmetic overflow"
	case errors.Is(err, amm.ErrInsufficientLiquidity):
		return http.StatusUnprocessableEntity, "insufficient liquidity"
	case errors.Is(err, amm.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, amm.ErrInvalidDirection):
		return http.StatusBadRequest, "invalid direction"
	case errors.Is(err, amm.ErrInvalidReserves):
		return http.StatusBadRequest, "pool has no liquidity"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient funds"
	case errors.Is(err, ledger.ErrAuthorityMismatch):
		return http.StatusForbidden, "authority mismatch"
	case errors.Is(err, poolstore.ErrNotFound):
		return http.StatusNotFound, "pool not found"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, "token account not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
