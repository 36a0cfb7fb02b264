package amm

import (
	"errors"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-core/internal/curve"
)

var (
	ErrPoolLocked       = errors.New("pool is locked")
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrInvalidDirection = errors.New("invalid swap direction")
	ErrNilPool          = errors.New("pool is nil")

	// Curve failures surface unchanged so callers can match either package.
	ErrInvalidAmount         = curve.ErrInvalidAmount
	ErrInvalidReserves       = curve.ErrInvalidReserves
	ErrOverflow              = curve.ErrOverflow
	ErrInsufficientLiquidity = curve.ErrInsufficientLiquidity
)

// SwapError wraps any failure of a swap with the last stage that completed.
// Fatal is set once the deposit leg has landed: the caller must then abort
// the whole surrounding transaction.
type SwapError struct {
	Stage Stage
	Fatal bool
	Err   error
}

func (e *SwapError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("swap failed after %s (fatal): %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("swap aborted after %s: %v", e.Stage, e.Err)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a SwapError raised after the deposit leg.
func IsFatal(err error) bool {
	var se *SwapError
	return errors.As(err, &se) && se.Fatal
}
