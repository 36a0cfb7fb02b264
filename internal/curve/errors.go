package curve

import "errors"

var (
	// ErrInvalidReserves is returned when either reserve is zero. An empty
	// pool cannot quote a price.
	ErrInvalidReserves = errors.New("invalid reserves: both reserves must be > 0")

	// ErrInvalidAmount is returned for a zero swap amount.
	ErrInvalidAmount = errors.New("invalid amount: must be > 0")

	// ErrOverflow is returned when a result does not fit the reserve width.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrDivisionByZero cannot happen once reserves are validated; it is kept
	// so the division is never unchecked.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInsufficientLiquidity is returned when a requested output would drain
	// the pool side entirely.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)
