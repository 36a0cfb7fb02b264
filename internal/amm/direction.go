package amm

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/curve"
)

// Direction selects which asset the trader deposits. The zero value is not a
// valid direction.
type Direction uint8

const (
	XIn Direction = iota + 1 // deposit X, receive Y
	YIn                      // deposit Y, receive X
)

func (d Direction) String() string {
	switch d {
	case XIn:
		return "x_in"
	case YIn:
		return "y_in"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Valid reports whether d is one of XIn or YIn.
func (d Direction) Valid() bool {
	return d == XIn || d == YIn
}

// ParseDirection accepts "x_in" or "y_in" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x_in":
		return XIn, nil
	case "y_in":
		return YIn, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, ErrInvalidDirection
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	parsed, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// legs is the account pairing and curve function a direction selects
type legs struct {
	depositFrom  solana.PublicKey
	depositTo    solana.PublicKey
	withdrawFrom solana.PublicKey
	withdrawTo   solana.PublicKey
	counterDelta func(x, y, amount uint64) (uint64, error)
}

func (d Direction) legs(a SwapAccounts) (legs, error) {
	switch d {
	case XIn:
		return legs{
			depositFrom:  a.TraderX,
			depositTo:    a.Vaults.X,
			withdrawFrom: a.Vaults.Y,
			withdrawTo:   a.TraderY,
			counterDelta: curve.DeltaYFromXSwapAmount,
		}, nil
	case YIn:
		return legs{
			depositFrom:  a.TraderY,
			depositTo:    a.Vaults.Y,
			withdrawFrom: a.Vaults.X,
			withdrawTo:   a.TraderX,
			counterDelta: curve.DeltaXFromYSwapAmount,
		}, nil
	default:
		return legs{}, ErrInvalidDirection
	}
}

// split returns (reserveIn, reserveOut) for the direction
func (d Direction) split(r Reserves) (in, out uint64) {
	if d == XIn {
		return r.X, r.Y
	}
	return r.Y, r.X
}

// apply returns the reserves after amountIn lands and amountOut leaves.
// amountIn has already been checked not to overflow.
func (d Direction) apply(r Reserves, amountIn, amountOut uint64) Reserves {
	if d == XIn {
		return Reserves{X: r.X + amountIn, Y: r.Y - amountOut}
	}
	return Reserves{X: r.X - amountOut, Y: r.Y + amountIn}
}
