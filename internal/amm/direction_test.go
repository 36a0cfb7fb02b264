package amm

import (
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"x_in", XIn, false},
		{"Y_IN", YIn, false},
		{" x_in ", XIn, false},
		{"", 0, true},
		{"z_in", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDirection)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirection_JSON(t *testing.T) {
	var req SwapRequest
	require.NoError(t, json.Unmarshal([]byte(`{"direction":"y_in","amount":5,"min_output":1}`), &req))
	assert.Equal(t, YIn, req.Direction)
	assert.Equal(t, uint64(5), req.Amount)

	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"direction":"y_in"`)

	assert.Error(t, json.Unmarshal([]byte(`{"direction":"sideways"}`), &req))
}

func TestDirection_Legs(t *testing.T) {
	a := SwapAccounts{
		Trader:  solana.NewWallet().PublicKey(),
		Vaults:  Vaults{X: solana.NewWallet().PublicKey(), Y: solana.NewWallet().PublicKey()},
		TraderX: solana.NewWallet().PublicKey(),
		TraderY: solana.NewWallet().PublicKey(),
	}

	x, err := XIn.legs(a)
	require.NoError(t, err)
	y, err := YIn.legs(a)
	require.NoError(t, err)

	// the two directions are mirror images
	assert.Equal(t, x.depositFrom, y.withdrawTo)
	assert.Equal(t, x.depositTo, y.withdrawFrom)
	assert.Equal(t, x.withdrawFrom, y.depositTo)
	assert.Equal(t, x.withdrawTo, y.depositFrom)

	_, err = Direction(3).legs(a)
	assert.ErrorIs(t, err, ErrInvalidDirection)
}

func TestDirection_Apply(t *testing.T) {
	r := Reserves{X: 100, Y: 200}
	assert.Equal(t, Reserves{X: 110, Y: 190}, XIn.apply(r, 10, 10))
	assert.Equal(t, Reserves{X: 95, Y: 220}, YIn.apply(r, 20, 5))
}
