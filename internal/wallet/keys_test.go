package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeypair_Base58(t *testing.T) {
	kp := solana.NewWallet().PrivateKey

	w, err := LoadKeypair(base58.Encode(kp))
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), w.PublicKey())
	assert.Equal(t, kp.PublicKey().String(), w.Address())
}

func TestLoadKeypair_JSONFile(t *testing.T) {
	kp := solana.NewWallet().PrivateKey

	ints := make([]int, len(kp))
	for i, b := range kp {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	w, err := LoadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), w.PublicKey())

	// inline JSON works too
	w, err = LoadKeypair(string(data))
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), w.PublicKey())
}

func TestLoadKeypair_Invalid(t *testing.T) {
	tests := []string{
		"",
		"not base58 0OIl",
		base58.Encode([]byte("short")),
		"[1,2,3]",
		"[256]",
		"[not json",
	}

	for _, in := range tests {
		_, err := LoadKeypair(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestSign(t *testing.T) {
	kp := solana.NewWallet().PrivateKey
	w, err := LoadKeypair(kp.String())
	require.NoError(t, err)

	msg := []byte("swap")
	sig, err := w.Sign(msg)
	require.NoError(t, err)
	assert.True(t, sig.Verify(w.PublicKey(), msg))
}
