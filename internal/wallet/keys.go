// Package wallet loads trader keypairs.
package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is a loaded trader keypair
type Wallet struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// LoadKeypair accepts a path to a solana-keygen JSON file, a JSON byte array
// or a base58-encoded 64-byte key.
func LoadKeypair(pathOrKey string) (*Wallet, error) {
	s := strings.TrimSpace(pathOrKey)
	if s == "" {
		return nil, fmt.Errorf("wallet: private key is required")
	}

	if data, err := os.ReadFile(s); err == nil {
		s = strings.TrimSpace(string(data))
	} else if !errors.Is(err, os.ErrNotExist) && !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("wallet: failed to read keypair file: %w", err)
	}

	priv, err := parsePrivateKey(s)
	if err != nil {
		return nil, err
	}
	return &Wallet{priv: priv, pub: priv.PublicKey()}, nil
}

// NewWalletFromEnv loads WALLET_PRIVATE_KEY
func NewWalletFromEnv() (*Wallet, error) {
	return LoadKeypair(os.Getenv("WALLET_PRIVATE_KEY"))
}

func (w *Wallet) Address() string             { return w.pub.String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }

// Sign signs message with the wallet key
func (w *Wallet) Sign(message []byte) (solana.Signature, error) {
	return w.priv.Sign(message)
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}
