package main

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-amm-core/internal/poolstore"
)

func TestResolvePool(t *testing.T) {
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()
	mintZ := solana.NewWallet().PublicKey()

	registry, err := poolstore.NewRegistryFromConfigs([]poolstore.PoolConfig{
		{Name: "sol-usdc", Seed: 7, MintX: mintX.String(), MintY: mintY.String()},
		{Name: "sol-bonk", Seed: 9, MintX: mintX.String(), MintY: mintZ.String()},
	}, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		seed     uint64
		poolName string
		pair     string
		want     uint64
	}{
		{name: "by seed", seed: 9, want: 9},
		{name: "by name", poolName: "sol-usdc", want: 7},
		{name: "name wins over seed", seed: 9, poolName: "sol-usdc", want: 7},
		{name: "by pair", pair: mintZ.String() + "," + mintX.String(), want: 9},
		{name: "pair with spaces", pair: mintX.String() + ", " + mintY.String(), want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := resolvePool(ctx, registry, tt.seed, tt.poolName, tt.pair)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Seed)
		})
	}
}

func TestResolvePool_Errors(t *testing.T) {
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()

	registry, err := poolstore.NewRegistryFromConfigs([]poolstore.PoolConfig{
		{Name: "sol-usdc", Seed: 7, MintX: mintX.String(), MintY: mintY.String()},
	}, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = resolvePool(ctx, registry, 0, "nope", "")
	assert.ErrorIs(t, err, poolstore.ErrNotFound)

	_, err = resolvePool(ctx, registry, 0, "", mintX.String()+","+solana.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, poolstore.ErrNotFound)

	_, err = resolvePool(ctx, registry, 0, "", mintX.String())
	assert.Error(t, err)

	_, err = resolvePool(ctx, registry, 0, "", "not-a-key,"+mintY.String())
	assert.Error(t, err)

	_, err = resolvePool(ctx, registry, 3, "", "")
	assert.ErrorIs(t, err, poolstore.ErrNotFound)
}
