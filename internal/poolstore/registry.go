package poolstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
)

// PoolConfig is a pool entry in the JSON config
type PoolConfig struct {
	Name     string `json:"name"`
	Seed     uint64 `json:"seed"`
	MintX    string `json:"mint_x"`
	MintY    string `json:"mint_y"`
	Locked   bool   `json:"locked"`
	ReserveX uint64 `json:"reserve_x,omitempty"` // dev: initial vault X balance
	ReserveY uint64 `json:"reserve_y,omitempty"` // dev: initial vault Y balance
}

type entry struct {
	name     string
	pool     amm.Pool
	reserves amm.Reserves
}

// Registry is an in-memory pool store loaded from JSON
type Registry struct {
	mu    sync.RWMutex
	pools map[uint64]*entry
}

// NewRegistry loads pools from a JSON file
func NewRegistry(path string, programID solana.PublicKey) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var configs []PoolConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return NewRegistryFromConfigs(configs, programID)
}

// NewRegistryFromConfigs parses and validates pool configs
func NewRegistryFromConfigs(configs []PoolConfig, programID solana.PublicKey) (*Registry, error) {
	r := &Registry{pools: make(map[uint64]*entry, len(configs))}

	for i, cfg := range configs {
		e, err := parsePoolConfig(cfg, programID)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, cfg.Name, err)
		}
		if _, dup := r.pools[cfg.Seed]; dup {
			return nil, fmt.Errorf("pool %d (%s): %w: duplicate seed %d", i, cfg.Name, ErrInvalidPool, cfg.Seed)
		}
		r.pools[cfg.Seed] = e
	}

	return r, nil
}

// parsePoolConfig converts a config entry to a pool record with validation
func parsePoolConfig(cfg PoolConfig, programID solana.PublicKey) (*entry, error) {
	mintX, err := solana.PublicKeyFromBase58(cfg.MintX)
	if err != nil {
		return nil, fmt.Errorf("%w: mint_x: %v", ErrInvalidPool, err)
	}
	mintY, err := solana.PublicKeyFromBase58(cfg.MintY)
	if err != nil {
		return nil, fmt.Errorf("%w: mint_y: %v", ErrInvalidPool, err)
	}

	pool, err := NewPool(programID, cfg.Seed, mintX, mintY)
	if err != nil {
		return nil, err
	}
	pool.Locked = cfg.Locked

	return &entry{
		name:     cfg.Name,
		pool:     *pool,
		reserves: amm.Reserves{X: cfg.ReserveX, Y: cfg.ReserveY},
	}, nil
}

// Get implements amm.PoolLookup
func (r *Registry) Get(_ context.Context, seed uint64) (*amm.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.pools[seed]
	if !ok {
		return nil, fmt.Errorf("%w: seed %d", ErrNotFound, seed)
	}
	p := e.pool
	return &p, nil
}

// List returns all pools ordered by seed
func (r *Registry) List(_ context.Context) ([]*amm.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*amm.Pool, 0, len(r.pools))
	for _, e := range r.pools {
		p := e.pool
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out, nil
}

// SetLocked toggles the lock flag of a pool
func (r *Registry) SetLocked(_ context.Context, seed uint64, locked bool) (*amm.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.pools[seed]
	if !ok {
		return nil, fmt.Errorf("%w: seed %d", ErrNotFound, seed)
	}
	e.pool.Locked = locked
	p := e.pool
	return &p, nil
}

// FindPoolByName searches for a pool by its name
func (r *Registry) FindPoolByName(name string) (*amm.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.pools {
		if e.name == name {
			p := e.pool
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// FindPoolByMints searches for a pool matching the given token pair in
// either order.
func (r *Registry) FindPoolByMints(mintA, mintB solana.PublicKey) (*amm.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.pools {
		p := e.pool
		if (p.MintX.Equals(mintA) && p.MintY.Equals(mintB)) ||
			(p.MintX.Equals(mintB) && p.MintY.Equals(mintA)) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: mints %s / %s", ErrNotFound, mintA, mintB)
}

// InitialReserves returns the configured dev reserves for seed
func (r *Registry) InitialReserves(seed uint64) (amm.Reserves, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.pools[seed]
	if !ok {
		return amm.Reserves{}, false
	}
	return e.reserves, true
}

// PoolCount returns the number of registered pools
func (r *Registry) PoolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}
