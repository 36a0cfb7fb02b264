package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-core/internal/journal"
	"github.com/aman-zulfiqar/solana-amm-core/internal/metrics"
)

var (
	ErrConfigMismatch = errors.New("pool config address does not match seed and bump")
	ErrVaultMismatch  = errors.New("vault is not the pool's associated token account")
)

// HostConfig holds the collaborators of a Host
type HostConfig struct {
	Ledger   *Ledger
	Pools    amm.PoolLookup
	Recorder journal.Recorder     // optional
	Metrics  *metrics.SwapMetrics // optional
	Logger   *logrus.Logger
	Now      func() time.Time
}

// Host runs swaps against the ledger: it validates the accounts a swap
// touches, executes it inside one transaction and journals the outcome.
type Host struct {
	ledger   *Ledger
	pools    amm.PoolLookup
	recorder journal.Recorder
	metrics  *metrics.SwapMetrics
	swapper  *amm.Swapper
	logger   *logrus.Logger
	now      func() time.Time
}

// NewHost creates a Host
func NewHost(cfg HostConfig) (*Host, error) {
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("host: ledger is nil")
	}
	if cfg.Pools == nil {
		return nil, fmt.Errorf("host: pool lookup is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Host{
		ledger:   cfg.Ledger,
		pools:    cfg.Pools,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		swapper:  amm.NewSwapper(amm.SwapperConfig{Logger: cfg.Logger}),
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Ledger returns the underlying ledger
func (h *Host) Ledger() *Ledger {
	return h.ledger
}

// PoolVaults resolves the pool for seed and derives its vaults after
// checking the config address and that both vaults exist.
func (h *Host) PoolVaults(ctx context.Context, seed uint64) (*amm.Pool, amm.Vaults, error) {
	pool, vaults, err := h.resolve(ctx, seed)
	if err != nil {
		return nil, amm.Vaults{}, err
	}
	return pool, vaults, nil
}

// resolve is PoolVaults but keeps the pool when a check after the lookup
// fails.
func (h *Host) resolve(ctx context.Context, seed uint64) (*amm.Pool, amm.Vaults, error) {
	pool, err := h.pools.Get(ctx, seed)
	if err != nil {
		return nil, amm.Vaults{}, err
	}
	if pool.Seed != seed {
		return pool, amm.Vaults{}, fmt.Errorf("%w: record seed %d, requested %d", ErrConfigMismatch, pool.Seed, seed)
	}

	config, err := solana.CreateProgramAddress(amm.AuthorityCredential(seed, pool.Bump).SignerSeeds(), h.ledger.programID)
	if err != nil {
		return pool, amm.Vaults{}, fmt.Errorf("%w: %v", ErrConfigMismatch, err)
	}
	if !config.Equals(pool.Address) {
		return pool, amm.Vaults{}, fmt.Errorf("%w: derived %s, stored %s", ErrConfigMismatch, config, pool.Address)
	}

	vx, err := h.requireAccount(config, pool.MintX)
	if err != nil {
		return pool, amm.Vaults{}, fmt.Errorf("vault x: %w", err)
	}
	vy, err := h.requireAccount(config, pool.MintY)
	if err != nil {
		return pool, amm.Vaults{}, fmt.Errorf("vault y: %w", err)
	}

	return pool, amm.Vaults{X: vx, Y: vy}, nil
}

// requireAccount returns ATA(owner, mint) if it exists and matches
func (h *Host) requireAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}

	acc, err := h.ledger.Account(addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !acc.Mint.Equals(mint) {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrMintMismatch, addr)
	}
	if !acc.Owner.Equals(owner) {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrVaultMismatch, addr)
	}
	return addr, nil
}

// Swap validates and executes req for trader on the pool identified by seed.
// The swap commits in full or not at all.
func (h *Host) Swap(ctx context.Context, seed uint64, trader solana.PublicKey, req amm.SwapRequest) (*amm.SwapResult, error) {
	started := time.Now()
	res, resolved, err := h.swap(ctx, seed, trader, req)

	status := metrics.StatusOK
	switch {
	case amm.IsFatal(err):
		status = metrics.StatusFatal
	case err != nil:
		status = metrics.StatusRejected
	}
	pool := metrics.UnknownPool
	if resolved {
		pool = metrics.PoolLabel(seed)
	}
	h.metrics.ObserveSwap(pool, req.Direction.String(), status, started)
	return res, err
}

// swap reports whether seed resolved to a pool alongside the outcome. The
// pool is read inside the transaction so a lock set while another swap holds
// the ledger is seen.
func (h *Host) swap(ctx context.Context, seed uint64, trader solana.PublicKey, req amm.SwapRequest) (*amm.SwapResult, bool, error) {
	tx, err := h.ledger.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			h.logger.WithError(rbErr).Error("rollback failed")
		}
	}()

	pool, vaults, err := h.resolve(ctx, seed)
	if err != nil {
		return nil, pool != nil, err
	}

	traderX, err := h.requireAccount(trader, pool.MintX)
	if err != nil {
		return nil, true, fmt.Errorf("trader x account: %w", err)
	}
	traderY, err := h.requireAccount(trader, pool.MintY)
	if err != nil {
		return nil, true, fmt.Errorf("trader y account: %w", err)
	}

	accounts := amm.SwapAccounts{
		Trader:  trader,
		Vaults:  vaults,
		TraderX: traderX,
		TraderY: traderY,
	}

	res, err := h.swapper.Swap(ctx, tx, pool, accounts, req)
	if err != nil {
		if amm.IsFatal(err) {
			h.logger.WithFields(logrus.Fields{
				"pool":   seed,
				"trader": trader.String(),
			}).WithError(err).Error("swap aborted after deposit, rolled back")
		}
		return nil, true, err
	}

	committed = true
	if err := tx.Commit(); err != nil {
		return nil, true, fmt.Errorf("failed to commit swap: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"pool":       seed,
		"trader":     trader.String(),
		"direction":  res.Direction.String(),
		"amount_in":  res.InputAmount,
		"amount_out": res.OutputAmount,
	}).Info("swap executed")
	volX, volY := res.InputAmount, res.OutputAmount
	if res.Direction == amm.YIn {
		volX, volY = res.OutputAmount, res.InputAmount
	}
	h.metrics.ObserveCommitted(seed, volX, volY, res.After.X, res.After.Y)

	h.record(ctx, pool, trader, res)
	return res, true, nil
}

// record journals a committed swap. Failures are logged only.
func (h *Host) record(ctx context.Context, pool *amm.Pool, trader solana.PublicKey, res *amm.SwapResult) {
	if h.recorder == nil {
		return
	}

	rec := journal.NewSwapRecord(pool, trader, res, h.now())

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.JournalTimeout)
	defer cancel()

	if err := h.recorder.Record(rctx, rec); err != nil {
		h.metrics.ObserveJournalFailure()
		h.logger.WithError(err).WithField("swap_id", rec.ID).Warn("failed to journal swap")
	}
}

// Quote prices amountIn against the pool's current reserves
func (h *Host) Quote(ctx context.Context, seed uint64, dir amm.Direction, amountIn uint64) (*amm.Quote, error) {
	_, vaults, err := h.PoolVaults(ctx, seed)
	if err != nil {
		return nil, err
	}
	return h.swapper.Quote(ctx, h.ledger, vaults, dir, amountIn)
}

// QuoteExactOut returns the smallest input releasing amountOut
func (h *Host) QuoteExactOut(ctx context.Context, seed uint64, dir amm.Direction, amountOut uint64) (*amm.Quote, error) {
	_, vaults, err := h.PoolVaults(ctx, seed)
	if err != nil {
		return nil, err
	}
	return h.swapper.QuoteExactOut(ctx, h.ledger, vaults, dir, amountOut)
}

// Reserves returns the pool's current vault balances
func (h *Host) Reserves(ctx context.Context, seed uint64) (amm.Reserves, error) {
	_, vaults, err := h.PoolVaults(ctx, seed)
	if err != nil {
		return amm.Reserves{}, err
	}
	x, err := h.ledger.Balance(ctx, vaults.X)
	if err != nil {
		return amm.Reserves{}, err
	}
	y, err := h.ledger.Balance(ctx, vaults.Y)
	if err != nil {
		return amm.Reserves{}, err
	}
	return amm.Reserves{X: x, Y: y}, nil
}

// FundPool opens both vaults of pool and credits the given reserves. Used to
// seed pools from the registry in dev and tests.
func (h *Host) FundPool(pool *amm.Pool, reserves amm.Reserves) error {
	if _, err := h.ledger.Mint(pool.Address, pool.MintX, reserves.X); err != nil {
		return fmt.Errorf("failed to fund vault x: %w", err)
	}
	if _, err := h.ledger.Mint(pool.Address, pool.MintY, reserves.Y); err != nil {
		return fmt.Errorf("failed to fund vault y: %w", err)
	}
	return nil
}
