package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
	"github.com/aman-zulfiqar/solana-amm-core/internal/config"
	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
	"github.com/aman-zulfiqar/solana-amm-core/internal/curve"
	"github.com/aman-zulfiqar/solana-amm-core/internal/journal"
	"github.com/aman-zulfiqar/solana-amm-core/internal/ledger"
	"github.com/aman-zulfiqar/solana-amm-core/internal/poolstore"
	"github.com/aman-zulfiqar/solana-amm-core/internal/rpc"
	"github.com/aman-zulfiqar/solana-amm-core/internal/wallet"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "quote", "quote | simulate | watch")
	seed := flag.Uint64("seed", 0, "pool seed")
	poolName := flag.String("pool", "", "pool name from the pool config (instead of -seed)")
	pair := flag.String("pair", "", "mintA,mintB token pair in either order (instead of -seed)")
	dirFlag := flag.String("direction", "x_in", "x_in | y_in")
	amount := flag.Uint64("amount", 0, "input amount in base units")
	slippageBps := flag.Uint("slippage-bps", 100, "slippage in bps (e.g. 100 = 1%)")
	keypair := flag.String("keypair", "", "trader keypair file or key (simulate; falls back to WALLET_PRIVATE_KEY, then a random key)")
	all := flag.Bool("all", false, "watch every pool instead of -seed")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if *mode == "watch" {
		if err := watch(ctx, cfg, *seed, *all); err != nil && ctx.Err() == nil {
			fmt.Println("watch failed:", err)
			os.Exit(1)
		}
		return
	}

	dir, err := amm.ParseDirection(*dirFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	if *amount == 0 {
		fmt.Println("missing -amount (must be > 0)")
		os.Exit(2)
	}
	if *slippageBps > constants.MaxBps {
		fmt.Println("-slippage-bps must be at most 10000")
		os.Exit(2)
	}

	registry, err := poolstore.NewRegistry(cfg.PoolConfigPath, cfg.Program())
	if err != nil {
		fmt.Println("failed to load pools:", err)
		os.Exit(1)
	}
	pool, err := resolvePool(ctx, registry, *seed, *poolName, *pair)
	if err != nil {
		fmt.Println("unknown pool:", err)
		os.Exit(1)
	}

	vaults, err := poolVaults(pool)
	if err != nil {
		fmt.Println("failed to derive vaults:", err)
		os.Exit(1)
	}

	client := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	for name, vault := range map[string]solana.PublicKey{"x": vaults.X, "y": vaults.Y} {
		ok, err := client.AccountExists(ctx, vault)
		if err != nil {
			fmt.Println("failed to check vault", name+":", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Printf("vault %s %s does not exist\n", name, vault)
			os.Exit(1)
		}
	}
	reader := rpc.NewCustodyReader(client)

	switch *mode {
	case "quote":
		q, err := amm.NewSwapper(amm.SwapperConfig{Logger: logger}).Quote(ctx, reader, vaults, dir, *amount)
		if err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
		fmt.Printf("pool=%d direction=%s amount_in=%d amount_out=%d min_out=%d price_impact=%.4f reserves=%d/%d\n",
			pool.Seed, q.Direction, q.AmountIn, q.AmountOut, curve.ApplySlippage(q.AmountOut, uint16(*slippageBps)),
			q.PriceImpact, q.Reserves.X, q.Reserves.Y)
	case "simulate":
		res, err := simulate(ctx, cfg.Program(), registry, pool, vaults, reader, *keypair, amm.SwapRequest{
			Direction: dir,
			Amount:    *amount,
		}, uint16(*slippageBps), logger)
		if err != nil {
			fmt.Println("simulate failed:", err)
			os.Exit(1)
		}
		fmt.Printf("direction=%s amount_in=%d amount_out=%d reserves_before=%d/%d reserves_after=%d/%d\n",
			res.Direction, res.InputAmount, res.OutputAmount,
			res.Before.X, res.Before.Y, res.After.X, res.After.Y)
	default:
		fmt.Println("unknown mode:", *mode)
		os.Exit(2)
	}
}

// resolvePool picks the pool by name, by token pair or by seed, in that order
// of precedence.
func resolvePool(ctx context.Context, registry *poolstore.Registry, seed uint64, name, pair string) (*amm.Pool, error) {
	switch {
	case name != "":
		return registry.FindPoolByName(name)
	case pair != "":
		a, b, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("-pair must be mintA,mintB, got %q", pair)
		}
		mintA, err := solana.PublicKeyFromBase58(strings.TrimSpace(a))
		if err != nil {
			return nil, fmt.Errorf("invalid mint %q: %w", a, err)
		}
		mintB, err := solana.PublicKeyFromBase58(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("invalid mint %q: %w", b, err)
		}
		return registry.FindPoolByMints(mintA, mintB)
	default:
		return registry.Get(ctx, seed)
	}
}

// poolVaults derives the pool's vault token accounts
func poolVaults(pool *amm.Pool) (amm.Vaults, error) {
	vx, _, err := ledger.FindAssociatedTokenAddress(pool.Address, pool.MintX)
	if err != nil {
		return amm.Vaults{}, err
	}
	vy, _, err := ledger.FindAssociatedTokenAddress(pool.Address, pool.MintY)
	if err != nil {
		return amm.Vaults{}, err
	}
	return amm.Vaults{X: vx, Y: vy}, nil
}

// simulate replays a swap on an in-memory ledger seeded with the live vault
// balances. Nothing is sent to the cluster.
func simulate(
	ctx context.Context,
	programID solana.PublicKey,
	pools amm.PoolLookup,
	pool *amm.Pool,
	vaults amm.Vaults,
	reader amm.BalanceReader,
	keypair string,
	req amm.SwapRequest,
	slippageBps uint16,
	logger *logrus.Logger,
) (*amm.SwapResult, error) {
	x, err := reader.Balance(ctx, vaults.X)
	if err != nil {
		return nil, fmt.Errorf("vault x: %w", err)
	}
	y, err := reader.Balance(ctx, vaults.Y)
	if err != nil {
		return nil, fmt.Errorf("vault y: %w", err)
	}

	trader := solana.NewWallet().PublicKey()
	switch {
	case keypair != "":
		w, err := wallet.LoadKeypair(keypair)
		if err != nil {
			return nil, err
		}
		trader = w.PublicKey()
	case os.Getenv("WALLET_PRIVATE_KEY") != "":
		w, err := wallet.NewWalletFromEnv()
		if err != nil {
			return nil, err
		}
		trader = w.PublicKey()
	}

	l := ledger.New(programID)
	host, err := ledger.NewHost(ledger.HostConfig{Ledger: l, Pools: pools, Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := host.FundPool(pool, amm.Reserves{X: x, Y: y}); err != nil {
		return nil, err
	}

	mintIn, mintOut := pool.MintX, pool.MintY
	if req.Direction == amm.YIn {
		mintIn, mintOut = pool.MintY, pool.MintX
	}
	if _, err := l.Mint(trader, mintIn, req.Amount); err != nil {
		return nil, err
	}
	if _, err := l.OpenAccount(trader, mintOut); err != nil {
		return nil, err
	}

	q, err := host.Quote(ctx, pool.Seed, req.Direction, req.Amount)
	if err != nil {
		return nil, err
	}
	req.MinOutput = curve.ApplySlippage(q.AmountOut, slippageBps)

	return host.Swap(ctx, pool.Seed, trader, req)
}

// watch prints journaled swaps as JSON lines until ctx is done
func watch(ctx context.Context, cfg *config.Config, seed uint64, all bool) error {
	if cfg.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for watch")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()

	channel := journal.PoolChannel(seed)
	if all {
		channel = constants.PubSubChannelSwaps
	}

	enc := json.NewEncoder(os.Stdout)
	pub := journal.NewRedisPublisher(client, 0, nil)
	return pub.Subscribe(ctx, channel, func(rec journal.SwapRecord) {
		_ = enc.Encode(rec)
	})
}
