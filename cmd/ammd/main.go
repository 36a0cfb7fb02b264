package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-amm-core/internal/config"
	"github.com/aman-zulfiqar/solana-amm-core/internal/journal"
	"github.com/aman-zulfiqar/solana-amm-core/internal/ledger"
	"github.com/aman-zulfiqar/solana-amm-core/internal/metrics"
	"github.com/aman-zulfiqar/solana-amm-core/internal/poolstore"
	"github.com/aman-zulfiqar/solana-amm-core/internal/server"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the AMM API server
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	programID := cfg.Program()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Local pool registry; optional when Redis holds the pools
	var registry *poolstore.Registry
	if cfg.PoolConfigPath != "" {
		r, err := poolstore.NewRegistry(cfg.PoolConfigPath, programID)
		switch {
		case err == nil:
			registry = r
			logger.WithField("pools", r.PoolCount()).Info("loaded pool registry")
		case errors.Is(err, os.ErrNotExist) && cfg.RedisAddr != "":
			logger.WithField("path", cfg.PoolConfigPath).Warn("pool config not found, using Redis only")
		default:
			logger.WithError(err).Fatal("failed to load pool registry")
		}
	}

	var (
		store     poolstore.Store
		recorders journal.Multi
		recent    server.RecentSwapsReader
	)
	if registry != nil {
		store = registry
	}

	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rclient.Close()
		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}

		redisStore, err := poolstore.NewRedisStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create pool store")
		}
		if registry != nil {
			if err := syncPools(ctx, registry, redisStore, logger); err != nil {
				logger.WithError(err).Fatal("failed to sync pools to Redis")
			}
		}
		store = redisStore

		publisher := journal.NewRedisPublisher(rclient, 0, logger)
		recorders = append(recorders, publisher)
		recent = publisher
	}

	if store == nil {
		logger.Fatal("no pool store configured")
	}

	if cfg.ClickHouseAddr != "" {
		ch, err := journal.NewClickHouseStore(ctx, journal.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to ClickHouse")
		}
		defer ch.Close()
		if err := ch.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("failed to create ClickHouse schema")
		}
		recorders = append(recorders, ch)
	}

	var recorder journal.Recorder
	if len(recorders) > 0 {
		recorder = recorders
	}

	swapMetrics := metrics.NewSwapMetrics(nil)

	l := ledger.New(programID)
	host, err := ledger.NewHost(ledger.HostConfig{
		Ledger:   l,
		Pools:    store,
		Recorder: recorder,
		Metrics:  swapMetrics,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create host")
	}
	if registry != nil {
		if err := fundPools(ctx, registry, host); err != nil {
			logger.WithError(err).Fatal("failed to fund pool vaults")
		}
	}

	h := &server.Handlers{
		Host:    host,
		Pools:   store,
		Recent:  recent,
		Metrics: swapMetrics.Handler(),
		DevMode: cfg.DevMode,
		Logger:  logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:          cfg.APIAddr,
			DevMode:       cfg.DevMode,
			APIKey:        cfg.APIKey,
			SwapRateLimit: cfg.SwapRateLimit,
			SwapRateBurst: cfg.SwapRateBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":       cfg.APIAddr,
		"program_id": programID.String(),
		"dev_mode":   cfg.DevMode,
	}).Info("amm server starting")
	if err := srv.Start(); err != nil {
		logger.WithError(err).Fatal("amm server failed")
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer waitCancel()
	if err := srv.WaitClosed(waitCtx); err != nil {
		logger.WithError(err).Warn("shutdown did not complete")
	}
}

// syncPools writes registry pools missing from Redis. Existing records keep
// their lock flag.
func syncPools(ctx context.Context, registry *poolstore.Registry, dst *poolstore.RedisStore, logger *logrus.Logger) error {
	pools, err := registry.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range pools {
		exists, err := dst.Exists(ctx, p.Seed)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := dst.Upsert(ctx, "", p); err != nil {
			return err
		}
		logger.WithField("pool", p.Seed).Info("registered pool in Redis")
	}
	return nil
}

// fundPools credits the configured dev reserves to each pool's vaults
func fundPools(ctx context.Context, registry *poolstore.Registry, host *ledger.Host) error {
	pools, err := registry.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range pools {
		reserves, _ := registry.InitialReserves(p.Seed)
		if err := host.FundPool(p, reserves); err != nil {
			return err
		}
	}
	return nil
}
