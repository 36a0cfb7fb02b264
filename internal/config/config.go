package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

type Config struct {
	// API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Rate limiting for swap routes
	SwapRateLimit float64 // requests per second per client
	SwapRateBurst int

	LogLevel string

	// Program owning pool credentials
	ProgramID      string
	PoolConfigPath string

	// RPC settings
	RPCUrl       string
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Redis settings; empty disables Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClickHouse settings; empty disables ClickHouse
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
}

func Load() *Config {
	return &Config{
		// API
		APIAddr: getEnv("API_ADDR", ":8080"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		SwapRateLimit: getFloatEnv("SWAP_RATE_LIMIT", 5),
		SwapRateBurst: getIntEnv("SWAP_RATE_BURST", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Pools
		ProgramID:      getEnv("PROGRAM_ID", ""),
		PoolConfigPath: getEnv("POOL_CONFIG_PATH", "configs/pools.json"),

		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
	}
}

// Validate rejects missing or malformed settings
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ProgramID) == "" {
		errs = append(errs, errors.New("PROGRAM_ID is required"))
	} else if _, err := solana.PublicKeyFromBase58(c.ProgramID); err != nil {
		errs = append(errs, fmt.Errorf("PROGRAM_ID: %w", err))
	}

	if _, _, err := net.SplitHostPort(c.APIAddr); err != nil {
		errs = append(errs, fmt.Errorf("API_ADDR: %w", err))
	}
	if c.SwapRateLimit <= 0 || c.SwapRateBurst <= 0 {
		errs = append(errs, errors.New("SWAP_RATE_LIMIT and SWAP_RATE_BURST must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	if strings.TrimSpace(c.PoolConfigPath) == "" && c.RedisAddr == "" {
		errs = append(errs, errors.New("POOL_CONFIG_PATH or REDIS_ADDR is required"))
	}

	return errors.Join(errs...)
}

// Program returns the parsed program id. Call Validate first.
func (c *Config) Program() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
