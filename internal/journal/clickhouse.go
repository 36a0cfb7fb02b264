package journal

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
)

// ClickHouseConfig holds connection settings for the swap history store
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore appends swap records to the swaps table
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

const createSwapsTable = `
	CREATE TABLE IF NOT EXISTS swaps (
		id               String,
		timestamp        DateTime64(3, 'UTC'),
		pool_seed        UInt64,
		pool             String,
		trader           String,
		direction        LowCardinality(String),
		mint_in          String,
		mint_out         String,
		amount_in        UInt64,
		amount_out       UInt64,
		reserve_x_before UInt64,
		reserve_y_before UInt64,
		reserve_x_after  UInt64,
		reserve_y_after  UInt64
	) ENGINE = MergeTree()
	ORDER BY (pool_seed, timestamp)
`

// NewClickHouseStore connects and pings the server
func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

// EnsureSchema creates the swaps table if it is missing
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createSwapsTable); err != nil {
		return fmt.Errorf("failed to create swaps table: %w", err)
	}
	return nil
}

// Record implements Recorder
func (c *ClickHouseStore) Record(ctx context.Context, rec SwapRecord) error {
	return c.InsertSwap(ctx, rec)
}

func (c *ClickHouseStore) InsertSwap(ctx context.Context, rec SwapRecord) error {
	query := `
		INSERT INTO swaps (
			id, timestamp, pool_seed, pool, trader, direction, mint_in, mint_out,
			amount_in, amount_out,
			reserve_x_before, reserve_y_before, reserve_x_after, reserve_y_after
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		rec.ID,
		rec.Timestamp,
		rec.PoolSeed,
		rec.Pool,
		rec.Trader,
		rec.Direction,
		rec.MintIn,
		rec.MintOut,
		rec.AmountIn,
		rec.AmountOut,
		rec.ReserveXBefore,
		rec.ReserveYBefore,
		rec.ReserveXAfter,
		rec.ReserveYAfter,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}

	return nil
}

// Close closes the connection
func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
