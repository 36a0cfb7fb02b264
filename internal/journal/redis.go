package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
)

// RedisPublisher publishes swap records on pub/sub channels and keeps a
// bounded list of the most recent ones.
type RedisPublisher struct {
	client    *redis.Client
	maxRecent int64
	logger    *logrus.Logger
}

// NewRedisPublisher wraps an existing client. maxRecent <= 0 uses
// constants.MaxRecentSwaps.
func NewRedisPublisher(client *redis.Client, maxRecent int, logger *logrus.Logger) *RedisPublisher {
	if maxRecent <= 0 {
		maxRecent = constants.MaxRecentSwaps
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisPublisher{client: client, maxRecent: int64(maxRecent), logger: logger}
}

// PoolChannel is the per-pool channel for seed
func PoolChannel(seed uint64) string {
	return constants.PubSubChannelPoolPrefix + strconv.FormatUint(seed, 10)
}

// Record publishes rec to the global and per-pool channels and pushes it on
// the recent list, in a single pipeline.
func (p *RedisPublisher) Record(ctx context.Context, rec SwapRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal swap record: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, constants.PubSubChannelSwaps, data)
	pipe.Publish(ctx, PoolChannel(rec.PoolSeed), data)
	pipe.LPush(ctx, constants.RedisKeyRecentSwaps, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentSwaps, 0, p.maxRecent-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish swap %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (p *RedisPublisher) Recent(ctx context.Context, limit int) ([]SwapRecord, error) {
	if limit <= 0 || int64(limit) > p.maxRecent {
		limit = int(p.maxRecent)
	}

	vals, err := p.client.LRange(ctx, constants.RedisKeyRecentSwaps, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent swaps: %w", err)
	}

	out := make([]SwapRecord, 0, len(vals))
	for _, v := range vals {
		var rec SwapRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			p.logger.WithError(err).Warn("skipping malformed swap record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Subscribe streams records published on channel to handler until ctx is
// done.
func (p *RedisPublisher) Subscribe(ctx context.Context, channel string, handler func(SwapRecord)) error {
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	p.logger.WithField("channel", channel).Info("subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var rec SwapRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				p.logger.WithError(err).Warn("error unmarshaling swap record")
				continue
			}
			handler(rec)
		}
	}
}
