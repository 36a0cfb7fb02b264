package poolstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/solana-amm-core/internal/amm"
	"github.com/aman-zulfiqar/solana-amm-core/internal/constants"
)

// Record is the JSON stored under pools:<seed>
type Record struct {
	amm.Pool
	Name      string    `json:"name,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisStore keeps pool records in Redis: one JSON value per pool plus a set
// of known seeds.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Upsert(ctx context.Context, name string, pool *amm.Pool) (*Record, error) {
	if pool == nil {
		return nil, amm.ErrNilPool
	}

	rec := &Record{Pool: *pool, Name: name, UpdatedAt: time.Now().UTC()}
	if err := s.write(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert pool: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) write(ctx context.Context, rec *Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	seed := strconv.FormatUint(rec.Seed, 10)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, poolKey(rec.Seed), b, 0)
	pipe.SAdd(ctx, constants.RedisKeyPoolIndex, seed)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) record(ctx context.Context, seed uint64) (*Record, error) {
	val, err := s.client.Get(ctx, poolKey(seed)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: seed %d", ErrNotFound, seed)
	}
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal pool: %w", err)
	}
	return &rec, nil
}

// Get implements amm.PoolLookup
func (s *RedisStore) Get(ctx context.Context, seed uint64) (*amm.Pool, error) {
	rec, err := s.record(ctx, seed)
	if err != nil {
		return nil, err
	}
	return &rec.Pool, nil
}

// Exists reports whether a record for seed is stored
func (s *RedisStore) Exists(ctx context.Context, seed uint64) (bool, error) {
	n, err := s.client.Exists(ctx, poolKey(seed)).Result()
	if err != nil {
		return false, fmt.Errorf("exists pool: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*amm.Pool, error) {
	seeds, err := s.client.SMembers(ctx, constants.RedisKeyPoolIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list pools index: %w", err)
	}
	if len(seeds) == 0 {
		return []*amm.Pool{}, nil
	}

	redisKeys := make([]string, 0, len(seeds))
	for _, raw := range seeds {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		redisKeys = append(redisKeys, poolKey(seed))
	}
	if len(redisKeys) == 0 {
		return []*amm.Pool{}, nil
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget pools: %w", err)
	}

	out := make([]*amm.Pool, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			continue
		}
		p := rec.Pool
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })

	return out, nil
}

// SetLocked toggles the lock flag of a stored pool
func (s *RedisStore) SetLocked(ctx context.Context, seed uint64, locked bool) (*amm.Pool, error) {
	rec, err := s.record(ctx, seed)
	if err != nil {
		return nil, err
	}

	rec.Locked = locked
	rec.UpdatedAt = time.Now().UTC()
	if err := s.write(ctx, rec); err != nil {
		return nil, fmt.Errorf("set pool lock: %w", err)
	}
	return &rec.Pool, nil
}

func (s *RedisStore) Delete(ctx context.Context, seed uint64) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, poolKey(seed))
	pipe.SRem(ctx, constants.RedisKeyPoolIndex, strconv.FormatUint(seed, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete pool: %w", err)
	}

	return nil
}

func poolKey(seed uint64) string {
	return constants.RedisKeyPoolPrefix + strconv.FormatUint(seed, 10)
}
