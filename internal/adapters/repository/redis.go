package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EvanTenenbaum/TERP-sub019/internal/domain/types"
)

// RedisSnapshots shares population snapshots through Redis so every replica
// ranks against the same population read.
type RedisSnapshots struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

var _ SnapshotStore = (*RedisSnapshots)(nil)

// NewRedisSnapshots stores snapshots under prefix, expiring after ttl.
func NewRedisSnapshots(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisSnapshots {
	if prefix == "" {
		prefix = "credit"
	}
	return &RedisSnapshots{rdb: rdb, prefix: prefix, ttl: ttl}
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

func (r *RedisSnapshots) key(metric types.MetricType, asOf time.Time) string {
	return fmt.Sprintf("%s:population:%s:%s", r.prefix, metric, asOf.UTC().Format(time.DateOnly))
}

// Load implements SnapshotStore.
func (r *RedisSnapshots) Load(ctx context.Context, metric types.MetricType, asOf time.Time) (*Snapshot, error) {
	b, err := r.rdb.Get(ctx, r.key(metric, asOf)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Save implements SnapshotStore.
func (r *RedisSnapshots) Save(ctx context.Context, s *Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(s.Metric, s.AsOf), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}
