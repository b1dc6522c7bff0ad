// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/marissalerer/listening-booth-dashboard/internal/config"
	"github.com/marissalerer/listening-booth-dashboard/internal/logging"
	"github.com/marissalerer/listening-booth-dashboard/internal/models"
)

// DefaultRedisKey is used when cache.redis_key is empty.
const DefaultRedisKey = "listening-booth:report:latest"

// Redis shares the cached report between server instances. The whole report
// is written with a single SET, which Redis applies atomically.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis connects to cfg.RedisAddr, which may be a redis:// URL or a bare
// host:port, and verifies the connection with PING.
func NewRedis(cfg config.CacheConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		opts = &redis.Options{Addr: cfg.RedisAddr}
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	if cfg.RedisDB != 0 {
		opts.DB = cfg.RedisDB
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 1
	opts.MaxRetries = 3

	r := NewRedisWithClient(redis.NewClient(opts), cfg.RedisKey, cfg.TTL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		_ = r.client.Close()
		return nil, err
	}

	logging.Info().Str("addr", opts.Addr).Str("key", r.key).Msg("Connected to Redis report store")
	return r, nil
}

// NewRedisWithClient wraps an existing client without pinging it.
func NewRedisWithClient(client *redis.Client, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context) (*models.Report, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", r.key, err)
	}

	var rep models.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("store: decode cached report: %w", err)
	}
	return &rep, nil
}

func (r *Redis) Save(ctx context.Context, rep *models.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("store: encode report: %w", err)
	}
	if err := r.client.Set(ctx, r.key, string(data), r.ttl).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func (r *Redis) Backend() string { return BackendRedis }

func (r *Redis) Close() error {
	return r.client.Close()
}
