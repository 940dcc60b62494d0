package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/task-api/internal/config"
	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long a denied caller should wait. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// NewFromConfig returns a RedisLimiter when cfg names a Redis URL and a
// MemoryLimiter otherwise. The returned close function releases the Redis
// client, if any.
func NewFromConfig(ctx context.Context, cfg config.RateLimitConfig, logger *slog.Logger) (Limiter, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.RedisURL == "" {
		logger.Info("using in-memory rate limiter",
			slog.Int("requests", cfg.Requests),
			slog.Duration("window", cfg.Window()))
		return NewMemoryLimiter(cfg.Requests, cfg.Window()), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid rate limit redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger.Info("using redis rate limiter",
		slog.String("addr", opts.Addr),
		slog.Int("requests", cfg.Requests),
		slog.Duration("window", cfg.Window()))

	return NewRedisLimiter(client, cfg.Requests, cfg.Window(), DefaultKeyPrefix), client.Close, nil
}
