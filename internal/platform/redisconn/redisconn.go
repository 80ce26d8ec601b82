// Package redisconn constructs the shared Redis client used as the queue's
// coordination store. All cross-process state (ready list, processing sets,
// visibility leases) lives behind this single connection pool.
package redisconn

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketlens/stockq/internal/config"
)

// connectTimeout bounds the startup ping so a misconfigured Redis URL
// fails fast instead of hanging boot.
const connectTimeout = 5 * time.Second

// Connect parses the configured Redis URL, opens a client, and verifies
// connectivity with a ping. The caller owns closing the returned client.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
