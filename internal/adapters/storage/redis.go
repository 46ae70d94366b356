package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisNotReady is returned when every connection attempt fails.
var ErrRedisNotReady = errors.New("redis did not become ready")

// ConnectRedis parses url, pings the server and retries up to attempts times.
// PRE: url is a redis:// or rediss:// URL
// POST: Returns a client that answered PING
func ConnectRedis(ctx context.Context, url string, attempts int, interval time.Duration) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if attempts <= 0 {
		attempts = 3
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(opt)
		err = client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		_ = client.Close()
		slog.Warn("redis_connect_retry", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(interval):
		}
	}
	return nil, errors.Join(ErrRedisNotReady, err)
}
