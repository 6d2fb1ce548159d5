package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "password-reset:"

// NewRedisClient connects to REDIS_URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ResetThrottle allows one password-reset link per user per window.
// A nil client or a zero window disables throttling.
type ResetThrottle struct {
	client *redis.Client
	window time.Duration
}

func NewResetThrottle(client *redis.Client, window time.Duration) *ResetThrottle {
	return &ResetThrottle{client: client, window: window}
}

// Allow claims the window for userID. It returns false while an earlier claim is live.
func (t *ResetThrottle) Allow(ctx context.Context, userID string) (bool, error) {
	if t == nil || t.client == nil || t.window <= 0 {
		return true, nil
	}
	ok, err := t.client.SetNX(ctx, resetKeyPrefix+userID, time.Now().Unix(), t.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle %s: %w", userID, err)
	}
	return ok, nil
}

// Release drops the claim so a failed delivery can be retried immediately.
func (t *ResetThrottle) Release(ctx context.Context, userID string) error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Del(ctx, resetKeyPrefix+userID).Err()
}
