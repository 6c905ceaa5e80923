package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SecretAttemptLimiter implements usecase.SecretAttemptLimiter: a fixed
// window of invalid-secret attempts per identity. The transfer engine only
// reports outcomes; this collaborator does the counting.
type SecretAttemptLimiter struct {
	client      *redis.Client
	prefix      string
	maxFailures int
	window      time.Duration
}

// NewSecretAttemptLimiter creates a limiter allowing maxFailures invalid
// attempts per identity within window.
func NewSecretAttemptLimiter(client *redis.Client, maxFailures int, window time.Duration) *SecretAttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = 5
	}

	if window <= 0 {
		window = 15 * time.Minute
	}

	return &SecretAttemptLimiter{
		client:      client,
		prefix:      "gobank:secret-attempts:",
		maxFailures: maxFailures,
		window:      window,
	}
}

// Allowed reports whether the identity is still under the failure threshold.
func (l *SecretAttemptLimiter) Allowed(ctx context.Context, identity string) (bool, error) {
	count, err := l.client.Get(ctx, l.prefix+identity).Int()
	if err == redis.Nil {
		return true, nil
	}

	if err != nil {
		return false, err
	}

	return count < l.maxFailures, nil
}

// RecordFailure counts one invalid-secret attempt. The window starts at the
// first failure and is not extended by later ones.
func (l *SecretAttemptLimiter) RecordFailure(ctx context.Context, identity string) error {
	key := l.prefix + identity

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	if count == 1 {
		return l.client.Expire(ctx, key, l.window).Err()
	}

	return nil
}

// Reset clears the failure count after a successful authentication.
func (l *SecretAttemptLimiter) Reset(ctx context.Context, identity string) error {
	return l.client.Del(ctx, l.prefix+identity).Err()
}
