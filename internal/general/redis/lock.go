package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"ride-hail/internal/ports"

	"github.com/redis/go-redis/v9"
)

// ErrLockUnavailable is returned when Acquire exhausts its retry budget.
var ErrLockUnavailable = errors.New("distributed lock unavailable")

// releaseScript deletes the key only if it still holds our fence token,
// so a lock we lost to expiry/reacquisition is never released out from
// under its new holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// extendScript refreshes the TTL only if the fence token still matches.
const extendScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`

// LockAdapter implements ports.DistributedLock on top of the Cache's
// SetNX primitive, fenced with a random token (spec §4.3 step 1, §4.6
// step 2, §5).
type LockAdapter struct {
	client       *redis.Client
	retryDelay   time.Duration
	retryBudget  int
}

// NewDistributedLock constructs a LockAdapter with bounded-retry acquire
// semantics.
func NewDistributedLock(client *redis.Client) ports.DistributedLock {
	return &LockAdapter{client: client, retryDelay: 50 * time.Millisecond, retryBudget: 20}
}

func fenceToken() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Acquire blocks with bounded retries and returns ErrLockUnavailable if the
// lease cannot be obtained.
func (l *LockAdapter) Acquire(ctx context.Context, key string, lease time.Duration) (*ports.Lock, error) {
	token := fenceToken()

	for attempt := 0; attempt < l.retryBudget; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock acquire: %w", err)
		}
		if ok {
			return &ports.Lock{Key: key, FenceToken: token, ExpiresAt: time.Now().Add(lease)}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
	return nil, ErrLockUnavailable
}

// Extend refreshes the lease only if the fence token still matches.
func (l *LockAdapter) Extend(ctx context.Context, lock *ports.Lock, lease time.Duration) error {
	res, err := l.client.Eval(ctx, extendScript, []string{lock.Key}, lock.FenceToken, lease.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("redis lock extend: %w", err)
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockUnavailable
	}
	lock.ExpiresAt = time.Now().Add(lease)
	return nil
}

// Release deletes the key only if the fence token still matches.
func (l *LockAdapter) Release(ctx context.Context, lock *ports.Lock) error {
	if _, err := l.client.Eval(ctx, releaseScript, []string{lock.Key}, lock.FenceToken).Result(); err != nil {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}
