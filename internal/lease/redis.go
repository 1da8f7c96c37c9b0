// Package lease - Redis-backed locker for multi-node deployments
package lease

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds the caller's token.
// An unconditional delete could release a lease acquired by a later holder
// after the original's TTL expired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker over a shared Redis instance, making the
// mutual exclusion hold across processes and nodes.
type RedisLocker struct {
	rdb  redis.UniversalClient
	opts Options
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(rdb redis.UniversalClient, opts Options) *RedisLocker {
	return &RedisLocker{rdb: rdb, opts: opts}
}

// Acquire attempts SET NX PX with jittered backoff between attempts and
// returns ErrBusy once the retry budget is spent.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	token := uuid.New().String()

	for attempt := 0; attempt < l.opts.Attempts; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return &Lease{Key: key, Token: token, Expires: time.Now().Add(l.opts.TTL)}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(l.opts, attempt)):
		}
	}
	return nil, ErrBusy
}

// Release presents the lease token; a stale token is reported as ErrNotHeld
// and never deletes a newer holder's key.
func (l *RedisLocker) Release(ctx context.Context, lease *Lease) error {
	n, err := releaseScript.Run(ctx, l.rdb, []string{lease.Key}, lease.Token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
