// Package lease provides the token-owned, time-bounded mutual-exclusion
// grant that serializes all mutation of a (user, game) state record.
//
// Acquire returns a caller-owned token; Release must present the same token
// and is a no-op for any other holder. Expiry is the only other release
// path, which guarantees forward progress if a holder crashes mid-operation.
package lease

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var (
	// ErrBusy surfaces after the bounded retry budget is exhausted. No
	// mutation has occurred; the caller may retry.
	ErrBusy = errors.New("resource busy: lease not acquired within retry budget")
	// ErrNotHeld is returned when releasing with a stale or foreign token.
	ErrNotHeld = errors.New("lease not held by this token")
)

// Lease is an acquired grant. Only the token-holder may release it early.
type Lease struct {
	Key     string
	Token   string
	Expires time.Time
}

// Locker acquires and releases leases over string keys.
type Locker interface {
	Acquire(ctx context.Context, key string) (*Lease, error)
	Release(ctx context.Context, l *Lease) error
}

// Options tune acquisition behavior. TTL is fixed per locker so a crashed
// holder cannot block a pair for longer than tens of seconds.
type Options struct {
	TTL        time.Duration
	Attempts   int
	RetryBase  time.Duration
	RetryCap   time.Duration
}

// DefaultOptions matches the spin workload: short critical sections, many
// rapid repeated actions per player.
func DefaultOptions() Options {
	return Options{
		TTL:       30 * time.Second,
		Attempts:  10,
		RetryBase: 25 * time.Millisecond,
		RetryCap:  400 * time.Millisecond,
	}
}

// Key builds the lease key for a (user, game) pair.
func Key(userID, gameID string) string {
	return "lease:" + gameID + ":" + userID
}

// backoff returns the jittered delay before retry attempt n. Jitter avoids
// synchronized retry storms when many callers contend for one pair.
func backoff(opts Options, attempt int) time.Duration {
	d := opts.RetryBase << uint(attempt)
	if d > opts.RetryCap {
		d = opts.RetryCap
	}
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(half+1))
}
