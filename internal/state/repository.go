// Package state provides the concurrency-safe player state store: balance
// plus per-game feature state, every mutation serialized by a (user, game)
// lease.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/luckyreel/rgs/internal/domain"
)

var (
	// ErrNotFound means no live record exists for the pair.
	ErrNotFound = errors.New("player game state not found")
	// ErrInsufficientFunds is returned before any mutation occurs.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrCorrupt marks a stored record that no longer deserializes; the
	// operation aborts rather than guessing a recovery.
	ErrCorrupt = errors.New("stored state failed to deserialize")
)

// Pair identifies one (user, game) state record.
type Pair struct {
	UserID string
	GameID string
}

// Repository stores live PlayerGameState records. Implementations must keep
// records independently addressable per pair and report idle pairs so the
// store can reconcile before eviction.
type Repository interface {
	Load(ctx context.Context, userID, gameID string) (*domain.PlayerGameState, error)
	Save(ctx context.Context, s *domain.PlayerGameState) error
	Delete(ctx context.Context, userID, gameID string) error
	// IdlePairs returns pairs whose last save is older than the cutoff.
	IdlePairs(ctx context.Context, olderThan time.Time) ([]Pair, error)
}

// Durable is the one-way bridge to the durable account store: a balance
// read on first touch and a reconciliation write on sync points.
type Durable interface {
	AccountBalance(ctx context.Context, userID string) (int64, error)
	ReconcileBalance(ctx context.Context, userID, gameID string, before, after int64, reason string) error
}
