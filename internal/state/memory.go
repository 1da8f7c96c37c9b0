// Package state - in-process repository for standalone mode and tests
package state

import (
	"context"
	"sync"
	"time"

	"github.com/luckyreel/rgs/internal/domain"
)

type memoryRecord struct {
	state   *domain.PlayerGameState
	touched time.Time
}

// MemoryRepository keeps records in a mutex-guarded map with the same
// contract as the Redis repository.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[Pair]memoryRecord
}

// NewMemoryRepository creates an empty in-process repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[Pair]memoryRecord)}
}

func (r *MemoryRepository) Load(_ context.Context, userID, gameID string) (*domain.PlayerGameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[Pair{UserID: userID, GameID: gameID}]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.state.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, s *domain.PlayerGameState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[Pair{UserID: s.UserID, GameID: s.GameID}] = memoryRecord{
		state:   s.Clone(),
		touched: time.Now(),
	}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, Pair{UserID: userID, GameID: gameID})
	return nil
}

func (r *MemoryRepository) IdlePairs(_ context.Context, olderThan time.Time) ([]Pair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pairs []Pair
	for p, rec := range r.records {
		if rec.touched.Before(olderThan) {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

var _ Repository = (*MemoryRepository)(nil)
