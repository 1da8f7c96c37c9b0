// Package state - the lease-guarded store facade
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/lease"
)

// Store is the concurrency-safe facade over live player state. Every
// mutating call acquires the pair's lease, re-reads the latest record inside
// it, applies the change, persists, then releases. Operations on the same
// pair are strictly serialized; different pairs interleave freely.
type Store struct {
	repo    Repository
	locker  lease.Locker
	durable Durable
	log     *logrus.Logger

	// idleAfter is the inactivity TTL before a record is reconciled to the
	// durable store and evicted.
	idleAfter time.Duration
}

// NewStore wires the store. durable may be nil in ephemeral test setups;
// initialization then seeds a zero balance.
func NewStore(repo Repository, locker lease.Locker, durable Durable, idleAfter time.Duration, log *logrus.Logger) *Store {
	return &Store{
		repo:      repo,
		locker:    locker,
		durable:   durable,
		idleAfter: idleAfter,
		log:       log,
	}
}

// Initialize lazily creates the default state for a pair, seeded with the
// durable account balance on first touch.
func (s *Store) Initialize(ctx context.Context, userID, gameID string) (*domain.PlayerGameState, error) {
	return s.Update(ctx, userID, gameID, func(*domain.PlayerGameState) error { return nil })
}

// Get returns the current record without taking the lease. Callers that
// intend to mutate must go through Update instead.
func (s *Store) Get(ctx context.Context, userID, gameID string) (*domain.PlayerGameState, error) {
	return s.repo.Load(ctx, userID, gameID)
}

// Update runs one lease-guarded read-modify-write transaction. The mutate
// function sees the latest record (created lazily when absent) and may
// return an error to abort with no mutation persisted. Once the lease is
// held the operation runs to completion and always releases.
func (s *Store) Update(ctx context.Context, userID, gameID string, mutate func(*domain.PlayerGameState) error) (*domain.PlayerGameState, error) {
	key := lease.Key(userID, gameID)
	held, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := s.locker.Release(context.WithoutCancel(ctx), held); relErr != nil && !errors.Is(relErr, lease.ErrNotHeld) {
			s.log.WithError(relErr).WithField("key", key).Warn("lease release failed")
		}
	}()

	current, err := s.repo.Load(ctx, userID, gameID)
	switch {
	case errors.Is(err, ErrNotFound):
		current, err = s.freshState(ctx, userID, gameID)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, current); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	next.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) freshState(ctx context.Context, userID, gameID string) (*domain.PlayerGameState, error) {
	var balance int64
	if s.durable != nil {
		b, err := s.durable.AccountBalance(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("seed balance: %w", err)
		}
		balance = b
	}
	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"game_id": gameID,
		"balance": balance,
	}).Info("player state created")
	return domain.NewPlayerGameState(userID, gameID, balance), nil
}

// Deduct removes amount from the balance, failing with ErrInsufficientFunds
// and no mutation when the balance is short. Balance never goes below zero.
func (s *Store) Deduct(ctx context.Context, userID, gameID string, amount int64) (int64, error) {
	st, err := s.Update(ctx, userID, gameID, func(st *domain.PlayerGameState) error {
		if st.Balance < amount {
			return ErrInsufficientFunds
		}
		st.Balance -= amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return st.Balance, nil
}

// Credit adds amount to the balance and returns the new balance.
func (s *Store) Credit(ctx context.Context, userID, gameID string, amount int64) (int64, error) {
	st, err := s.Update(ctx, userID, gameID, func(st *domain.PlayerGameState) error {
		st.Balance += amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return st.Balance, nil
}

// UpdateFeatures applies a feature-state change under the pair's lease.
func (s *Store) UpdateFeatures(ctx context.Context, userID, gameID string, mutate func(*domain.FeatureState)) (*domain.PlayerGameState, error) {
	return s.Update(ctx, userID, gameID, func(st *domain.PlayerGameState) error {
		mutate(&st.Features)
		return nil
	})
}

// Reconcile performs the one-way balance sync back to the durable store.
func (s *Store) Reconcile(ctx context.Context, userID, gameID, reason string) error {
	if s.durable == nil {
		return nil
	}
	st, err := s.repo.Load(ctx, userID, gameID)
	if err != nil {
		return err
	}
	before, err := s.durable.AccountBalance(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.durable.ReconcileBalance(ctx, userID, gameID, before, st.Balance, reason); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"game_id": gameID,
		"balance": st.Balance,
	}).Debug("balance reconciled")
	return nil
}

// EndSession reconciles the pair and evicts its live record.
func (s *Store) EndSession(ctx context.Context, userID, gameID string) error {
	if err := s.Reconcile(ctx, userID, gameID, "session_end"); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.Delete(ctx, userID, gameID)
}

// Sweep reconciles and evicts records idle past the inactivity TTL. Run it
// periodically from the process main loop.
func (s *Store) Sweep(ctx context.Context) error {
	pairs, err := s.repo.IdlePairs(ctx, time.Now().Add(-s.idleAfter))
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := s.EndSession(ctx, p.UserID, p.GameID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"user_id": p.UserID,
				"game_id": p.GameID,
			}).Warn("idle eviction failed")
			continue
		}
	}
	if len(pairs) > 0 {
		s.log.WithField("evicted", len(pairs)).Info("idle player states swept")
	}
	return nil
}
