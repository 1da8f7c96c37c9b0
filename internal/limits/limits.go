// Package limits enforces responsible-gaming limits on the spin path
// Compliant with GLI-19 §2.5.5: Limitations and Exclusions
//
// Key Requirements:
//   - Players can set wager and loss limits over daily and weekly windows
//   - Limit decreases take effect immediately
//   - Limit increases and removals require a 24-hour cooling-off period
//   - Self-exclusion must be supported
package limits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luckyreel/rgs/internal/audit"
	"github.com/luckyreel/rgs/internal/domain"
)

var (
	ErrPlayerExcluded     = errors.New("player is self-excluded")
	ErrWagerLimitExceeded = errors.New("wager limit exceeded")
	ErrLossLimitExceeded  = errors.New("loss limit exceeded")
	ErrInvalidLimit       = errors.New("invalid limit value")
	ErrInvalidPeriod      = errors.New("invalid limit period")
)

// CoolingOffPeriod is the required waiting period for limit increases
// GLI-19 §2.5.5.b - Limit increases require waiting period
const CoolingOffPeriod = 24 * time.Hour

// Period identifies a limit window.
type Period string

const (
	Daily  Period = "daily"
	Weekly Period = "weekly"
)

func (p Period) window() time.Duration {
	if p == Weekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// Kind identifies what the limit constrains.
type Kind string

const (
	Wager Kind = "wager"
	Loss  Kind = "loss"
)

// Limit is one configured cap. Pending holds an increase that is still
// waiting out the cooling-off period; it replaces Amount once
// EffectiveAt passes. Pending of -1 marks a scheduled removal.
type Limit struct {
	Amount      int64      `json:"amount"`
	Pending     *int64     `json:"pending,omitempty"`
	EffectiveAt *time.Time `json:"effective_at,omitempty"`
}

// PlayerLimits holds a player's configured limits per kind and period.
type PlayerLimits struct {
	Wager map[Period]*Limit `json:"wager"`
	Loss  map[Period]*Limit `json:"loss"`
}

func newPlayerLimits() *PlayerLimits {
	return &PlayerLimits{
		Wager: make(map[Period]*Limit),
		Loss:  make(map[Period]*Limit),
	}
}

func (pl *PlayerLimits) bucket(kind Kind) (map[Period]*Limit, error) {
	switch kind {
	case Wager:
		return pl.Wager, nil
	case Loss:
		return pl.Loss, nil
	default:
		return nil, fmt.Errorf("unknown limit kind: %s", kind)
	}
}

// promote applies any pending changes whose cooling-off has elapsed.
// Returns true when something changed and the config needs persisting.
func (pl *PlayerLimits) promote(now time.Time) bool {
	changed := false
	for _, bucket := range []map[Period]*Limit{pl.Wager, pl.Loss} {
		for period, lim := range bucket {
			if lim.Pending == nil || lim.EffectiveAt == nil || now.Before(*lim.EffectiveAt) {
				continue
			}
			if *lim.Pending < 0 {
				delete(bucket, period)
			} else {
				lim.Amount = *lim.Pending
				lim.Pending = nil
				lim.EffectiveAt = nil
			}
			changed = true
		}
	}
	return changed
}

// window accumulates usage inside a rolling window in the in-memory
// fallback when no Redis backend is configured.
type window struct {
	start time.Time
	total int64
}

// Service enforces wager and loss limits and self-exclusion. Limit
// configuration and usage counters persist in Redis; without a Redis
// client everything runs in memory, which is only suitable for tests
// and single-node deployments.
type Service struct {
	rdb   redis.UniversalClient
	audit *audit.Service

	mu       sync.RWMutex
	cfgs     map[string]*PlayerLimits
	usage    map[string]*window
	excluded map[string]time.Time
}

// New creates a limits service. rdb may be nil.
func New(rdb redis.UniversalClient, auditSvc *audit.Service) *Service {
	return &Service{
		rdb:      rdb,
		audit:    auditSvc,
		cfgs:     make(map[string]*PlayerLimits),
		usage:    make(map[string]*window),
		excluded: make(map[string]time.Time),
	}
}

func cfgKey(userID string) string { return "limits:cfg:" + userID }

func useKey(userID string, kind Kind, period Period) string {
	return fmt.Sprintf("limits:use:%s:%s:%s", kind, period, userID)
}

func excludeKey(userID string) string { return "limits:excluded:" + userID }

// GetLimits retrieves a player's current limits
// GLI-19 §2.5.5 - Player must be able to view their limits
func (s *Service) GetLimits(ctx context.Context, userID string) (*PlayerLimits, error) {
	pl, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pl.promote(time.Now().UTC()) {
		if err := s.persist(ctx, userID, pl); err != nil {
			return nil, err
		}
	}
	return pl, nil
}

// SetLimit sets or changes a limit. Decreases and first-time limits
// apply immediately; increases and removals (amount 0) wait out the
// cooling-off period.
// GLI-19 §2.5.5.a, §2.5.5.b
func (s *Service) SetLimit(ctx context.Context, userID string, kind Kind, period Period, amount int64) (*PlayerLimits, error) {
	if amount < 0 {
		return nil, ErrInvalidLimit
	}
	if period != Daily && period != Weekly {
		return nil, ErrInvalidPeriod
	}

	pl, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	bucket, err := pl.bucket(kind)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pl.promote(now)

	current, exists := bucket[period]
	immediate := true
	switch {
	case !exists && amount > 0:
		bucket[period] = &Limit{Amount: amount}
	case exists && amount > 0 && amount <= current.Amount:
		current.Amount = amount
		current.Pending = nil
		current.EffectiveAt = nil
	case exists:
		// Increase or removal: schedule after cooling-off.
		pending := amount
		if amount == 0 {
			pending = -1
		}
		at := now.Add(CoolingOffPeriod)
		current.Pending = &pending
		current.EffectiveAt = &at
		immediate = false
	default:
		// Removing a limit that was never set.
		return pl, nil
	}

	if err := s.persist(ctx, userID, pl); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.EventLimitChange, domain.SeverityInfo,
		fmt.Sprintf("%s %s limit set to %d cents", period, kind, amount),
		map[string]interface{}{
			"kind":      kind,
			"period":    period,
			"amount":    amount,
			"immediate": immediate,
		},
		audit.WithUser(userID))

	return pl, nil
}

// SelfExclude excludes a player from gaming. Zero duration means
// permanent.
// GLI-19 §2.5.5.c - Self-exclusion must be supported
func (s *Service) SelfExclude(ctx context.Context, userID, reason string, duration time.Duration) error {
	until := time.Time{}
	if duration > 0 {
		until = time.Now().UTC().Add(duration)
	}

	s.mu.Lock()
	s.excluded[userID] = until
	s.mu.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, excludeKey(userID), reason, duration).Err(); err != nil {
			return fmt.Errorf("persist exclusion: %w", err)
		}
	}

	s.audit.Log(ctx, audit.EventSelfExclusion, domain.SeverityCritical,
		fmt.Sprintf("Player self-excluded: %s", reason),
		map[string]interface{}{
			"permanent": duration == 0,
			"duration":  duration.String(),
		},
		audit.WithUser(userID))

	return nil
}

// IsExcluded reports whether a player is currently self-excluded
// GLI-19 §2.5.5.c - Excluded players cannot access gaming
func (s *Service) IsExcluded(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	until, ok := s.excluded[userID]
	s.mu.RUnlock()
	if ok && (until.IsZero() || time.Now().UTC().Before(until)) {
		return true, nil
	}

	if s.rdb != nil {
		n, err := s.rdb.Exists(ctx, excludeKey(userID)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	return false, nil
}

// CheckWager rejects a stake that would breach a wager limit, or any
// play while a loss limit is already exhausted or the player is
// excluded. Called before the bet is deducted.
// GLI-19 §2.5.5 - Limits must be enforced
func (s *Service) CheckWager(ctx context.Context, userID string, stake int64) error {
	excluded, err := s.IsExcluded(ctx, userID)
	if err != nil {
		return err
	}
	if excluded {
		return ErrPlayerExcluded
	}

	pl, err := s.GetLimits(ctx, userID)
	if err != nil {
		return err
	}

	for period, lim := range pl.Wager {
		used, err := s.used(ctx, userID, Wager, period)
		if err != nil {
			return err
		}
		if used+stake > lim.Amount {
			return fmt.Errorf("%w: %s", ErrWagerLimitExceeded, period)
		}
	}
	for period, lim := range pl.Loss {
		used, err := s.used(ctx, userID, Loss, period)
		if err != nil {
			return err
		}
		if used >= lim.Amount {
			return fmt.Errorf("%w: %s", ErrLossLimitExceeded, period)
		}
	}
	return nil
}

// RecordSpin accumulates the stake into the wager windows and the net
// loss into the loss windows. Counter failures are best-effort for the
// spin already played, so the error is for logging only.
func (s *Service) RecordSpin(ctx context.Context, userID string, stake, win int64) error {
	for _, period := range []Period{Daily, Weekly} {
		if err := s.add(ctx, userID, Wager, period, stake); err != nil {
			return err
		}
	}
	if loss := stake - win; loss > 0 {
		for _, period := range []Period{Daily, Weekly} {
			if err := s.add(ctx, userID, Loss, period, loss); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (*PlayerLimits, error) {
	s.mu.RLock()
	pl, ok := s.cfgs[userID]
	s.mu.RUnlock()
	if ok {
		return pl, nil
	}

	pl = newPlayerLimits()
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, cfgKey(userID)).Result()
		switch {
		case err == redis.Nil:
		case err != nil:
			return nil, fmt.Errorf("load limits: %w", err)
		default:
			if err := json.Unmarshal([]byte(raw), pl); err != nil {
				return nil, fmt.Errorf("decode limits: %w", err)
			}
		}
	}

	s.mu.Lock()
	s.cfgs[userID] = pl
	s.mu.Unlock()
	return pl, nil
}

func (s *Service) persist(ctx context.Context, userID string, pl *PlayerLimits) error {
	s.mu.Lock()
	s.cfgs[userID] = pl
	s.mu.Unlock()

	if s.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(pl)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, cfgKey(userID), raw, 0).Err()
}

func (s *Service) used(ctx context.Context, userID string, kind Kind, period Period) (int64, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, useKey(userID, kind, period)).Int64()
		if err == redis.Nil {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.usage[useKey(userID, kind, period)]
	if !ok || time.Since(w.start) > period.window() {
		return 0, nil
	}
	return w.total, nil
}

func (s *Service) add(ctx context.Context, userID string, kind Kind, period Period, amount int64) error {
	key := useKey(userID, kind, period)

	if s.rdb != nil {
		val, err := s.rdb.IncrBy(ctx, key, amount).Result()
		if err != nil {
			return err
		}
		// First increment opens the window.
		if val == amount {
			return s.rdb.Expire(ctx, key, period.window()).Err()
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.usage[key]
	if !ok || time.Since(w.start) > period.window() {
		s.usage[key] = &window{start: time.Now(), total: amount}
		return nil
	}
	w.total += amount
	return nil
}
