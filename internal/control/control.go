// Package control provides gaming system control functionality
// Compliant with GLI-19 §2.4: Gaming Management
//
// Key Requirements:
//   - Operator must be able to disable all gaming on demand
//   - Individual games can be disabled
//   - All state changes must be logged
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luckyreel/rgs/internal/audit"
	"github.com/luckyreel/rgs/internal/domain"
)

var (
	ErrGamingDisabled = errors.New("gaming is currently disabled")
	ErrGameDisabled   = errors.New("game is currently disabled")
)

const (
	keyGamingEnabled = "control:gaming_enabled"
	keyDisabledGames = "control:disabled_games"
)

// Service provides gaming system control functionality. Switch state is
// held in memory for the hot path and persisted to Redis so restarts and
// sibling instances converge via LoadState.
// GLI-19 §2.4 - Gaming Management: System must support disabling gaming operations
type Service struct {
	rdb   redis.UniversalClient
	audit *audit.Service

	mu             sync.RWMutex
	gamingEnabled  bool
	disabledGames  map[string]bool
	disabledAt     *time.Time
	disabledBy     string
	disabledReason string
}

// New creates a new control service. rdb may be nil for single-process
// deployments; switches are then process-local.
func New(rdb redis.UniversalClient, auditSvc *audit.Service) *Service {
	return &Service{
		rdb:           rdb,
		audit:         auditSvc,
		gamingEnabled: true,
		disabledGames: make(map[string]bool),
	}
}

// DisableAllGaming stops all gaming activity
// GLI-19 §2.4.1 - Gaming Management: Ability to disable on demand
func (s *Service) DisableAllGaming(ctx context.Context, reason, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.gamingEnabled = false
	s.disabledAt = &now
	s.disabledBy = authorizedBy
	s.disabledReason = reason

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, keyGamingEnabled, "false", 0).Err(); err != nil {
			return fmt.Errorf("failed to persist gaming state: %w", err)
		}
	}

	// Audit log - GLI-19 §2.8.8 significant event
	s.audit.Log(ctx, "gaming_disabled", domain.SeverityCritical,
		fmt.Sprintf("All gaming disabled: %s", reason),
		map[string]interface{}{
			"authorized_by": authorizedBy,
			"reason":        reason,
		},
		audit.WithComponent("control"))

	return nil
}

// EnableAllGaming resumes gaming operations
// GLI-19 §2.4.1 - Gaming Management
func (s *Service) EnableAllGaming(ctx context.Context, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gamingEnabled = true
	s.disabledAt = nil
	s.disabledBy = ""
	s.disabledReason = ""

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, keyGamingEnabled, "true", 0).Err(); err != nil {
			return fmt.Errorf("failed to persist gaming state: %w", err)
		}
	}

	s.audit.Log(ctx, "gaming_enabled", domain.SeverityInfo,
		"All gaming enabled",
		map[string]interface{}{"authorized_by": authorizedBy},
		audit.WithComponent("control"))

	return nil
}

// DisableGame disables a specific game
// GLI-19 §2.4 - Gaming Management
func (s *Service) DisableGame(ctx context.Context, gameID, reason, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disabledGames[gameID] = true

	if s.rdb != nil {
		if err := s.rdb.SAdd(ctx, keyDisabledGames, gameID).Err(); err != nil {
			return fmt.Errorf("failed to persist game state: %w", err)
		}
	}

	s.audit.Log(ctx, audit.EventGameDisabled, domain.SeverityWarning,
		fmt.Sprintf("Game disabled: %s - %s", gameID, reason),
		map[string]interface{}{
			"reason":        reason,
			"authorized_by": authorizedBy,
		},
		audit.WithGame(gameID), audit.WithComponent("control"))

	return nil
}

// EnableGame enables a specific game
// GLI-19 §2.4 - Gaming Management
func (s *Service) EnableGame(ctx context.Context, gameID, authorizedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.disabledGames, gameID)

	if s.rdb != nil {
		if err := s.rdb.SRem(ctx, keyDisabledGames, gameID).Err(); err != nil {
			return fmt.Errorf("failed to persist game state: %w", err)
		}
	}

	s.audit.Log(ctx, "game_enabled", domain.SeverityInfo,
		fmt.Sprintf("Game enabled: %s", gameID),
		map[string]interface{}{"authorized_by": authorizedBy},
		audit.WithGame(gameID), audit.WithComponent("control"))

	return nil
}

// IsGamingEnabled checks if gaming is currently enabled
// GLI-19 §2.4 - Must be able to check system state
func (s *Service) IsGamingEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gamingEnabled
}

// IsGameEnabled checks if a specific game is enabled
func (s *Service) IsGameEnabled(gameID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.disabledGames[gameID]
}

// Status describes the current state of the gaming switches.
type Status struct {
	GamingEnabled  bool       `json:"gaming_enabled"`
	DisabledAt     *time.Time `json:"disabled_at,omitempty"`
	DisabledBy     string     `json:"disabled_by,omitempty"`
	DisabledReason string     `json:"disabled_reason,omitempty"`
	DisabledGames  []string   `json:"disabled_games"`
}

// GetStatus returns the current gaming system status
// GLI-19 §2.4 - System status must be available
func (s *Service) GetStatus() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]string, 0, len(s.disabledGames))
	for id := range s.disabledGames {
		games = append(games, id)
	}
	return &Status{
		GamingEnabled:  s.gamingEnabled,
		DisabledAt:     s.disabledAt,
		DisabledBy:     s.disabledBy,
		DisabledReason: s.disabledReason,
		DisabledGames:  games,
	}
}

// CheckAccess verifies a game is currently playable. The dispatcher calls
// this before every action.
// GLI-19 §2.4 - Combined check for gaming access
func (s *Service) CheckAccess(gameID string) error {
	if !s.IsGamingEnabled() {
		return ErrGamingDisabled
	}
	if !s.IsGameEnabled(gameID) {
		return ErrGameDisabled
	}
	return nil
}

// LoadState loads persisted switch state from Redis on startup.
func (s *Service) LoadState(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.rdb.Get(ctx, keyGamingEnabled).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	s.gamingEnabled = value != "false"

	games, err := s.rdb.SMembers(ctx, keyDisabledGames).Result()
	if err != nil {
		return err
	}
	s.disabledGames = make(map[string]bool, len(games))
	for _, id := range games {
		s.disabledGames[id] = true
	}

	return nil
}
