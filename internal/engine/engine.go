// Package engine provides game execution: per-variant engines dispatch
// player actions against an immutable game definition and a lease-guarded
// state store.
// Compliant with GLI-19 Chapter 4: Game Requirements
package engine

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/audit"
	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/rng"
	"github.com/luckyreel/rgs/internal/state"
)

var (
	ErrUnknownAction  = errors.New("unknown action type")
	ErrBadPayload     = errors.New("malformed action payload")
	ErrBadBetIndex    = errors.New("bet index out of range")
	ErrUnsupported    = errors.New("definition not supported by engine variant")
	ErrNoFreeSpinConf = errors.New("variant requires free spin configuration")
	ErrNoScatterConf  = errors.New("variant requires scatter configuration")
)

// Engine executes actions for one family of game definitions. Engines are
// stateless between calls: everything mutable lives in the state store,
// everything fixed in the definition.
type Engine interface {
	// ValidateConfig rejects definitions the variant cannot run. Called
	// once at registration; a failing definition is never made playable.
	ValidateConfig(def *domain.GameDefinition) error

	// HandleAction executes one atomic action. The returned Response is
	// the complete client-visible outcome; a non-nil error means the
	// action could not be attempted at all.
	HandleAction(ctx context.Context, def *domain.GameDefinition, act *domain.Action) (*domain.Response, error)

	// InitData returns the client bootstrap view for a (user, game) pair.
	InitData(ctx context.Context, def *domain.GameDefinition, userID string) (*domain.InitData, error)
}

// WagerGuard vets a stake before the bet is deducted and records the
// spin outcome into the responsible-gaming windows. Satisfied by
// limits.Service; nil disables enforcement.
type WagerGuard interface {
	CheckWager(ctx context.Context, userID string, stake int64) error
	RecordSpin(ctx context.Context, userID string, stake, win int64) error
}

// Deps carries the shared services every engine variant runs on.
type Deps struct {
	RNG   *rng.Service
	Store *state.Store
	Audit *audit.Service
	Guard WagerGuard
	Log   *logrus.Logger
}

// Wins at or above this amount raise a significant-event audit record.
// GLI-19 §2.8.8
const largeWinThreshold = 50000
