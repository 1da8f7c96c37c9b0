package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/catalog"
	"github.com/luckyreel/rgs/internal/domain"
)

// AccessController gates dispatch on operational state: the global gaming
// switch and per-game disables.
type AccessController interface {
	CheckAccess(gameID string) error
}

// Dispatcher is the single entry point of the execution core: it resolves
// the action's game to a definition and a variant engine, applies the
// operational gate, and forwards.
type Dispatcher struct {
	catalog  *catalog.Catalog
	registry *Registry
	access   AccessController
	log      *logrus.Logger
}

// NewDispatcher wires the dispatcher. access may be nil when no
// operational control plane is deployed.
func NewDispatcher(cat *catalog.Catalog, reg *Registry, access AccessController, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		catalog:  cat,
		registry: reg,
		access:   access,
		log:      log,
	}
}

// Dispatch executes one player action end to end.
func (d *Dispatcher) Dispatch(ctx context.Context, act *domain.Action) (*domain.Response, error) {
	def, eng, err := d.resolve(act.GameID)
	if err != nil {
		return nil, err
	}

	resp, err := eng.HandleAction(ctx, def, act)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"user_id": act.UserID,
			"game_id": act.GameID,
			"action":  act.Type,
		}).Error("action failed")
		return nil, err
	}
	return resp, nil
}

// Init returns the client bootstrap view for a (user, game) pair.
func (d *Dispatcher) Init(ctx context.Context, userID, gameID string) (*domain.InitData, error) {
	def, eng, err := d.resolve(gameID)
	if err != nil {
		return nil, err
	}
	return eng.InitData(ctx, def, userID)
}

func (d *Dispatcher) resolve(gameID string) (*domain.GameDefinition, Engine, error) {
	def, err := d.catalog.ByID(gameID)
	if err != nil {
		return nil, nil, err
	}
	if d.access != nil {
		if err := d.access.CheckAccess(def.ID); err != nil {
			return nil, nil, err
		}
	}
	eng, err := d.registry.Resolve(def)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve engine: %w", err)
	}
	return def, eng, nil
}
