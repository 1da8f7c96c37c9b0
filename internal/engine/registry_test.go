package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/luckyreel/rgs/internal/catalog"
)

func TestRegistryCachesInstances(t *testing.T) {
	deps, _ := testDeps(t)
	reg := NewRegistry(deps)
	def := alwaysWinDefinition()

	first, err := reg.Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := reg.Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached instance on second resolve")
	}

	reg.Invalidate(def.Key())
	third, err := reg.Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if third == nil {
		t.Fatal("expected a rebuilt instance after invalidation")
	}
}

func TestRegistryFallsBackOnUnknownPrefix(t *testing.T) {
	deps, _ := testDeps(t)
	reg := NewRegistry(deps)

	def := alwaysWinDefinition()
	def.TypePrefix = "cascades"

	eng, err := reg.Resolve(def)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if eng == nil {
		t.Fatal("expected the default variant for an unknown prefix")
	}
}

func TestRegistryRejectsInvalidDefinition(t *testing.T) {
	deps, _ := testDeps(t)
	reg := NewRegistry(deps)

	def := allScatterDefinition()
	def.Scatter.Values = nil

	if _, err := reg.Resolve(def); err == nil {
		t.Fatal("expected validation failure for empty scatter value table")
	}
}

type deniedAccess struct{ err error }

func (d deniedAccess) CheckAccess(string) error { return d.err }

func TestDispatcher(t *testing.T) {
	deps, store := testDeps(t)
	cat := catalog.New(deps.Log)
	def := alwaysWinDefinition()
	if err := cat.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}

	d := NewDispatcher(cat, NewRegistry(deps), nil, deps.Log)
	ctx := context.Background()

	if _, err := store.Credit(ctx, "u1", def.ID, 1000); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	resp, err := d.Dispatch(ctx, spinAction(t, "u1", def.ID, 0))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !resp.Success {
		t.Fatalf("dispatch rejected: %q", resp.Error)
	}

	if _, err := d.Dispatch(ctx, spinAction(t, "u1", "no-such-game", 0)); !errors.Is(err, catalog.ErrUnknownGame) {
		t.Fatalf("expected ErrUnknownGame, got %v", err)
	}

	init, err := d.Init(ctx, "u1", def.ID)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if init.GameID != def.ID {
		t.Fatalf("unexpected init data: %+v", init)
	}
}

func TestDispatcherAccessGate(t *testing.T) {
	deps, _ := testDeps(t)
	cat := catalog.New(deps.Log)
	def := alwaysWinDefinition()
	if err := cat.Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}

	gateErr := errors.New("game disabled")
	d := NewDispatcher(cat, NewRegistry(deps), deniedAccess{err: gateErr}, deps.Log)

	if _, err := d.Dispatch(context.Background(), spinAction(t, "u1", def.ID, 0)); !errors.Is(err, gateErr) {
		t.Fatalf("expected access gate error, got %v", err)
	}
}
