package engine

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/domain"
)

// Factory builds one engine variant over the shared services.
type Factory func(Deps) Engine

// Registry resolves definitions to validated engine instances. Instances
// are cached per definition key; replacing a definition invalidates its
// entry so the next resolve re-validates against the new configuration.
type Registry struct {
	deps          Deps
	defaultPrefix string

	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Engine
}

// NewRegistry builds a registry with the standard variant set. Unknown
// type prefixes fall back to the lines variant.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:          deps,
		defaultPrefix: TypeLines,
		factories: map[string]Factory{
			TypeLines:      NewLinesEngine,
			TypeMultiplier: NewMultiplierEngine,
			TypeScatter:    NewScatterEngine,
		},
		instances: make(map[string]Engine),
	}
}

// RegisterVariant adds or replaces a variant factory.
func (r *Registry) RegisterVariant(prefix string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[prefix] = f
}

// Resolve returns the engine instance for a definition, building and
// validating it on first use.
func (r *Registry) Resolve(def *domain.GameDefinition) (Engine, error) {
	key := def.Key()

	r.mu.RLock()
	eng, ok := r.instances[key]
	r.mu.RUnlock()
	if ok {
		return eng, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if eng, ok := r.instances[key]; ok {
		return eng, nil
	}

	factory, ok := r.factories[def.TypePrefix]
	if !ok {
		r.deps.Log.WithFields(logrus.Fields{
			"game_id":     def.ID,
			"type_prefix": def.TypePrefix,
			"fallback":    r.defaultPrefix,
		}).Warn("unknown engine type prefix, using default variant")
		factory = r.factories[r.defaultPrefix]
	}

	eng = factory(r.deps)
	if err := eng.ValidateConfig(def); err != nil {
		return nil, fmt.Errorf("definition %s: %w", key, err)
	}
	r.instances[key] = eng
	return eng, nil
}

// Invalidate drops the cached instance for a definition key. Called when
// a reconfiguration replaces the definition.
func (r *Registry) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, key)
}

// Reset drops every cached instance, forcing re-validation on next use.
// Called after a full catalog reload.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]Engine)
}
