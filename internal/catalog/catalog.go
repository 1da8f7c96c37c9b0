// Package catalog - Game definition catalog
// Definitions are declarative YAML documents loaded at startup and on
// operator-driven reconfiguration. GLI-19 §4.4: Game Information.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/luckyreel/rgs/internal/domain"
)

var ErrUnknownGame = errors.New("game not in catalog")

// Catalog holds the playable game definitions, keyed by registry key
// (typePrefix/tag) and by game ID. Lookups are concurrent with reloads;
// a reload swaps the whole map so callers never observe a partial set.
type Catalog struct {
	mu     sync.RWMutex
	byKey  map[string]*domain.GameDefinition
	byID   map[string]*domain.GameDefinition
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Catalog {
	return &Catalog{
		byKey:  make(map[string]*domain.GameDefinition),
		byID:   make(map[string]*domain.GameDefinition),
		logger: logger,
	}
}

// LoadDir parses and validates every .yaml/.yml file in dir and replaces
// the current catalog with the result. A single invalid definition fails
// the whole load; the previous catalog stays active.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read catalog dir: %w", err)
	}

	byKey := make(map[string]*domain.GameDefinition)
	byID := make(map[string]*domain.GameDefinition)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("definition %s: %w", entry.Name(), err)
		}
		if _, dup := byKey[def.Key()]; dup {
			return fmt.Errorf("definition %s: duplicate key %s", entry.Name(), def.Key())
		}
		if _, dup := byID[def.ID]; dup {
			return fmt.Errorf("definition %s: duplicate id %s", entry.Name(), def.ID)
		}
		byKey[def.Key()] = def
		byID[def.ID] = def
	}

	if len(byKey) == 0 {
		return fmt.Errorf("no game definitions found in %s", dir)
	}

	c.mu.Lock()
	c.byKey = byKey
	c.byID = byID
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"dir":   dir,
		"games": len(byKey),
	}).Info("Game catalog loaded")
	return nil
}

// LoadFile parses and validates a single YAML definition file.
func LoadFile(path string) (*domain.GameDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses and validates a definition document.
func Parse(data []byte) (*domain.GameDefinition, error) {
	var def domain.GameDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if def.ID == "" {
		return nil, errors.New("definition missing id")
	}
	if def.Tag == "" {
		def.Tag = def.ID
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Reconfigure replaces a single game's definition with a pushed document.
// The game must already be in the catalog and the document must carry the
// same id; an invalid document leaves the current definition active. The
// entry is replaced, never mutated, so engines holding the old pointer
// keep a consistent view until they are invalidated.
func (c *Catalog) Reconfigure(gameID string, content []byte) (*domain.GameDefinition, error) {
	def, err := Parse(content)
	if err != nil {
		return nil, err
	}
	if def.ID != gameID {
		return nil, fmt.Errorf("definition id %q does not match game %q", def.ID, gameID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	old, ok := c.byID[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	delete(c.byKey, old.Key())
	c.byKey[def.Key()] = def
	c.byID[def.ID] = def

	c.logger.WithFields(logrus.Fields{
		"game": gameID,
		"key":  def.Key(),
	}).Info("Game definition reconfigured")
	return def, nil
}

// Get returns the definition for a registry key (typePrefix/tag).
func (c *Catalog) Get(key string) (*domain.GameDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, key)
	}
	return def, nil
}

// ByID returns the definition for a game ID.
func (c *Catalog) ByID(id string) (*domain.GameDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGame, id)
	}
	return def, nil
}

// List returns all definitions ordered by ID.
func (c *Catalog) List() []*domain.GameDefinition {
	c.mu.RLock()
	defs := make([]*domain.GameDefinition, 0, len(c.byID))
	for _, def := range c.byID {
		defs = append(defs, def)
	}
	c.mu.RUnlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Register inserts a definition directly. Used by tests and by embedded
// deployments without a definition directory.
func (c *Catalog) Register(def *domain.GameDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey[def.Key()] = def
	c.byID[def.ID] = def
	return nil
}
