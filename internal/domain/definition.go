// Package domain - Game definition model
// A GameDefinition is resolved from a catalog entry plus its active payout
// document. It is immutable per configuration version: activating a new
// configuration replaces the cached definition object, never mutates it.
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoGrid          = errors.New("definition has no grid dimensions")
	ErrNoSymbols       = errors.New("definition has empty symbol table")
	ErrNoPaylines      = errors.New("definition has empty payline table")
	ErrBadPayline      = errors.New("payline length does not match column count")
	ErrUnknownSymbol   = errors.New("payline references unknown symbol")
	ErrNoDenominations = errors.New("definition has empty bet denomination table")
)

// Symbol describes one entry of the symbol table.
//
// ColumnWeights holds how many instances of this symbol occupy each column's
// virtual reel strip. Multipliers is indexed by (columns - matchCount): the
// first entry pays a full-width run, the last the minimum match.
type Symbol struct {
	ID                int     `json:"id" yaml:"id"`
	Name              string  `json:"name" yaml:"name"`
	ColumnWeights     []int   `json:"columnWeights" yaml:"columnWeights"`
	WildSubstitutable bool    `json:"wildSubstitutable" yaml:"wildSubstitutable"`
	Multipliers       []int64 `json:"multipliers" yaml:"multipliers"`

	IsWild               bool `json:"isWild,omitempty" yaml:"isWild"`
	IsFreeSpinTrigger    bool `json:"isFreeSpinTrigger,omitempty" yaml:"isFreeSpinTrigger"`
	IsScatter            bool `json:"isScatter,omitempty" yaml:"isScatter"`
	IsFreeSpinMultiplier bool `json:"isFreeSpinMultiplier,omitempty" yaml:"isFreeSpinMultiplier"`
	UsableInBonus        bool `json:"usableInBonus,omitempty" yaml:"usableInBonus"`
}

// WeightFor returns the symbol's strip weight for a column, or 0 when the
// column has no entry.
func (s *Symbol) WeightFor(col int) int {
	if col < 0 || col >= len(s.ColumnWeights) {
		return 0
	}
	return s.ColumnWeights[col]
}

// MultiplierFor returns the paytable multiplier for a run of matchCount
// symbols on a grid of columns width; 0 when the run is not paid.
func (s *Symbol) MultiplierFor(columns, matchCount int) int64 {
	idx := columns - matchCount
	if idx < 0 || idx >= len(s.Multipliers) {
		return 0
	}
	return s.Multipliers[idx]
}

// FreeSpinOption is one selectable free-spin package: the player picks a
// spin count with an associated win multiplier after triggering.
type FreeSpinOption struct {
	Spins      int `json:"spins" yaml:"spins"`
	Multiplier int `json:"multiplier" yaml:"multiplier"`
}

// FreeSpinConfig configures the free-spin feature for a game.
type FreeSpinConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// TriggerColumns is the set of columns that must each show the trigger
	// symbol in any row. Empty means the inner columns (all but first/last).
	TriggerColumns []int            `json:"triggerColumns,omitempty" yaml:"triggerColumns"`
	Options        []FreeSpinOption `json:"options" yaml:"options"`
	RetriggerAdd   int              `json:"retriggerAdd" yaml:"retriggerAdd"`
	// MultiplierCap bounds each incremental per-symbol multiplier counter.
	MultiplierCap int `json:"multiplierCap,omitempty" yaml:"multiplierCap"`
}

// WeightedValue is one entry of the scatter value table.
type WeightedValue struct {
	Value  int64 `json:"value" yaml:"value"`
	Weight int   `json:"weight" yaml:"weight"`
}

// ScatterConfig configures scatter accumulation and the bonus sub-mode.
type ScatterConfig struct {
	Enabled      bool            `json:"enabled" yaml:"enabled"`
	TriggerCount int             `json:"triggerCount" yaml:"triggerCount"`
	Values       []WeightedValue `json:"values" yaml:"values"`
	BonusSpins   int             `json:"bonusSpins" yaml:"bonusSpins"`
	// BonusRows overrides the visible row count inside bonus mode; 0 keeps
	// the base grid height.
	BonusRows int `json:"bonusRows,omitempty" yaml:"bonusRows"`
}

// GambleConfig configures the double-or-nothing gamble feature.
type GambleConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// GameDefinition is the declarative description of one game configuration
// version. Engines treat it as read-only.
type GameDefinition struct {
	ID         string `json:"id" yaml:"id"`
	Tag        string `json:"tag" yaml:"tag"`
	TypePrefix string `json:"typePrefix" yaml:"typePrefix"`
	Name       string `json:"name" yaml:"name"`

	Columns int `json:"columns" yaml:"columns"`
	Rows    int `json:"rows" yaml:"rows"`

	// Paylines holds one row-index per column for each configured line.
	Paylines [][]int `json:"paylines" yaml:"paylines"`

	// Denominations is the bet table in cents; an action's betIndex selects
	// one entry. The resolved bet is denomination x payline count.
	Denominations []int64 `json:"denominations" yaml:"denominations"`

	MinMatch int      `json:"minMatch" yaml:"minMatch"`
	Symbols  []Symbol `json:"symbols" yaml:"symbols"`

	FreeSpin FreeSpinConfig `json:"freeSpin" yaml:"freeSpin"`
	Scatter  ScatterConfig  `json:"scatter" yaml:"scatter"`
	Gamble   GambleConfig   `json:"gamble" yaml:"gamble"`

	TheoreticalRTP float64 `json:"theoreticalRtp,omitempty" yaml:"theoreticalRtp"`
}

// Key returns the registry key for this definition.
func (d *GameDefinition) Key() string {
	return d.TypePrefix + "/" + d.Tag
}

// SymbolByID returns the symbol table entry for id, or nil.
func (d *GameDefinition) SymbolByID(id int) *Symbol {
	for i := range d.Symbols {
		if d.Symbols[i].ID == id {
			return &d.Symbols[i]
		}
	}
	return nil
}

// WildID returns the id of the wild symbol and whether one is configured.
func (d *GameDefinition) WildID() (int, bool) {
	for i := range d.Symbols {
		if d.Symbols[i].IsWild {
			return d.Symbols[i].ID, true
		}
	}
	return 0, false
}

// FreeSpinTriggerID returns the id of the free-spin trigger symbol.
func (d *GameDefinition) FreeSpinTriggerID() (int, bool) {
	for i := range d.Symbols {
		if d.Symbols[i].IsFreeSpinTrigger {
			return d.Symbols[i].ID, true
		}
	}
	return 0, false
}

// ScatterID returns the id of the scatter symbol.
func (d *GameDefinition) ScatterID() (int, bool) {
	for i := range d.Symbols {
		if d.Symbols[i].IsScatter {
			return d.Symbols[i].ID, true
		}
	}
	return 0, false
}

// TriggerColumns resolves the free-spin trigger column set: the configured
// set when present, otherwise the inner columns.
func (d *GameDefinition) TriggerColumns() []int {
	if len(d.FreeSpin.TriggerColumns) > 0 {
		return d.FreeSpin.TriggerColumns
	}
	cols := make([]int, 0, d.Columns)
	for c := 1; c < d.Columns-1; c++ {
		cols = append(cols, c)
	}
	return cols
}

// MinBet returns the smallest resolvable total bet.
func (d *GameDefinition) MinBet() int64 {
	if len(d.Denominations) == 0 {
		return 0
	}
	min := d.Denominations[0]
	for _, dn := range d.Denominations[1:] {
		if dn < min {
			min = dn
		}
	}
	return min * int64(len(d.Paylines))
}

// Validate fails fast on structurally invalid definitions. It is called at
// engine construction; a definition that does not pass is never made playable.
func (d *GameDefinition) Validate() error {
	if d.Columns <= 0 || d.Rows <= 0 {
		return ErrNoGrid
	}
	if len(d.Symbols) == 0 {
		return ErrNoSymbols
	}
	if len(d.Paylines) == 0 {
		return ErrNoPaylines
	}
	if len(d.Denominations) == 0 {
		return ErrNoDenominations
	}
	for i, line := range d.Paylines {
		if len(line) != d.Columns {
			return fmt.Errorf("payline %d: %w", i, ErrBadPayline)
		}
		for col, row := range line {
			if row < 0 || row >= d.Rows {
				return fmt.Errorf("payline %d column %d: row %d out of range", i, col, row)
			}
		}
	}
	if d.MinMatch <= 0 {
		return fmt.Errorf("minMatch must be positive, got %d", d.MinMatch)
	}
	seen := make(map[int]bool, len(d.Symbols))
	for i := range d.Symbols {
		if seen[d.Symbols[i].ID] {
			return fmt.Errorf("duplicate symbol id %d", d.Symbols[i].ID)
		}
		seen[d.Symbols[i].ID] = true
	}
	return nil
}
