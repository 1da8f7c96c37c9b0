// Package reel builds visible symbol grids from weighted per-column virtual
// reel strips. All randomness routes through the rng service.
// GLI-19 §4.5.2: Game Selection Process - outcomes determined by RNG
package reel

import (
	"errors"
	"fmt"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/rng"
)

var ErrEmptyStrip = errors.New("column strip has no symbols")

// Generator samples visible windows from per-column strips.
type Generator struct {
	rng *rng.Service
}

// NewGenerator creates a matrix generator backed by the given random source.
func NewGenerator(r *rng.Service) *Generator {
	return &Generator{rng: r}
}

// Generate builds a rows x columns grid of symbol ids for a base-mode spin.
func (g *Generator) Generate(def *domain.GameDefinition) ([][]int, error) {
	return g.generate(def, def.Rows, func(*domain.Symbol) bool { return true })
}

// GenerateBonus builds a grid restricted to symbols usable in bonus mode,
// with the bonus-specific row count when one is configured.
func (g *Generator) GenerateBonus(def *domain.GameDefinition) ([][]int, error) {
	rows := def.Rows
	if def.Scatter.BonusRows > 0 {
		rows = def.Scatter.BonusRows
	}
	return g.generate(def, rows, func(s *domain.Symbol) bool { return s.UsableInBonus })
}

func (g *Generator) generate(def *domain.GameDefinition, rows int, include func(*domain.Symbol) bool) ([][]int, error) {
	columns := make([][]int, def.Columns)
	for col := 0; col < def.Columns; col++ {
		visible, err := g.spinColumn(def, col, rows, include)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
		columns[col] = visible
	}

	// Transpose per-column windows into the row-major grid.
	grid := make([][]int, rows)
	for row := 0; row < rows; row++ {
		grid[row] = make([]int, def.Columns)
		for col := 0; col < def.Columns; col++ {
			grid[row][col] = columns[col][row]
		}
	}
	return grid, nil
}

// spinColumn builds the column's virtual strip, shuffles it, and samples a
// window of visible consecutive entries at a random offset.
func (g *Generator) spinColumn(def *domain.GameDefinition, col, visible int, include func(*domain.Symbol) bool) ([]int, error) {
	strip := buildStrip(def, col, include)
	if len(strip) == 0 {
		return nil, ErrEmptyStrip
	}

	if err := g.rng.Shuffle(strip); err != nil {
		return nil, err
	}

	// Offset stays within [0, len-visible) when the strip is long enough;
	// shorter strips wrap around.
	max := len(strip) - visible
	if max <= 0 {
		max = len(strip)
	}
	offset, err := g.rng.Intn(max)
	if err != nil {
		return nil, err
	}

	window := make([]int, visible)
	for i := 0; i < visible; i++ {
		window[i] = strip[(offset+i)%len(strip)]
	}
	return window, nil
}

// buildStrip repeats every included symbol id according to its configured
// weight for the column.
func buildStrip(def *domain.GameDefinition, col int, include func(*domain.Symbol) bool) []int {
	var strip []int
	for i := range def.Symbols {
		sym := &def.Symbols[i]
		if !include(sym) {
			continue
		}
		for n := 0; n < sym.WeightFor(col); n++ {
			strip = append(strip, sym.ID)
		}
	}
	return strip
}
