package reel

import (
	"math"
	"testing"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/rng"
)

func weightedDefinition() *domain.GameDefinition {
	return &domain.GameDefinition{
		ID: "t", Columns: 1, Rows: 1,
		Paylines:      [][]int{{0}},
		Denominations: []int64{10},
		MinMatch:      1,
		Symbols: []domain.Symbol{
			{ID: 1, Name: "A", ColumnWeights: []int{8}},
			{ID: 2, Name: "B", ColumnWeights: []int{2}},
		},
	}
}

func TestGridShape(t *testing.T) {
	def := &domain.GameDefinition{
		ID: "t", Columns: 5, Rows: 3,
		Paylines:      [][]int{{0, 0, 0, 0, 0}},
		Denominations: []int64{10},
		MinMatch:      3,
		Symbols: []domain.Symbol{
			{ID: 1, ColumnWeights: []int{3, 3, 3, 3, 3}},
			{ID: 2, ColumnWeights: []int{3, 3, 3, 3, 3}},
		},
	}
	g := NewGenerator(rng.New())

	grid, err := g.Generate(def)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(grid) != 3 {
		t.Fatalf("rows = %d, want 3", len(grid))
	}
	for r, row := range grid {
		if len(row) != 5 {
			t.Fatalf("row %d columns = %d, want 5", r, len(row))
		}
		for _, id := range row {
			if id != 1 && id != 2 {
				t.Errorf("unexpected symbol id %d", id)
			}
		}
	}
}

// Column symbol frequency over many draws must approximate the configured
// weight distribution: A:8 B:2 should land near 80%.
func TestWeightDistribution(t *testing.T) {
	def := weightedDefinition()
	g := NewGenerator(rng.New())

	const draws = 10000
	counts := map[int]int{}
	for i := 0; i < draws; i++ {
		grid, err := g.Generate(def)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		counts[grid[0][0]]++
	}

	ratio := float64(counts[1]) / float64(draws)
	if math.Abs(ratio-0.8) > 0.025 {
		t.Errorf("symbol A frequency = %.3f, want ~0.80", ratio)
	}
}

func TestBonusModeRestrictsPool(t *testing.T) {
	def := &domain.GameDefinition{
		ID: "t", Columns: 3, Rows: 3,
		Paylines:      [][]int{{0, 0, 0}},
		Denominations: []int64{10},
		MinMatch:      3,
		Symbols: []domain.Symbol{
			{ID: 1, ColumnWeights: []int{5, 5, 5}},
			{ID: 2, ColumnWeights: []int{5, 5, 5}, UsableInBonus: true},
		},
		Scatter: domain.ScatterConfig{Enabled: true, BonusRows: 4},
	}
	g := NewGenerator(rng.New())

	grid, err := g.GenerateBonus(def)
	if err != nil {
		t.Fatalf("GenerateBonus: %v", err)
	}
	if len(grid) != 4 {
		t.Fatalf("bonus rows = %d, want 4", len(grid))
	}
	for _, row := range grid {
		for _, id := range row {
			if id != 2 {
				t.Errorf("bonus grid contains excluded symbol %d", id)
			}
		}
	}
}

func TestEmptyStripFails(t *testing.T) {
	def := &domain.GameDefinition{
		ID: "t", Columns: 1, Rows: 3,
		Symbols: []domain.Symbol{{ID: 1, ColumnWeights: []int{0}}},
	}
	g := NewGenerator(rng.New())

	if _, err := g.Generate(def); err == nil {
		t.Fatal("expected error for empty strip")
	}
}

// Strips shorter than the visible window wrap around instead of failing.
func TestShortStripWrapsAround(t *testing.T) {
	def := &domain.GameDefinition{
		ID: "t", Columns: 1, Rows: 5,
		Symbols: []domain.Symbol{
			{ID: 1, ColumnWeights: []int{1}},
			{ID: 2, ColumnWeights: []int{1}},
		},
	}
	g := NewGenerator(rng.New())

	grid, err := g.Generate(def)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(grid) != 5 {
		t.Fatalf("rows = %d, want 5", len(grid))
	}
}
