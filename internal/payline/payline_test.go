package payline

import (
	"reflect"
	"testing"

	"github.com/luckyreel/rgs/internal/domain"
)

const wildID = 9

func lineDefinition() *domain.GameDefinition {
	return &domain.GameDefinition{
		ID: "t", Columns: 5, Rows: 3,
		Paylines: [][]int{
			{0, 0, 0, 0, 0},
			{1, 1, 1, 1, 1},
		},
		Denominations: []int64{10},
		MinMatch:      3,
		Symbols: []domain.Symbol{
			{ID: wildID, Name: "wild", IsWild: true},
			{ID: 3, Name: "cherry", WildSubstitutable: true, Multipliers: []int64{50, 30, 10}},
			{ID: 5, Name: "bell", WildSubstitutable: true, Multipliers: []int64{100, 40, 15}},
			{ID: 7, Name: "scatter", IsScatter: true},
			{ID: 2, Name: "blank"},
		},
	}
}

// grid builds a 3x5 grid where row 0 is the given values and the other rows
// are filled with the blank symbol.
func gridWithRow0(values [5]int) [][]int {
	g := [][]int{
		{values[0], values[1], values[2], values[3], values[4]},
		{2, 2, 2, 2, 2},
		{2, 2, 2, 2, 2},
	}
	return g
}

func TestThreeOfAKind(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{3, 3, 3, 7, 2})

	win, ok := EvaluateLine(def, grid, 0, 100)
	if !ok {
		t.Fatal("expected a win")
	}
	if win.Count != 3 {
		t.Errorf("Count = %d, want 3", win.Count)
	}
	// multiplier index (5-3)=2 -> 10, win = 10 x betPerLine
	if win.Win != 1000 {
		t.Errorf("Win = %d, want 1000", win.Win)
	}
	if win.SymbolID != 3 {
		t.Errorf("SymbolID = %d, want 3", win.SymbolID)
	}
}

func TestWildPrefixResolvesPaySymbol(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{wildID, wildID, 5, 5, 2})

	win, ok := EvaluateLine(def, grid, 0, 100)
	if !ok {
		t.Fatal("expected a win")
	}
	if win.SymbolID != 5 {
		t.Errorf("pay symbol = %d, want 5", win.SymbolID)
	}
	if win.Count != 4 {
		t.Errorf("run length = %d, want 4", win.Count)
	}
	// multiplier index (5-4)=1 -> 40
	if win.Win != 4000 {
		t.Errorf("Win = %d, want 4000", win.Win)
	}
}

func TestWildExtendsRun(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{3, wildID, 3, wildID, 3})

	win, ok := EvaluateLine(def, grid, 0, 10)
	if !ok {
		t.Fatal("expected a win")
	}
	if win.Count != 5 {
		t.Errorf("run length = %d, want 5", win.Count)
	}
	if win.Win != 500 {
		t.Errorf("Win = %d, want 500", win.Win)
	}
}

func TestAllWildLinePaysNothing(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{wildID, wildID, wildID, wildID, wildID})

	if _, ok := EvaluateLine(def, grid, 0, 10); ok {
		t.Error("all-wild line must not pay: no pay symbol is defined")
	}
}

func TestNonSubstitutableFirstSymbolPaysNothing(t *testing.T) {
	def := lineDefinition()
	// Scatter is not wildSubstitutable, so it cannot anchor a line win.
	grid := gridWithRow0([5]int{7, 7, 7, 7, 7})

	if _, ok := EvaluateLine(def, grid, 0, 10); ok {
		t.Error("non-substitutable symbol must not pay on a line")
	}
}

func TestWildPrefixOntoNonSubstitutablePaysNothing(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{wildID, 7, 7, 7, 7})

	if _, ok := EvaluateLine(def, grid, 0, 10); ok {
		t.Error("wild prefix cannot substitute for a non-substitutable symbol")
	}
}

func TestBelowMinMatchPaysNothing(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{3, 3, 5, 5, 2})

	if _, ok := EvaluateLine(def, grid, 0, 10); ok {
		t.Error("run of 2 must not pay with minMatch 3")
	}
}

func TestEvaluateIsPure(t *testing.T) {
	def := lineDefinition()
	grid := gridWithRow0([5]int{3, 3, 3, 7, 2})

	first, okFirst := EvaluateLine(def, grid, 0, 100)
	second, okSecond := EvaluateLine(def, grid, 0, 100)
	if okFirst != okSecond || !reflect.DeepEqual(first, second) {
		t.Errorf("evaluation not deterministic: %+v vs %+v", first, second)
	}
}

func TestEvaluateSumsAcrossLines(t *testing.T) {
	def := lineDefinition()
	grid := [][]int{
		{3, 3, 3, 7, 2}, // line 0: 10x
		{5, 5, 5, 2, 2}, // line 1: 15x
		{2, 2, 2, 2, 2},
	}

	wins, total := Evaluate(def, grid, 100)
	if len(wins) != 2 {
		t.Fatalf("wins = %d, want 2", len(wins))
	}
	if total != 1000+1500 {
		t.Errorf("total = %d, want 2500", total)
	}
}

func TestPositions(t *testing.T) {
	grid := [][]int{
		{7, 2, 2},
		{2, 7, 2},
	}
	got := Positions(grid, 7)
	want := [][2]int{{0, 0}, {1, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Positions = %v, want %v", got, want)
	}
	if Count(grid, 7) != 2 {
		t.Errorf("Count = %d, want 2", Count(grid, 7))
	}
}

func TestPresentInColumns(t *testing.T) {
	grid := [][]int{
		{2, 7, 2, 2, 2},
		{2, 2, 7, 2, 2},
		{2, 2, 2, 7, 2},
	}

	if !PresentInColumns(grid, 7, []int{1, 2, 3}) {
		t.Error("symbol present in all inner columns, want true")
	}
	if PresentInColumns(grid, 7, []int{0, 1, 2}) {
		t.Error("symbol absent from column 0, want false")
	}
	if PresentInColumns(grid, 7, nil) {
		t.Error("empty column set must not match")
	}
}
