// Package payline scores visible grids against configured paylines with
// wild substitution and per-symbol multiplier tables.
// GLI-19 §4.4.1: Paytable information, §4.4.1.m: Wild/substitute symbols
package payline

import (
	"github.com/luckyreel/rgs/internal/domain"
)

// EvaluateLine scores one payline. It is a pure function of the grid, the
// line, and the symbol table: identical inputs always yield the identical
// result.
//
// The pay symbol is the first non-wild substitutable symbol on the line
// (scanning past any leading wilds). The run extends while entries match the
// pay symbol or the wild. A line made entirely of wilds has no pay symbol
// and pays nothing.
func EvaluateLine(def *domain.GameDefinition, grid [][]int, lineIdx int, betPerLine int64) (domain.LineWin, bool) {
	line := def.Paylines[lineIdx]
	values := make([]int, def.Columns)
	for col := 0; col < def.Columns; col++ {
		values[col] = grid[line[col]][col]
	}

	wildID, hasWild := def.WildID()

	var paySym *domain.Symbol
	run := 0

	if hasWild && values[0] == wildID {
		// Leading wilds: the pay symbol is the first substitutable symbol
		// after them, and it absorbs the wild prefix into its run.
		for col := 1; col < len(values); col++ {
			if values[col] == wildID {
				continue
			}
			sym := def.SymbolByID(values[col])
			if sym == nil || !sym.WildSubstitutable {
				return domain.LineWin{}, false
			}
			paySym = sym
			run = col + 1
			break
		}
		if paySym == nil {
			// All wilds: no defined pay symbol.
			return domain.LineWin{}, false
		}
	} else {
		sym := def.SymbolByID(values[0])
		if sym == nil || !sym.WildSubstitutable {
			return domain.LineWin{}, false
		}
		paySym = sym
		run = 1
	}

	for col := run; col < len(values); col++ {
		if values[col] == paySym.ID || (hasWild && values[col] == wildID) {
			run++
			continue
		}
		break
	}

	if run < def.MinMatch {
		return domain.LineWin{}, false
	}

	mult := paySym.MultiplierFor(def.Columns, run)
	if mult <= 0 {
		return domain.LineWin{}, false
	}

	return domain.LineWin{
		Line:     lineIdx,
		SymbolID: paySym.ID,
		Count:    run,
		Win:      mult * betPerLine,
	}, true
}

// Evaluate scores every configured payline and returns the paid lines plus
// the spin total.
func Evaluate(def *domain.GameDefinition, grid [][]int, betPerLine int64) ([]domain.LineWin, int64) {
	var wins []domain.LineWin
	var total int64
	for i := range def.Paylines {
		if win, ok := EvaluateLine(def, grid, i, betPerLine); ok {
			wins = append(wins, win)
			total += win.Win
		}
	}
	return wins, total
}

// Positions returns every grid coordinate holding the given symbol, in
// row-major order.
func Positions(grid [][]int, symbolID int) [][2]int {
	var out [][2]int
	for r, row := range grid {
		for c, id := range row {
			if id == symbolID {
				out = append(out, [2]int{r, c})
			}
		}
	}
	return out
}

// PresentInColumns reports whether the symbol appears in every one of the
// required columns, in any row.
func PresentInColumns(grid [][]int, symbolID int, columns []int) bool {
	if len(columns) == 0 {
		return false
	}
	for _, col := range columns {
		found := false
		for _, row := range grid {
			if col < len(row) && row[col] == symbolID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Count returns the number of cells holding the symbol.
func Count(grid [][]int, symbolID int) int {
	n := 0
	for _, row := range grid {
		for _, id := range row {
			if id == symbolID {
				n++
			}
		}
	}
	return n
}
