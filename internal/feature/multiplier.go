// Package feature - incremental free-spin multipliers
package feature

import (
	"strconv"

	"github.com/luckyreel/rgs/internal/domain"
)

// BumpMultiplierCounters increments the counter of every multiplier-carrier
// symbol appearing anywhere in the grid, up to the configured cap. Only
// meaningful during an active free-spin sequence; the engine gates the call.
func BumpMultiplierCounters(def *domain.GameDefinition, f *domain.FeatureState, grid [][]int) {
	cap := def.FreeSpin.MultiplierCap
	for i := range def.Symbols {
		sym := &def.Symbols[i]
		if !sym.IsFreeSpinMultiplier {
			continue
		}
		appearances := 0
		for _, row := range grid {
			for _, id := range row {
				if id == sym.ID {
					appearances++
				}
			}
		}
		if appearances == 0 {
			continue
		}
		if f.Multipliers == nil {
			f.Multipliers = make(map[string]int)
		}
		key := strconv.Itoa(sym.ID)
		next := f.Multipliers[key] + appearances
		if cap > 0 && next > cap {
			next = cap
		}
		f.Multipliers[key] = next
	}
}

// ScaleWinBySymbolMultiplier scales a line win by the pay symbol's current
// counter value when one is active.
func ScaleWinBySymbolMultiplier(f *domain.FeatureState, win domain.LineWin) int64 {
	if f.Multipliers == nil {
		return win.Win
	}
	counter := f.Multipliers[strconv.Itoa(win.SymbolID)]
	if counter <= 1 {
		return win.Win
	}
	return win.Win * int64(counter)
}
