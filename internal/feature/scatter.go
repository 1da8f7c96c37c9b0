// Package feature - scatter accumulation and the bonus sub-mode
package feature

import (
	"errors"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/rng"
)

var ErrScatterDisabled = errors.New("scatter feature not enabled")

// AccumulateScatters records a weighted-random value for every scatter
// landing on a coordinate not already recorded. Coordinates deduplicate
// re-counts within a spin and across bonus sub-spins. Returns how many new
// entries were added.
func AccumulateScatters(def *domain.GameDefinition, f *domain.FeatureState, grid [][]int, r *rng.Service) (int, error) {
	if !def.Scatter.Enabled {
		return 0, nil
	}
	scatterID, ok := def.ScatterID()
	if !ok {
		return 0, nil
	}

	weights := make([]int, len(def.Scatter.Values))
	for i, wv := range def.Scatter.Values {
		weights[i] = wv.Weight
	}

	added := 0
	for row := range grid {
		for col, id := range grid[row] {
			if id != scatterID || f.ScatterAt(row, col) {
				continue
			}
			idx, err := r.SelectWeightedInts(weights)
			if err != nil {
				return added, err
			}
			f.ScatterValues = append(f.ScatterValues, domain.ScatterValue{
				Index: [2]int{row, col},
				Value: def.Scatter.Values[idx].Value,
			})
			added++
		}
	}
	return added, nil
}

// BonusActive reports whether the bonus sub-mode is running.
func BonusActive(f *domain.FeatureState) bool {
	return f.BonusSpins > 0
}

// ShouldTriggerBonus reports whether the accumulated scatter count reached
// the configured threshold outside an active bonus.
func ShouldTriggerBonus(def *domain.GameDefinition, f *domain.FeatureState) bool {
	if !def.Scatter.Enabled || BonusActive(f) {
		return false
	}
	return def.Scatter.TriggerCount > 0 && len(f.ScatterValues) >= def.Scatter.TriggerCount
}

// StartBonus grants the bounded bonus spin allowance.
func StartBonus(def *domain.GameDefinition, f *domain.FeatureState) {
	f.BonusSpins = def.Scatter.BonusSpins
}

// ConsumeBonusSpin spends one bonus spin and reports whether the allowance
// is now exhausted.
func ConsumeBonusSpin(f *domain.FeatureState) bool {
	if f.BonusSpins <= 0 {
		return true
	}
	f.BonusSpins--
	return f.BonusSpins == 0
}

// SettleBonus sums and clears the accumulated value list; the caller
// credits the returned total to the player.
func SettleBonus(f *domain.FeatureState) int64 {
	total := f.ScatterTotal()
	f.ScatterValues = nil
	return total
}
