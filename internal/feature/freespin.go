// Package feature implements the per-variant feature state machines layered
// on spin evaluation: free spins, incremental multipliers, scatter/bonus
// accumulation, and the gamble draw. All transitions mutate a FeatureState
// that the caller persists under the pair's lease.
package feature

import (
	"errors"

	"github.com/luckyreel/rgs/internal/domain"
)

var (
	ErrFreeSpinDisabled = errors.New("free spin feature not enabled")
	ErrBadOption        = errors.New("free spin option index out of range")
	ErrNoPendingOptions = errors.New("no free spin selection pending")
)

// FreeSpinTriggered reports whether the grid satisfies the trigger
// condition: the designated trigger symbol present in every required
// column, in any row.
func FreeSpinTriggered(def *domain.GameDefinition, grid [][]int) bool {
	if !def.FreeSpin.Enabled {
		return false
	}
	triggerID, ok := def.FreeSpinTriggerID()
	if !ok {
		return false
	}
	for _, col := range def.TriggerColumns() {
		found := false
		for _, row := range grid {
			if col < len(row) && row[col] == triggerID {
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

// FreeSpinActive reports whether a free-spin sequence is running.
func FreeSpinActive(f *domain.FeatureState) bool {
	return f.FreeSpins > 0
}

// ApplyFreeSpinTrigger advances the trigger transition. Outside an active
// sequence it parks the state awaiting an option selection; during one it
// retriggers by adding the configured increment instead of resetting.
// Returns true on retrigger.
func ApplyFreeSpinTrigger(def *domain.GameDefinition, f *domain.FeatureState) bool {
	if FreeSpinActive(f) {
		f.FreeSpins += def.FreeSpin.RetriggerAdd
		return true
	}
	f.PendingOptions = true
	return false
}

// SelectFreeSpinOption resolves a pending trigger: the selected option's
// spin count replaces (never adds to) the zero prior count.
func SelectFreeSpinOption(def *domain.GameDefinition, f *domain.FeatureState, optionIndex int) error {
	if !def.FreeSpin.Enabled {
		return ErrFreeSpinDisabled
	}
	if !f.PendingOptions {
		return ErrNoPendingOptions
	}
	if optionIndex < 0 || optionIndex >= len(def.FreeSpin.Options) {
		return ErrBadOption
	}
	f.FreeSpins = def.FreeSpin.Options[optionIndex].Spins
	f.FreeSpinOption = optionIndex
	f.FreeSpinSelected = true
	f.PendingOptions = false
	return nil
}

// ConsumeFreeSpin decrements the counter by one. The caller applies any
// retrigger addition for the same spin before consuming. Depletion ends the
// sequence and resets the incremental multiplier counters.
func ConsumeFreeSpin(f *domain.FeatureState) {
	if f.FreeSpins <= 0 {
		return
	}
	f.FreeSpins--
	if f.FreeSpins == 0 {
		endFreeSpinSequence(f)
	}
}

// endFreeSpinSequence returns the state to BASE. A new base trigger starts
// fresh counters.
func endFreeSpinSequence(f *domain.FeatureState) {
	f.FreeSpinSelected = false
	f.FreeSpinOption = 0
	f.Multipliers = nil
}

// FreeSpinWinMultiplier returns the selected option's win multiplier, or 1
// outside a sequence.
func FreeSpinWinMultiplier(def *domain.GameDefinition, f *domain.FeatureState) int {
	if !f.FreeSpinSelected {
		return 1
	}
	if f.FreeSpinOption < 0 || f.FreeSpinOption >= len(def.FreeSpin.Options) {
		return 1
	}
	m := def.FreeSpin.Options[f.FreeSpinOption].Multiplier
	if m < 1 {
		return 1
	}
	return m
}
