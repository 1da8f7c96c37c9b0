// Package domain - per-player game state
package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScatterValue is one accumulated scatter hit: the grid coordinate it landed
// on and the weighted value drawn for it. Coordinates deduplicate re-counts
// within a spin and across bonus sub-spins.
type ScatterValue struct {
	Index [2]int `json:"index"` // [row, col]
	Value int64  `json:"value"`
}

// GambleState holds an in-progress gamble sequence.
type GambleState struct {
	Stake  int64 `json:"stake"`
	Rounds int   `json:"rounds"`
}

// FeatureState models the variant-specific feature fields explicitly. The
// generic map exists only at the serialization boundary so stored records
// from older configurations keep round-tripping.
type FeatureState struct {
	FreeSpins        int            `json:"freeSpins,omitempty"`
	FreeSpinSelected bool           `json:"freeSpinSelected,omitempty"`
	FreeSpinOption   int            `json:"freeSpinOption,omitempty"`
	PendingOptions   bool           `json:"pendingOptions,omitempty"`
	Multipliers      map[string]int `json:"multipliers,omitempty"` // symbol id -> counter
	ScatterValues    []ScatterValue `json:"scatterValues,omitempty"`
	BonusSpins       int            `json:"bonusSpins,omitempty"`
	Gamble           *GambleState   `json:"gamble,omitempty"`

	// Extra carries fields a variant stored that this build does not model.
	// They survive load/store untouched.
	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON merges the typed fields with any carried-over extras.
func (f FeatureState) MarshalJSON() ([]byte, error) {
	type alias FeatureState
	base, err := json.Marshal(alias(f))
	if err != nil {
		return nil, err
	}
	if len(f.Extra) == 0 {
		return base, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range f.Extra {
		if _, known := m[k]; !known {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON fills the typed fields and keeps unknown keys in Extra.
func (f *FeatureState) UnmarshalJSON(data []byte) error {
	type alias FeatureState
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("feature state: %w", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("feature state: %w", err)
	}
	known := map[string]bool{
		"freeSpins": true, "freeSpinSelected": true, "freeSpinOption": true,
		"pendingOptions": true, "multipliers": true, "scatterValues": true,
		"bonusSpins": true, "gamble": true,
	}
	for k := range m {
		if known[k] {
			delete(m, k)
		}
	}
	*f = FeatureState(a)
	if len(m) > 0 {
		f.Extra = m
	}
	return nil
}

// ScatterAt reports whether a scatter value is already recorded for the
// given coordinate.
func (f *FeatureState) ScatterAt(row, col int) bool {
	for _, sv := range f.ScatterValues {
		if sv.Index[0] == row && sv.Index[1] == col {
			return true
		}
	}
	return false
}

// ScatterTotal sums the accumulated scatter values.
func (f *FeatureState) ScatterTotal() int64 {
	var total int64
	for _, sv := range f.ScatterValues {
		total += sv.Value
	}
	return total
}

// PlayerGameState is the single mutable shared record of the core: one per
// (user, game) pair, created lazily on first action and mutated only under
// its lease.
type PlayerGameState struct {
	UserID  string `json:"userId"`
	GameID  string `json:"gameId"`
	Balance int64  `json:"balance"`
	Bet     int64  `json:"bet"`
	// Pending holds uncollected winnings eligible for gamble.
	Pending int64 `json:"pending"`

	Features FeatureState `json:"features"`

	SessionStart time.Time `json:"sessionStart"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewPlayerGameState returns the default state for a pair, seeded with the
// durable account balance.
func NewPlayerGameState(userID, gameID string, balance int64) *PlayerGameState {
	now := time.Now().UTC()
	return &PlayerGameState{
		UserID:       userID,
		GameID:       gameID,
		Balance:      balance,
		SessionStart: now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy; mutation paths work on a copy so a failed
// operation never leaks partial changes into a cached record.
func (s *PlayerGameState) Clone() *PlayerGameState {
	cp := *s
	if s.Features.Multipliers != nil {
		cp.Features.Multipliers = make(map[string]int, len(s.Features.Multipliers))
		for k, v := range s.Features.Multipliers {
			cp.Features.Multipliers[k] = v
		}
	}
	if s.Features.ScatterValues != nil {
		cp.Features.ScatterValues = append([]ScatterValue(nil), s.Features.ScatterValues...)
	}
	if s.Features.Gamble != nil {
		g := *s.Features.Gamble
		cp.Features.Gamble = &g
	}
	if s.Features.Extra != nil {
		cp.Features.Extra = make(map[string]json.RawMessage, len(s.Features.Extra))
		for k, v := range s.Features.Extra {
			cp.Features.Extra[k] = v
		}
	}
	return &cp
}
