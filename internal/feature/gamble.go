// Package feature - double-or-nothing gamble
package feature

import (
	"errors"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/rng"
)

var (
	ErrGambleDisabled  = errors.New("gamble feature not enabled")
	ErrNoWinnings      = errors.New("no uncollected winnings to gamble")
	ErrGambleNotActive = errors.New("no gamble in progress")
	ErrBadCardColor    = errors.New("card color must be red or black")
)

// InitGamble locks the player's pending winnings in as the gambling stake.
// Available only immediately after a win with uncollected winnings.
func InitGamble(def *domain.GameDefinition, st *domain.PlayerGameState) error {
	if !def.Gamble.Enabled {
		return ErrGambleDisabled
	}
	if st.Features.Gamble != nil {
		return nil // already initialized; stake is unchanged
	}
	if st.Pending <= 0 {
		return ErrNoWinnings
	}
	// The stake leaves the balance while it is at risk.
	st.Balance -= st.Pending
	st.Features.Gamble = &domain.GambleState{Stake: st.Pending}
	st.Pending = 0
	return nil
}

// DrawGamble flips the binary outcome: a matching call doubles the stake
// and may be gambled again; a mismatch zeroes it and ends the sequence.
func DrawGamble(st *domain.PlayerGameState, call string, r *rng.Service) (won bool, card string, err error) {
	g := st.Features.Gamble
	if g == nil || g.Stake <= 0 {
		return false, "", ErrGambleNotActive
	}
	if call != domain.CardRed && call != domain.CardBlack {
		return false, "", ErrBadCardColor
	}

	n, err := r.Intn(2)
	if err != nil {
		return false, "", err
	}
	card = domain.CardRed
	if n == 1 {
		card = domain.CardBlack
	}

	if card == call {
		g.Stake *= 2
		g.Rounds++
		return true, card, nil
	}

	st.Features.Gamble = nil
	return false, card, nil
}

// CollectGamble credits the current stake back to the balance and exits the
// gamble state. Returns the collected amount.
func CollectGamble(st *domain.PlayerGameState) (int64, error) {
	g := st.Features.Gamble
	if g == nil {
		return 0, ErrGambleNotActive
	}
	st.Balance += g.Stake
	collected := g.Stake
	st.Features.Gamble = nil
	return collected, nil
}
