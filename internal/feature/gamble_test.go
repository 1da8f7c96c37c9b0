package feature

import (
	"testing"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/rng"
)

func TestInitGambleMovesPendingToStake(t *testing.T) {
	def := featureDefinition()
	st := domain.NewPlayerGameState("u1", def.ID, 1000)
	st.Balance = 1500 // win already credited
	st.Pending = 500

	if err := InitGamble(def, st); err != nil {
		t.Fatalf("init gamble: %v", err)
	}
	if st.Balance != 1000 {
		t.Fatalf("expected stake removed from balance, got %d", st.Balance)
	}
	if st.Pending != 0 {
		t.Fatalf("expected pending cleared, got %d", st.Pending)
	}
	if st.Features.Gamble == nil || st.Features.Gamble.Stake != 500 {
		t.Fatalf("expected stake 500, got %+v", st.Features.Gamble)
	}

	// re-init while active must not double-charge
	if err := InitGamble(def, st); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	if st.Balance != 1000 || st.Features.Gamble.Stake != 500 {
		t.Fatal("re-init changed an active gamble")
	}
}

func TestInitGambleRequiresWinnings(t *testing.T) {
	def := featureDefinition()
	st := domain.NewPlayerGameState("u1", def.ID, 1000)

	if err := InitGamble(def, st); err != ErrNoWinnings {
		t.Fatalf("expected ErrNoWinnings, got %v", err)
	}

	def.Gamble.Enabled = false
	st.Pending = 500
	if err := InitGamble(def, st); err != ErrGambleDisabled {
		t.Fatalf("expected ErrGambleDisabled, got %v", err)
	}
}

func TestDrawGambleDoublesOrZeroes(t *testing.T) {
	def := featureDefinition()
	r := rng.New()

	// the draw is random; either the stake doubles on a win
	// or the gamble is cleared on a loss
	for i := 0; i < 20; i++ {
		st := domain.NewPlayerGameState("u1", def.ID, 1500)
		st.Pending = 500
		if err := InitGamble(def, st); err != nil {
			t.Fatalf("init: %v", err)
		}

		won, card, err := DrawGamble(st, domain.CardRed, r)
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if card != domain.CardRed && card != domain.CardBlack {
			t.Fatalf("unexpected card %q", card)
		}
		if won {
			if st.Features.Gamble == nil || st.Features.Gamble.Stake != 1000 {
				t.Fatalf("winning draw must double the stake, got %+v", st.Features.Gamble)
			}
			if st.Features.Gamble.Rounds != 1 {
				t.Fatalf("expected round counter 1, got %d", st.Features.Gamble.Rounds)
			}
		} else {
			if st.Features.Gamble != nil {
				t.Fatalf("losing draw must clear the gamble state, got %+v", st.Features.Gamble)
			}
		}
		// balance untouched by the draw either way
		if st.Balance != 1000 {
			t.Fatalf("draw must not touch the balance, got %d", st.Balance)
		}
	}
}

func TestDrawGambleValidation(t *testing.T) {
	st := domain.NewPlayerGameState("u1", "g", 1000)
	r := rng.New()

	if _, _, err := DrawGamble(st, domain.CardRed, r); err != ErrGambleNotActive {
		t.Fatalf("expected ErrGambleNotActive, got %v", err)
	}

	st.Features.Gamble = &domain.GambleState{Stake: 500}
	if _, _, err := DrawGamble(st, "green", r); err != ErrBadCardColor {
		t.Fatalf("expected ErrBadCardColor, got %v", err)
	}
}

func TestCollectGamble(t *testing.T) {
	st := domain.NewPlayerGameState("u1", "g", 1000)
	st.Features.Gamble = &domain.GambleState{Stake: 2000, Rounds: 2}

	collected, err := CollectGamble(st)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if collected != 2000 {
		t.Fatalf("expected 2000 collected, got %d", collected)
	}
	if st.Balance != 3000 {
		t.Fatalf("expected balance 3000, got %d", st.Balance)
	}
	if st.Features.Gamble != nil {
		t.Fatal("collect must clear the gamble state")
	}

	if _, err := CollectGamble(st); err != ErrGambleNotActive {
		t.Fatalf("expected ErrGambleNotActive, got %v", err)
	}
}
