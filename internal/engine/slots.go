// Package engine - shared slot execution flow
// GLI-19 §4.5: Game Selection Process, §4.6: Game Fairness
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/luckyreel/rgs/internal/audit"
	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/feature"
	"github.com/luckyreel/rgs/internal/payline"
	"github.com/luckyreel/rgs/internal/reel"
	"github.com/luckyreel/rgs/internal/rng"
	"github.com/luckyreel/rgs/internal/state"
)

// errRejected aborts the lease-guarded transaction with no mutation while
// still returning a structured failure response to the client.
var errRejected = errors.New("action rejected")

// slotEngine runs the shared payline slot flow. Variant constructors toggle
// the incremental-multiplier and scatter-bonus extensions.
type slotEngine struct {
	rng   *rng.Service
	reels *reel.Generator
	store *state.Store
	audit *audit.Service
	guard WagerGuard
	log   *logrus.Logger

	incrementalMultipliers bool
	scatterBonus           bool
}

func (e *slotEngine) ValidateConfig(def *domain.GameDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if def.FreeSpin.Enabled {
		if len(def.FreeSpin.Options) == 0 {
			return fmt.Errorf("%w: no free spin options", ErrNoFreeSpinConf)
		}
		if _, ok := def.FreeSpinTriggerID(); !ok {
			return fmt.Errorf("%w: no trigger symbol", ErrNoFreeSpinConf)
		}
	}
	if e.incrementalMultipliers {
		if !def.FreeSpin.Enabled {
			return fmt.Errorf("%w: multiplier variant needs free spins", ErrNoFreeSpinConf)
		}
		found := false
		for i := range def.Symbols {
			if def.Symbols[i].IsFreeSpinMultiplier {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: no multiplier-carrier symbol", ErrUnsupported)
		}
	}
	if e.scatterBonus {
		if !def.Scatter.Enabled {
			return ErrNoScatterConf
		}
		if _, ok := def.ScatterID(); !ok {
			return fmt.Errorf("%w: no scatter symbol", ErrNoScatterConf)
		}
		if len(def.Scatter.Values) == 0 {
			return fmt.Errorf("%w: empty scatter value table", ErrNoScatterConf)
		}
	}
	return nil
}

func (e *slotEngine) HandleAction(ctx context.Context, def *domain.GameDefinition, act *domain.Action) (*domain.Response, error) {
	switch act.Type {
	case domain.ActionSpin:
		return e.spin(ctx, def, act)
	case domain.ActionFreeSpinSelect:
		return e.selectOption(ctx, def, act)
	case domain.ActionGamble:
		return e.gamble(ctx, def, act)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, act.Type)
	}
}

func (e *slotEngine) InitData(ctx context.Context, def *domain.GameDefinition, userID string) (*domain.InitData, error) {
	st, err := e.store.Initialize(ctx, userID, def.ID)
	if err != nil {
		return nil, err
	}
	init := &domain.InitData{
		GameID:        def.ID,
		Name:          def.Name,
		Columns:       def.Columns,
		Rows:          def.Rows,
		Paylines:      def.Paylines,
		Denominations: def.Denominations,
		Balance:       st.Balance,
		Features:      st.Features,
		GambleEnabled: def.Gamble.Enabled,
	}
	if def.FreeSpin.Enabled {
		init.Options = def.FreeSpin.Options
	}
	return init, nil
}

func (e *slotEngine) spin(ctx context.Context, def *domain.GameDefinition, act *domain.Action) (*domain.Response, error) {
	var payload domain.SpinPayload
	if len(act.Payload) > 0 {
		if err := json.Unmarshal(act.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	}

	resp := &domain.Response{}
	_, err := e.store.Update(ctx, act.UserID, act.GameID, func(st *domain.PlayerGameState) error {
		return e.runSpin(ctx, def, payload, st, resp)
	})
	if errors.Is(err, errRejected) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *slotEngine) runSpin(ctx context.Context, def *domain.GameDefinition, payload domain.SpinPayload, st *domain.PlayerGameState, resp *domain.Response) error {
	if st.Features.PendingOptions {
		resp.Balance = st.Balance
		resp.Error = "free spin selection pending"
		return errRejected
	}
	if st.Features.Gamble != nil {
		resp.Balance = st.Balance
		resp.Error = "gamble in progress"
		return errRejected
	}

	if e.scatterBonus && feature.BonusActive(&st.Features) {
		return e.runBonusSpin(ctx, def, st, resp)
	}
	if feature.FreeSpinActive(&st.Features) {
		return e.runFreeSpin(ctx, def, st, resp)
	}
	return e.runPaidSpin(ctx, def, payload, st, resp)
}

// runPaidSpin is the base-game cycle: deduct the bet, generate, evaluate,
// advance feature triggers, credit.
// GLI-19 §4.3.3: wager before outcome, win after evaluation.
func (e *slotEngine) runPaidSpin(ctx context.Context, def *domain.GameDefinition, payload domain.SpinPayload, st *domain.PlayerGameState, resp *domain.Response) error {
	if payload.BetIndex < 0 || payload.BetIndex >= len(def.Denominations) {
		return fmt.Errorf("%w: %d", ErrBadBetIndex, payload.BetIndex)
	}
	betPerLine := def.Denominations[payload.BetIndex]
	bet := betPerLine * int64(len(def.Paylines))

	if st.Balance < bet {
		resp.Balance = st.Balance
		resp.Error = "insufficient funds"
		return errRejected
	}
	if e.guard != nil {
		if err := e.guard.CheckWager(ctx, st.UserID, bet); err != nil {
			resp.Balance = st.Balance
			resp.Error = err.Error()
			return errRejected
		}
	}
	st.Balance -= bet
	st.Bet = bet
	st.Pending = 0

	grid, err := e.reels.Generate(def)
	if err != nil {
		return err
	}
	wins, total := payline.Evaluate(def, grid, betPerLine)

	features := &domain.FeatureResult{}
	if err := e.applyScatters(ctx, def, st, grid, features); err != nil {
		return err
	}

	if feature.FreeSpinTriggered(def, grid) {
		feature.ApplyFreeSpinTrigger(def, &st.Features)
		if st.Features.PendingOptions {
			features.PendingOptions = def.FreeSpin.Options
		}
		e.audit.Log(ctx, audit.EventFreeSpinTrigger, domain.SeverityInfo,
			"Free spin sequence triggered",
			map[string]interface{}{"bet": bet},
			audit.WithUser(st.UserID), audit.WithGame(st.GameID))
	}

	if total > 0 {
		st.Balance += total
		st.Pending = total
	}

	e.auditLargeWin(ctx, st, bet, total)
	if e.guard != nil {
		// Counters are best-effort for a spin already played.
		if err := e.guard.RecordSpin(ctx, st.UserID, bet, total); err != nil {
			e.log.WithError(err).Warn("wager counter update failed")
		}
	}

	resp.Success = true
	resp.Balance = st.Balance
	resp.Bet = bet
	resp.Matrix = grid
	resp.Wins = wins
	resp.TotalWin = total
	resp.Features = featureResultOrNil(features)
	return nil
}

// runFreeSpin plays one spin of an active free-spin sequence: no wager,
// wins scaled by the selected option and any incremental counters.
func (e *slotEngine) runFreeSpin(ctx context.Context, def *domain.GameDefinition, st *domain.PlayerGameState, resp *domain.Response) error {
	grid, err := e.reels.Generate(def)
	if err != nil {
		return err
	}
	st.Pending = 0

	if e.incrementalMultipliers {
		feature.BumpMultiplierCounters(def, &st.Features, grid)
	}

	betPerLine := st.Bet / int64(len(def.Paylines))
	if betPerLine <= 0 {
		betPerLine = def.MinBet() / int64(len(def.Paylines))
	}

	optionMult := int64(feature.FreeSpinWinMultiplier(def, &st.Features))
	var wins []domain.LineWin
	var total int64
	for i := range def.Paylines {
		win, ok := payline.EvaluateLine(def, grid, i, betPerLine)
		if !ok {
			continue
		}
		if e.incrementalMultipliers {
			win.Win = feature.ScaleWinBySymbolMultiplier(&st.Features, win)
		}
		win.Win *= optionMult
		wins = append(wins, win)
		total += win.Win
	}

	features := &domain.FeatureResult{IsFreeSpin: true}
	if err := e.applyScatters(ctx, def, st, grid, features); err != nil {
		return err
	}

	// Retrigger is applied before the consume so the added spins survive
	// the decrement of the spin that earned them.
	if feature.FreeSpinTriggered(def, grid) {
		feature.ApplyFreeSpinTrigger(def, &st.Features)
		features.Retriggered = true
	}
	feature.ConsumeFreeSpin(&st.Features)
	features.FreeSpins = st.Features.FreeSpins
	if e.incrementalMultipliers {
		features.Multipliers = st.Features.Multipliers
	}

	if total > 0 {
		st.Balance += total
		st.Pending = total
	}
	e.auditLargeWin(ctx, st, 0, total)

	resp.Success = true
	resp.Balance = st.Balance
	resp.Matrix = grid
	resp.Wins = wins
	resp.TotalWin = total
	resp.Features = features
	return nil
}

// runBonusSpin plays one spin of the scatter bonus sub-mode: no wager, no
// payline evaluation, only scatter value accumulation. Exhausting the
// allowance settles the accumulated total.
func (e *slotEngine) runBonusSpin(ctx context.Context, def *domain.GameDefinition, st *domain.PlayerGameState, resp *domain.Response) error {
	grid, err := e.reels.GenerateBonus(def)
	if err != nil {
		return err
	}
	st.Pending = 0

	features := &domain.FeatureResult{}
	if _, err := feature.AccumulateScatters(def, &st.Features, grid, e.rng); err != nil {
		return err
	}

	exhausted := feature.ConsumeBonusSpin(&st.Features)
	features.ScatterCount = len(st.Features.ScatterValues)
	features.ScatterTotal = st.Features.ScatterTotal()
	features.BonusSpins = st.Features.BonusSpins

	var total int64
	if exhausted {
		total = feature.SettleBonus(&st.Features)
		st.Balance += total
		features.BonusWin = total
		features.ScatterCount = 0
		features.ScatterTotal = 0
		e.auditLargeWin(ctx, st, 0, total)
	}

	resp.Success = true
	resp.Balance = st.Balance
	resp.Matrix = grid
	resp.TotalWin = total
	resp.Features = features
	return nil
}

// applyScatters accumulates scatter values on any spin when the variant
// carries the scatter extension, and fires the bonus trigger transition.
func (e *slotEngine) applyScatters(ctx context.Context, def *domain.GameDefinition, st *domain.PlayerGameState, grid [][]int, features *domain.FeatureResult) error {
	if !e.scatterBonus {
		return nil
	}
	if _, err := feature.AccumulateScatters(def, &st.Features, grid, e.rng); err != nil {
		return err
	}
	features.ScatterCount = len(st.Features.ScatterValues)
	features.ScatterTotal = st.Features.ScatterTotal()
	if feature.ShouldTriggerBonus(def, &st.Features) {
		feature.StartBonus(def, &st.Features)
		features.BonusTriggered = true
		features.BonusSpins = st.Features.BonusSpins
		e.audit.Log(ctx, audit.EventBonusTrigger, domain.SeverityInfo,
			"Scatter bonus triggered",
			map[string]interface{}{
				"scatters":    features.ScatterCount,
				"bonus_spins": features.BonusSpins,
			},
			audit.WithUser(st.UserID), audit.WithGame(st.GameID))
	}
	return nil
}

func (e *slotEngine) selectOption(ctx context.Context, def *domain.GameDefinition, act *domain.Action) (*domain.Response, error) {
	var payload domain.FreeSpinSelectPayload
	if len(act.Payload) > 0 {
		if err := json.Unmarshal(act.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
		}
	}

	resp := &domain.Response{}
	_, err := e.store.Update(ctx, act.UserID, act.GameID, func(st *domain.PlayerGameState) error {
		if err := feature.SelectFreeSpinOption(def, &st.Features, payload.OptionIndex); err != nil {
			resp.Balance = st.Balance
			resp.Error = err.Error()
			return errRejected
		}
		resp.Success = true
		resp.Balance = st.Balance
		resp.Features = &domain.FeatureResult{
			IsFreeSpin: true,
			FreeSpins:  st.Features.FreeSpins,
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *slotEngine) gamble(ctx context.Context, def *domain.GameDefinition, act *domain.Action) (*domain.Response, error) {
	var payload domain.GamblePayload
	if err := json.Unmarshal(act.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	resp := &domain.Response{}
	_, err := e.store.Update(ctx, act.UserID, act.GameID, func(st *domain.PlayerGameState) error {
		return e.runGamble(def, payload, st, resp)
	})
	if errors.Is(err, errRejected) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (e *slotEngine) runGamble(def *domain.GameDefinition, payload domain.GamblePayload, st *domain.PlayerGameState, resp *domain.Response) error {
	features := &domain.FeatureResult{}
	switch payload.Event {
	case domain.GambleInit:
		if err := feature.InitGamble(def, st); err != nil {
			resp.Balance = st.Balance
			resp.Error = err.Error()
			return errRejected
		}

	case domain.GambleDraw:
		won, card, err := feature.DrawGamble(st, payload.CardColor, e.rng)
		switch {
		case errors.Is(err, feature.ErrGambleNotActive), errors.Is(err, feature.ErrBadCardColor):
			resp.Balance = st.Balance
			resp.Error = err.Error()
			return errRejected
		case err != nil:
			return err
		}
		features.GambleWon = &won
		features.DrawnCard = card

	case domain.GambleCollect:
		collected, err := feature.CollectGamble(st)
		if err != nil {
			resp.Balance = st.Balance
			resp.Error = err.Error()
			return errRejected
		}
		resp.TotalWin = collected

	default:
		return fmt.Errorf("%w: gamble event %q", ErrBadPayload, payload.Event)
	}

	features.Gamble = st.Features.Gamble
	resp.Success = true
	resp.Balance = st.Balance
	resp.Features = features
	return nil
}

func (e *slotEngine) auditLargeWin(ctx context.Context, st *domain.PlayerGameState, bet, win int64) {
	if win < largeWinThreshold {
		return
	}
	e.audit.Log(ctx, audit.EventLargeWin, domain.SeverityInfo,
		fmt.Sprintf("Large win: %d", win),
		map[string]interface{}{"win": win, "bet": bet},
		audit.WithUser(st.UserID), audit.WithGame(st.GameID))
	e.log.WithFields(logrus.Fields{
		"user_id": st.UserID,
		"game_id": st.GameID,
		"win":     win,
	}).Info("large win")
}

func featureResultOrNil(f *domain.FeatureResult) *domain.FeatureResult {
	if f.IsFreeSpin || f.Retriggered || f.BonusTriggered ||
		len(f.PendingOptions) > 0 || len(f.Multipliers) > 0 ||
		f.FreeSpins > 0 || f.ScatterCount > 0 || f.ScatterTotal > 0 ||
		f.BonusSpins > 0 || f.BonusWin > 0 ||
		f.Gamble != nil || f.GambleWon != nil || f.DrawnCard != "" {
		return f
	}
	return nil
}
