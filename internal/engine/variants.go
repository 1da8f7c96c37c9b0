package engine

import "github.com/luckyreel/rgs/internal/reel"

// Type prefixes the registry dispatches on.
const (
	TypeLines      = "lines"
	TypeMultiplier = "multiplier"
	TypeScatter    = "scatter"
)

// NewLinesEngine runs the plain payline family: paid spins, free spins
// with option selection, gamble.
func NewLinesEngine(d Deps) Engine {
	return &slotEngine{
		rng:   d.RNG,
		reels: reel.NewGenerator(d.RNG),
		store: d.Store,
		audit: d.Audit,
		guard: d.Guard,
		log:   d.Log,
	}
}

// NewMultiplierEngine extends the payline family with incremental
// per-symbol multiplier counters during free spins.
func NewMultiplierEngine(d Deps) Engine {
	return &slotEngine{
		rng:                    d.RNG,
		reels:                  reel.NewGenerator(d.RNG),
		store:                  d.Store,
		audit:                  d.Audit,
		guard:                  d.Guard,
		log:                    d.Log,
		incrementalMultipliers: true,
	}
}

// NewScatterEngine extends the payline family with scatter value
// accumulation and the bounded bonus sub-mode.
func NewScatterEngine(d Deps) Engine {
	return &slotEngine{
		rng:          d.RNG,
		reels:        reel.NewGenerator(d.RNG),
		store:        d.Store,
		audit:        d.Audit,
		guard:        d.Guard,
		log:          d.Log,
		scatterBonus: true,
	}
}
