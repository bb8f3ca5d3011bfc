// Package engine runs a nation-building game: a turn state machine that
// applies player policy to the economy model, rolls random events, and
// scores the outcome after every turn.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/nation-sim/internal/agents"
	"github.com/talgya/nation-sim/internal/economy"
	"github.com/talgya/nation-sim/internal/entropy"
	"github.com/talgya/nation-sim/internal/events"
	"github.com/talgya/nation-sim/internal/scoring"
)

var (
	// ErrInvalidTurn is returned when advancing a finished game.
	ErrInvalidTurn = errors.New("game is already finished")

	// ErrInvalidConfig is returned by New for out-of-range configuration.
	ErrInvalidConfig = errors.New("invalid game config")
)

// Event rolls and population-boom productivity use a source seeded this far
// from the model's, so the two streams never coincide.
const engineSeedOffset = 300

// Config describes a new game. Zero numeric fields take their defaults.
type Config struct {
	Seed          *int64            `json:"seed,omitempty"`
	Difficulty    events.Difficulty `json:"difficulty"`
	MaxTurns      int               `json:"max_turns"`
	StepsPerTurn  int               `json:"steps_per_turn"`
	NumAgents     int               `json:"num_agents"`
	InitialWealth float64           `json:"initial_wealth"`
}

// DefaultConfig returns a normal-difficulty, 20-turn game of 100 citizens.
func DefaultConfig() Config {
	return Config{
		Difficulty:    events.Normal,
		MaxTurns:      20,
		StepsPerTurn:  5,
		NumAgents:     100,
		InitialWealth: 10.0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Difficulty == "" {
		c.Difficulty = d.Difficulty
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = d.MaxTurns
	}
	if c.StepsPerTurn == 0 {
		c.StepsPerTurn = d.StepsPerTurn
	}
	if c.NumAgents == 0 {
		c.NumAgents = d.NumAgents
	}
	if c.InitialWealth == 0 {
		c.InitialWealth = d.InitialWealth
	}
	return c
}

// Validate checks ranges after defaults are applied. Unknown difficulties
// are accepted and play as normal.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.MaxTurns < 0 {
		return fmt.Errorf("%w: max_turns %d is negative", ErrInvalidConfig, c.MaxTurns)
	}
	if c.StepsPerTurn < 0 {
		return fmt.Errorf("%w: steps_per_turn %d is negative", ErrInvalidConfig, c.StepsPerTurn)
	}
	if c.NumAgents < 0 {
		return fmt.Errorf("%w: num_agents %d is negative", ErrInvalidConfig, c.NumAgents)
	}
	if c.InitialWealth < 0 {
		return fmt.Errorf("%w: initial_wealth %v is negative", ErrInvalidConfig, c.InitialWealth)
	}
	return nil
}

// Game is one playthrough. It is not safe for concurrent use; callers that
// share a game across goroutines must serialize access.
type Game struct {
	id         string
	seed       int64
	difficulty events.Difficulty
	cfg        Config

	turn                int
	policies            PolicySet
	activeEffects       []events.ActiveEffect
	totalDisasterDamage float64
	history             HistoryData

	model *economy.Model
	rng   *rand.Rand

	state  *TurnState
	scores *scoring.Scores
}

// New creates a game. A nil seed draws a fresh one from crypto/rand; the
// drawn seed is kept and reported by Seed so the game can be replayed.
func New(cfg Config) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	var seed int64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		seed = entropy.NewSeed()
	}
	cfg.Seed = &seed

	params := economy.DefaultParams()
	params.NumAgents = cfg.NumAgents
	params.InitialWealth = cfg.InitialWealth
	params.Seed = seed

	model, err := economy.New(params)
	if err != nil {
		return nil, fmt.Errorf("create economy: %w", err)
	}

	g := &Game{
		id:         uuid.New().String(),
		seed:       seed,
		difficulty: cfg.Difficulty,
		cfg:        cfg,
		policies:   DefaultPolicies(),
		model:      model,
		rng:        rand.New(rand.NewSource(seed + engineSeedOffset)),
	}
	return g, nil
}

// AdvanceTurn plays one turn under the given policies.
func (g *Game) AdvanceTurn(policies PolicySet) (TurnResult, error) {
	if g.IsFinished() {
		return TurnResult{}, fmt.Errorf("advance game %s: %w", g.id, ErrInvalidTurn)
	}

	g.policies = policies.Clone()
	g.model.Reconfigure(g.policies.applyTo(g.model.Params()))
	g.applyActiveEffects()

	g.model.Run(g.cfg.StepsPerTurn)

	fired := events.Roll(g.rng, g.difficulty)
	g.applyEvents(fired)
	g.activeEffects = events.TickActiveEffects(g.activeEffects)

	g.turn++

	state := snapshot(g.model)
	g.history.append(state)
	scores := scoring.Calculate(scoring.Inputs{
		MeanWealth:          state.MeanWealth,
		Gini:                state.Gini,
		MeanHappiness:       state.MeanHappiness,
		BankruptFraction:    state.BankruptFraction(),
		TotalDisasterDamage: g.totalDisasterDamage,
		InitialWealth:       g.cfg.InitialWealth,
	})
	stored := state
	stored.WealthDistribution = append([]int(nil), state.WealthDistribution...)
	g.state = &stored
	g.scores = &scores

	views := make([]EventView, 0, len(fired))
	for _, d := range fired {
		views = append(views, viewOf(d))
	}

	slog.Debug("turn complete",
		"game_id", g.id,
		"turn", g.turn,
		"events", len(fired),
		"gini", state.Gini,
		"composite", scores.Composite,
	)

	return TurnResult{
		GameID:     g.id,
		Turn:       g.turn,
		MaxTurns:   g.cfg.MaxTurns,
		IsFinished: g.IsFinished(),
		Events:     views,
		State:      state,
		History:    g.history.clone(),
		Scores:     scores,
		Policies:   g.policies.Clone(),
	}, nil
}

// applyActiveEffects applies every carried modifier once for this turn.
func (g *Game) applyActiveEffects() {
	for _, e := range g.activeEffects {
		g.applyModifier(e.Type, e.Value)
	}
}

func (g *Game) applyModifier(t events.EffectType, v float64) {
	switch t {
	case events.EffectProductivityModifier:
		g.model.ScaleProductivity(1 + v)
	case events.EffectIncomeModifier:
		g.model.ScaleBaseIncome(1 + v)
	}
}

func (g *Game) applyEvents(fired []events.Def) {
	for _, d := range fired {
		eff := d.Effect
		switch eff.Type {
		case events.EffectWealthDamage:
			g.totalDisasterDamage += g.model.ApplyWealthDamage(eff.Value)

		case events.EffectProductivityModifier, events.EffectIncomeModifier:
			if eff.Duration > 0 {
				g.activeEffects = append(g.activeEffects, events.NewActiveEffect(d))
			} else {
				g.applyModifier(eff.Type, eff.Value)
			}

		case events.EffectAddAgents:
			for i := 0; i < int(eff.Value); i++ {
				productivity := agents.RandomProductivity(g.rng)
				g.model.AddAgent(0.5*g.model.MeanWealth(), productivity)
			}
		}
		slog.Debug("event fired", "game_id", g.id, "turn", g.turn+1, "event", d.ID)
	}
}

// ID returns the game's unique identifier.
func (g *Game) ID() string { return g.id }

// Seed returns the seed the game was built from.
func (g *Game) Seed() int64 { return g.seed }

// Difficulty returns the configured difficulty.
func (g *Game) Difficulty() events.Difficulty { return g.difficulty }

// Config returns the effective configuration, including the drawn seed.
func (g *Game) Config() Config {
	c := g.cfg
	seed := g.seed
	c.Seed = &seed
	return c
}

// Turn returns the number of completed turns.
func (g *Game) Turn() int { return g.turn }

// MaxTurns returns the turn limit.
func (g *Game) MaxTurns() int { return g.cfg.MaxTurns }

// IsFinished reports whether the turn limit has been reached.
func (g *Game) IsFinished() bool { return g.turn >= g.cfg.MaxTurns }

// Policies returns the policies in force, or the defaults before the first
// turn.
func (g *Game) Policies() PolicySet { return g.policies.Clone() }

// History returns a copy of the per-turn series.
func (g *Game) History() HistoryData { return g.history.clone() }

// ActiveEffects returns the modifiers that will apply next turn.
func (g *Game) ActiveEffects() []events.ActiveEffect {
	return append([]events.ActiveEffect(nil), g.activeEffects...)
}

// TotalDisasterDamage returns the wealth destroyed by events so far.
func (g *Game) TotalDisasterDamage() float64 { return g.totalDisasterDamage }

// Snapshot returns the state after the latest turn. ok is false before the
// first turn.
func (g *Game) Snapshot() (state TurnState, ok bool) {
	if g.state == nil {
		return TurnState{}, false
	}
	s := *g.state
	s.WealthDistribution = append([]int(nil), g.state.WealthDistribution...)
	return s, true
}

// Scores returns the scorecard after the latest turn. ok is false before the
// first turn.
func (g *Game) Scores() (scores scoring.Scores, ok bool) {
	if g.scores == nil {
		return scoring.Scores{}, false
	}
	return *g.scores, true
}

// Summary describes the game without its history.
func (g *Game) Summary() Summary {
	return Summary{
		GameID:              g.id,
		Seed:                g.seed,
		Difficulty:          g.difficulty,
		Turn:                g.turn,
		MaxTurns:            g.cfg.MaxTurns,
		StepsPerTurn:        g.cfg.StepsPerTurn,
		NumAgents:           g.cfg.NumAgents,
		InitialWealth:       g.cfg.InitialWealth,
		IsFinished:          g.IsFinished(),
		TotalDisasterDamage: g.totalDisasterDamage,
	}
}
