package events

import "math/rand"

// Difficulty scales how often negative and positive events fire.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Normal, Hard:
		return true
	}
	return false
}

// Multipliers returns the (negative, positive) probability multipliers.
// Unknown difficulties behave as Normal.
func (d Difficulty) Multipliers() (negative, positive float64) {
	switch d {
	case Easy:
		return 0.5, 1.3
	case Hard:
		return 1.5, 0.7
	default:
		return 1.0, 1.0
	}
}

// Probability returns the chance that def fires in one roll at difficulty d.
func Probability(def Def, d Difficulty) float64 {
	neg, pos := d.Multipliers()
	if def.IsNegative {
		return def.BaseProbability * neg
	}
	return def.BaseProbability * pos
}

// Roll draws exactly one uniform number per catalog entry, in catalog order,
// and returns the events that fired. Any subset, including none or all, may
// fire.
func Roll(rng *rand.Rand, d Difficulty) []Def {
	var fired []Def
	for _, def := range catalog {
		if rng.Float64() < Probability(def, d) {
			fired = append(fired, def)
		}
	}
	return fired
}

// ActiveEffect is a temporary modifier still in force.
type ActiveEffect struct {
	SourceEventID  string     `json:"source_event_id"`
	Type           EffectType `json:"type"`
	Value          float64    `json:"value"`
	RemainingTurns int        `json:"remaining_turns"`
}

// NewActiveEffect registers def's effect for its full duration.
func NewActiveEffect(def Def) ActiveEffect {
	return ActiveEffect{
		SourceEventID:  def.ID,
		Type:           def.Effect.Type,
		Value:          def.Effect.Value,
		RemainingTurns: def.Effect.Duration,
	}
}

// TickActiveEffects decrements every effect's remaining turns and returns
// those still active. The input slice is not modified.
func TickActiveEffects(effects []ActiveEffect) []ActiveEffect {
	var remaining []ActiveEffect
	for _, e := range effects {
		e.RemainingTurns--
		if e.RemainingTurns > 0 {
			remaining = append(remaining, e)
		}
	}
	return remaining
}
