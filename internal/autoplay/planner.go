// Package autoplay provides a deterministic scripted player. Its policy
// choices drift smoothly from turn to turn along opensimplex noise and react
// to the nation's inequality and productivity.
package autoplay

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/nation-sim/internal/economy"
	"github.com/talgya/nation-sim/internal/engine"
)

// Thresholds the planner reacts to.
const (
	InequalityTrigger   = 0.4 // Gini above which basic income is switched on
	LowProductivityMark = 1.0
)

// Planner chooses policies turn by turn.
type Planner struct {
	tax       opensimplex.Noise
	education opensimplex.Noise
	income    opensimplex.Noise
}

// NewPlanner creates a planner. Equal seeds yield equal policy sequences.
func NewPlanner(seed int64) *Planner {
	// Independent layers, offset like terrain channels.
	return &Planner{
		tax:       opensimplex.NewNormalized(seed),
		education: opensimplex.NewNormalized(seed + 1),
		income:    opensimplex.NewNormalized(seed + 2),
	}
}

// Next returns the policies for the coming turn. state is the previous
// turn's outcome and is nil before the first turn.
func (p *Planner) Next(turn int, state *engine.TurnState) engine.PolicySet {
	t := float64(turn)
	taxLevel := octaveNoise(p.tax, t, 0, 3, 0.15, 0.5)
	eduLevel := octaveNoise(p.education, t, 0, 3, 0.15, 0.5)
	incLevel := octaveNoise(p.income, t, 0, 2, 0.1, 0.5)

	pol := engine.DefaultPolicies()
	pol.BaseIncome = 0.8 + 0.4*incLevel

	// Scale the default schedule by up to ±50%.
	scale := 0.5 + taxLevel
	brackets := economy.DefaultBrackets()
	for i := range brackets {
		brackets[i].Rate = clamp01(brackets[i].Rate * scale)
	}
	pol.TaxBrackets = brackets
	pol.TaxEnabled = taxLevel > 0.5

	pol.EducationEnabled = eduLevel > 0.55
	pol.EducationRate = 0.05 + 0.15*eduLevel

	if state != nil {
		if state.Gini > InequalityTrigger {
			pol.TaxEnabled = true
			pol.UBIEnabled = true
		}
		if state.MeanProductivity < LowProductivityMark {
			pol.EducationEnabled = true
		}
	}
	return pol
}

func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
