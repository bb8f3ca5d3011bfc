// Package economy provides the agent-based economic model: labor income,
// random wealth transfer, progressive taxation, basic income, disasters and
// education, advanced one step at a time.
package economy

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidParams is returned when model parameters fail validation.
var ErrInvalidParams = errors.New("invalid economy params")

// Bracket is one progressive tax bracket. Wealth at or above Threshold is
// taxed at Rate, unless a higher bracket applies.
type Bracket struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Rate      float64 `json:"rate" yaml:"rate"`
}

// TaxParams configures taxation and basic income redistribution.
type TaxParams struct {
	Enabled    bool      `json:"enabled" yaml:"enabled"`
	Brackets   []Bracket `json:"brackets" yaml:"brackets"`
	UBIEnabled bool      `json:"ubi_enabled" yaml:"ubi_enabled"`
}

// IncomeParams configures productivity-scaled labor income.
type IncomeParams struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	BaseIncome float64 `json:"base_income" yaml:"base_income"`
}

// DisasterParams configures the model's own per-step disaster draw.
type DisasterParams struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Probability float64 `json:"probability" yaml:"probability"`
	DamageRate  float64 `json:"damage_rate" yaml:"damage_rate"`
}

// EducationParams configures investment in productivity.
type EducationParams struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	InvestmentRate  float64 `json:"investment_rate" yaml:"investment_rate"`
	MaxProductivity float64 `json:"max_productivity" yaml:"max_productivity"`
}

// Params is the full model configuration.
type Params struct {
	NumAgents     int             `json:"num_agents" yaml:"num_agents"`
	InitialWealth float64         `json:"initial_wealth" yaml:"initial_wealth"`
	Seed          int64           `json:"seed" yaml:"seed"`
	Tax           TaxParams       `json:"tax" yaml:"tax"`
	Income        IncomeParams    `json:"income" yaml:"income"`
	Disaster      DisasterParams  `json:"disaster" yaml:"disaster"`
	Education     EducationParams `json:"education" yaml:"education"`
}

// DefaultBrackets returns the standard four-bracket progressive schedule.
func DefaultBrackets() []Bracket {
	return []Bracket{
		{Threshold: 0, Rate: 0.0},
		{Threshold: 10, Rate: 0.1},
		{Threshold: 30, Rate: 0.2},
		{Threshold: 50, Rate: 0.3},
	}
}

// DefaultParams returns a model configuration with every sub-system at its
// default. Tax, disasters and education start disabled; income is on.
func DefaultParams() Params {
	return Params{
		NumAgents:     100,
		InitialWealth: 10.0,
		Tax: TaxParams{
			Brackets: DefaultBrackets(),
		},
		Income: IncomeParams{
			Enabled:    true,
			BaseIncome: 1.0,
		},
		Disaster: DisasterParams{
			Probability: 0.01,
			DamageRate:  0.2,
		},
		Education: EducationParams{
			InvestmentRate:  0.1,
			MaxProductivity: 3.0,
		},
	}
}

// Validate checks ranges. Disabled sub-systems are still checked so a
// configuration cannot become invalid merely by being switched on.
func (p Params) Validate() error {
	if p.NumAgents < 0 {
		return fmt.Errorf("%w: num_agents %d is negative", ErrInvalidParams, p.NumAgents)
	}
	if p.InitialWealth < 0 {
		return fmt.Errorf("%w: initial_wealth %v is negative", ErrInvalidParams, p.InitialWealth)
	}
	if err := ValidateBrackets(p.Tax.Brackets); err != nil {
		return err
	}
	if p.Income.BaseIncome < 0 {
		return fmt.Errorf("%w: base_income %v is negative", ErrInvalidParams, p.Income.BaseIncome)
	}
	if p.Disaster.Probability < 0 || p.Disaster.Probability > 1 {
		return fmt.Errorf("%w: disaster probability %v outside [0,1]", ErrInvalidParams, p.Disaster.Probability)
	}
	if p.Disaster.DamageRate < 0 || p.Disaster.DamageRate > 1 {
		return fmt.Errorf("%w: disaster damage_rate %v outside [0,1]", ErrInvalidParams, p.Disaster.DamageRate)
	}
	if p.Education.InvestmentRate < 0 || p.Education.InvestmentRate > 1 {
		return fmt.Errorf("%w: education investment_rate %v outside [0,1]", ErrInvalidParams, p.Education.InvestmentRate)
	}
	if p.Education.MaxProductivity <= 0 {
		return fmt.Errorf("%w: max_productivity %v must be positive", ErrInvalidParams, p.Education.MaxProductivity)
	}
	return nil
}

// ValidateBrackets checks that every rate is in [0,1] and no threshold is
// negative. Order does not matter.
func ValidateBrackets(brackets []Bracket) error {
	for i, b := range brackets {
		if b.Threshold < 0 {
			return fmt.Errorf("%w: bracket %d threshold %v is negative", ErrInvalidParams, i, b.Threshold)
		}
		if b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("%w: bracket %d rate %v outside [0,1]", ErrInvalidParams, i, b.Rate)
		}
	}
	return nil
}

// RateFor returns the rate of the highest bracket whose threshold does not
// exceed wealth, or 0 when none applies.
func RateFor(brackets []Bracket, wealth float64) float64 {
	sorted := make([]Bracket, len(brackets))
	copy(sorted, brackets)
	sortBracketsDesc(sorted)
	return rateForSorted(sorted, wealth)
}

func rateForSorted(desc []Bracket, wealth float64) float64 {
	for _, b := range desc {
		if b.Threshold <= wealth {
			return b.Rate
		}
	}
	return 0
}

func sortBracketsDesc(b []Bracket) {
	sort.SliceStable(b, func(i, j int) bool { return b[i].Threshold > b[j].Threshold })
}

func cloneBrackets(b []Bracket) []Bracket {
	if b == nil {
		return nil
	}
	out := make([]Bracket, len(b))
	copy(out, b)
	return out
}
