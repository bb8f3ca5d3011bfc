package engine

import (
	"errors"
	"fmt"

	"github.com/talgya/nation-sim/internal/economy"
)

// ErrInvalidPolicy is returned by PolicySet.Validate.
var ErrInvalidPolicy = errors.New("invalid policy")

// PolicySet is the player's choice for one turn.
type PolicySet struct {
	TaxEnabled       bool              `json:"tax_enabled"`
	TaxBrackets      []economy.Bracket `json:"tax_brackets"`
	UBIEnabled       bool              `json:"ubi_enabled"`
	IncomeEnabled    bool              `json:"income_enabled"`
	BaseIncome       float64           `json:"base_income"`
	EducationEnabled bool              `json:"education_enabled"`
	EducationRate    float64           `json:"education_rate"`
}

// DefaultPolicies returns the policy set every game starts with: labor
// income on at 1.0, everything else off.
func DefaultPolicies() PolicySet {
	return PolicySet{
		TaxBrackets:   economy.DefaultBrackets(),
		IncomeEnabled: true,
		BaseIncome:    1.0,
		EducationRate: 0.1,
	}
}

// Validate checks ranges for use at system boundaries. The engine itself
// accepts any policy set.
func (p PolicySet) Validate() error {
	if err := economy.ValidateBrackets(p.TaxBrackets); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if p.BaseIncome < 0 {
		return fmt.Errorf("%w: base_income %v is negative", ErrInvalidPolicy, p.BaseIncome)
	}
	if p.EducationRate < 0 || p.EducationRate > 1 {
		return fmt.Errorf("%w: education_rate %v outside [0,1]", ErrInvalidPolicy, p.EducationRate)
	}
	return nil
}

// Clone returns a deep copy.
func (p PolicySet) Clone() PolicySet {
	if p.TaxBrackets != nil {
		b := make([]economy.Bracket, len(p.TaxBrackets))
		copy(b, p.TaxBrackets)
		p.TaxBrackets = b
	}
	return p
}

// applyTo overwrites the policy-controlled fields of params. Base income is
// reset to the policy value every turn, so carried income modifiers compound
// from the player's setting rather than from last turn's modified value.
func (p PolicySet) applyTo(params economy.Params) economy.Params {
	params.Tax.Enabled = p.TaxEnabled
	params.Tax.Brackets = p.Clone().TaxBrackets
	params.Tax.UBIEnabled = p.UBIEnabled
	params.Income.Enabled = p.IncomeEnabled
	params.Income.BaseIncome = p.BaseIncome
	params.Education.Enabled = p.EducationEnabled
	params.Education.InvestmentRate = p.EducationRate
	return params
}
