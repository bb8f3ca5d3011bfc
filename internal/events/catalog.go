// Package events defines the fixed catalog of random national events, the
// per-turn roll that decides which of them fire, and multi-turn effects.
package events

// Category groups events for reporting.
type Category string

const (
	CategoryDisaster   Category = "disaster"
	CategoryEconomic   Category = "economic"
	CategoryPopulation Category = "population"
)

// EffectType names how an event changes the nation.
type EffectType string

const (
	EffectWealthDamage         EffectType = "wealth_damage"
	EffectProductivityModifier EffectType = "productivity_modifier"
	EffectIncomeModifier       EffectType = "income_modifier"
	EffectAddAgents            EffectType = "add_agents"
)

// Effect is what an event does. Duration 0 means instant.
type Effect struct {
	Type     EffectType `json:"type"`
	Value    float64    `json:"value"`
	Duration int        `json:"duration"`
}

// Def is one catalog entry.
type Def struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        Category `json:"category"`
	IsNegative      bool     `json:"is_negative"`
	BaseProbability float64  `json:"base_probability"`
	Effect          Effect   `json:"effect"`
}

var catalog = [...]Def{
	{
		ID:              "earthquake",
		Name:            "Earthquake",
		Description:     "A devastating earthquake strikes! Citizens lose 20% of their wealth.",
		Category:        CategoryDisaster,
		IsNegative:      true,
		BaseProbability: 0.08,
		Effect:          Effect{Type: EffectWealthDamage, Value: 0.20},
	},
	{
		ID:              "recession",
		Name:            "Economic Recession",
		Description:     "Markets crash. Productivity drops by 15% this turn.",
		Category:        CategoryEconomic,
		IsNegative:      true,
		BaseProbability: 0.06,
		Effect:          Effect{Type: EffectProductivityModifier, Value: -0.15, Duration: 1},
	},
	{
		ID:              "epidemic",
		Name:            "Disease Outbreak",
		Description:     "An epidemic spreads. Healthcare costs reduce wealth by 10%.",
		Category:        CategoryDisaster,
		IsNegative:      true,
		BaseProbability: 0.04,
		Effect:          Effect{Type: EffectWealthDamage, Value: 0.10},
	},
	{
		ID:              "tech_boom",
		Name:            "Technology Breakthrough",
		Description:     "Innovation drives growth! Productivity increases by 15%.",
		Category:        CategoryEconomic,
		BaseProbability: 0.08,
		Effect:          Effect{Type: EffectProductivityModifier, Value: 0.15},
	},
	{
		ID:              "trade_deal",
		Name:            "International Trade Deal",
		Description:     "New trade agreements boost income by 25% for 2 turns.",
		Category:        CategoryEconomic,
		BaseProbability: 0.06,
		Effect:          Effect{Type: EffectIncomeModifier, Value: 0.25, Duration: 2},
	},
	{
		ID:              "population_boom",
		Name:            "Population Growth",
		Description:     "Immigration and births add 10 new citizens to the nation.",
		Category:        CategoryPopulation,
		BaseProbability: 0.05,
		Effect:          Effect{Type: EffectAddAgents, Value: 10},
	},
}

// Catalog returns a copy of every event definition in roll order.
func Catalog() []Def {
	out := make([]Def, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup finds a catalog entry by ID.
func Lookup(id string) (Def, bool) {
	for _, d := range catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Def{}, false
}
