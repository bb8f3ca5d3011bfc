package economy

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/talgya/nation-sim/internal/agents"
)

// StepRecord is the model-level data collected after each step.
type StepRecord struct {
	Step                int     `json:"step"`
	Population          int     `json:"population"`
	TotalWealth         float64 `json:"total_wealth"`
	MeanWealth          float64 `json:"mean_wealth"`
	Gini                float64 `json:"gini"`
	MeanHappiness       float64 `json:"mean_happiness"`
	MeanProductivity    float64 `json:"mean_productivity"`
	TotalIncome         float64 `json:"total_income"`
	TaxRevenue          float64 `json:"tax_revenue"`
	UBIAmount           float64 `json:"ubi_amount"`
	DisasterOccurred    bool    `json:"disaster_occurred"`
	DisasterDamage      float64 `json:"disaster_damage"`
	EducationInvestment float64 `json:"education_investment"`
}

// AgentRecord is one agent's state collected after a step.
type AgentRecord struct {
	Step         int            `json:"step"`
	AgentID      agents.AgentID `json:"agent_id"`
	Wealth       float64        `json:"wealth"`
	Happiness    float64        `json:"happiness"`
	Productivity float64        `json:"productivity"`
}

// Model owns a population and advances it in discrete steps.
// A Model is not safe for concurrent use.
type Model struct {
	params  Params
	rng     *rand.Rand
	spawner *agents.Spawner
	pop     []*agents.Agent
	step    int

	// Per-step metrics, overwritten every step.
	meanWealthForStep   float64
	totalIncome         float64
	taxRevenue          float64
	ubiAmount           float64
	disasterOccurred    bool
	disasterDamage      float64
	educationInvestment float64
	meanProductivity    float64

	records      []StepRecord
	agentRecords []AgentRecord
}

// New validates params and builds a model with a freshly spawned population.
// The model's random source is seeded from params.Seed and is used for
// initial productivity, trade partner selection, execution order and
// disaster draws.
func New(params Params) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.Tax.Brackets = cloneBrackets(params.Tax.Brackets)

	m := &Model{
		params:  params,
		rng:     rand.New(rand.NewSource(params.Seed)),
		spawner: agents.NewSpawner(),
	}
	m.pop = m.spawner.SpawnPopulation(params.NumAgents, params.InitialWealth, m.rng)
	m.meanProductivity = m.MeanProductivity()
	return m, nil
}

// Step advances the model by one step. Sub-phases run in a fixed order:
// income, mean wealth, shuffled trades, tax and basic income, disaster,
// education, productivity mean, data collection.
func (m *Model) Step() {
	m.resetStepMetrics()

	// Labor income.
	if m.params.Income.Enabled {
		for _, a := range m.pop {
			m.totalIncome += a.EarnIncome(m.params.Income.BaseIncome)
		}
	}

	// Happiness compares against post-income wealth.
	m.meanWealthForStep = m.MeanWealth()

	// Trades in random order.
	order := make([]*agents.Agent, len(m.pop))
	copy(order, m.pop)
	m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, a := range order {
		a.Step(m.rng, m.pop, m.meanWealthForStep)
	}

	if m.params.Tax.Enabled {
		m.collectTax()
	}

	if m.params.Disaster.Enabled && m.rng.Float64() < m.params.Disaster.Probability {
		m.disasterOccurred = true
		m.disasterDamage = m.ApplyWealthDamage(m.params.Disaster.DamageRate)
		slog.Debug("disaster struck", "step", m.step+1, "damage", m.disasterDamage)
	}

	if m.params.Education.Enabled {
		for _, a := range m.pop {
			m.educationInvestment += a.InvestInEducation(
				m.params.Education.InvestmentRate,
				m.params.Education.MaxProductivity,
			)
		}
	}

	m.meanProductivity = m.MeanProductivity()

	m.step++
	m.collect()
}

// Run advances the model n steps.
func (m *Model) Run(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

func (m *Model) resetStepMetrics() {
	m.totalIncome = 0
	m.taxRevenue = 0
	m.ubiAmount = 0
	m.disasterOccurred = false
	m.disasterDamage = 0
	m.educationInvestment = 0
}

// collectTax applies the progressive schedule and optionally redistributes
// the full revenue as an equal basic income.
func (m *Model) collectTax() {
	desc := cloneBrackets(m.params.Tax.Brackets)
	sortBracketsDesc(desc)

	for _, a := range m.pop {
		rate := rateForSorted(desc, a.Wealth)
		m.taxRevenue += a.PayTax(rate)
	}

	if m.params.Tax.UBIEnabled && len(m.pop) > 0 {
		m.ubiAmount = m.taxRevenue / float64(len(m.pop))
		for _, a := range m.pop {
			a.ReceiveUBI(m.ubiAmount)
		}
	}
}

func (m *Model) collect() {
	m.records = append(m.records, StepRecord{
		Step:                m.step,
		Population:          len(m.pop),
		TotalWealth:         m.TotalWealth(),
		MeanWealth:          m.MeanWealth(),
		Gini:                m.Gini(),
		MeanHappiness:       m.MeanHappiness(),
		MeanProductivity:    m.meanProductivity,
		TotalIncome:         m.totalIncome,
		TaxRevenue:          m.taxRevenue,
		UBIAmount:           m.ubiAmount,
		DisasterOccurred:    m.disasterOccurred,
		DisasterDamage:      m.disasterDamage,
		EducationInvestment: m.educationInvestment,
	})
	for _, a := range m.pop {
		m.agentRecords = append(m.agentRecords, AgentRecord{
			Step:         m.step,
			AgentID:      a.ID,
			Wealth:       a.Wealth,
			Happiness:    a.Happiness,
			Productivity: a.Productivity,
		})
	}
}

// AddAgent spawns a new citizen into the population and returns it.
func (m *Model) AddAgent(wealth, productivity float64) *agents.Agent {
	a := m.spawner.Spawn(wealth, productivity)
	m.pop = append(m.pop, a)
	return a
}

// ApplyWealthDamage removes wealth*rate from every agent and returns the
// summed loss.
func (m *Model) ApplyWealthDamage(rate float64) float64 {
	total := 0.0
	for _, a := range m.pop {
		damage := a.Wealth * rate
		a.Wealth -= damage
		total += damage
	}
	return total
}

// ScaleProductivity multiplies every agent's productivity by factor,
// clamped to [0, max productivity].
func (m *Model) ScaleProductivity(factor float64) {
	limit := m.params.Education.MaxProductivity
	for _, a := range m.pop {
		p := a.Productivity * factor
		if p < 0 {
			p = 0
		}
		if p > limit {
			p = limit
		}
		a.Productivity = p
	}
}

// ScaleBaseIncome multiplies the configured base income by factor.
func (m *Model) ScaleBaseIncome(factor float64) {
	m.params.Income.BaseIncome *= factor
}

// Params returns a copy of the current configuration.
func (m *Model) Params() Params {
	p := m.params
	p.Tax.Brackets = cloneBrackets(m.params.Tax.Brackets)
	return p
}

// Reconfigure replaces the tax, income, disaster and education settings.
// Population size, initial wealth and seed are construction-time only and
// are ignored. Settings are not validated here: out-of-range values degrade
// (a negative tax rate collects nothing) rather than fail mid-game.
func (m *Model) Reconfigure(p Params) {
	p.NumAgents = m.params.NumAgents
	p.InitialWealth = m.params.InitialWealth
	p.Seed = m.params.Seed
	p.Tax.Brackets = cloneBrackets(p.Tax.Brackets)
	m.params = p
}

// Agents returns the live population in spawn order. Callers may mutate
// agent fields but must not retain the slice across AddAgent calls.
func (m *Model) Agents() []*agents.Agent { return m.pop }

// Population returns the number of agents.
func (m *Model) Population() int { return len(m.pop) }

// StepCount returns the number of completed steps.
func (m *Model) StepCount() int { return m.step }

// TotalIncome returns labor income paid in the last step.
func (m *Model) TotalIncome() float64 { return m.totalIncome }

// TaxRevenue returns tax collected in the last step.
func (m *Model) TaxRevenue() float64 { return m.taxRevenue }

// UBIAmount returns the per-capita basic income paid in the last step.
func (m *Model) UBIAmount() float64 { return m.ubiAmount }

// DisasterOccurred reports whether the model's own disaster fired last step.
func (m *Model) DisasterOccurred() bool { return m.disasterOccurred }

// DisasterDamage returns the wealth destroyed by the last step's disaster.
func (m *Model) DisasterDamage() float64 { return m.disasterDamage }

// EducationInvestment returns the wealth spent on education last step.
func (m *Model) EducationInvestment() float64 { return m.educationInvestment }

// Records returns the collected per-step model metrics.
func (m *Model) Records() []StepRecord { return m.records }

// AgentRecords returns the collected per-step agent states.
func (m *Model) AgentRecords() []AgentRecord { return m.agentRecords }

// TotalWealth sums wealth across the population.
func (m *Model) TotalWealth() float64 {
	total := 0.0
	for _, a := range m.pop {
		total += a.Wealth
	}
	return total
}

// MeanWealth returns the average wealth, or 0 for an empty population.
func (m *Model) MeanWealth() float64 {
	if len(m.pop) == 0 {
		return 0
	}
	return m.TotalWealth() / float64(len(m.pop))
}

// MeanHappiness returns the average happiness, or 0 for an empty population.
func (m *Model) MeanHappiness() float64 {
	if len(m.pop) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range m.pop {
		total += a.Happiness
	}
	return total / float64(len(m.pop))
}

// MeanProductivity returns the average productivity, or 0 for an empty
// population.
func (m *Model) MeanProductivity() float64 {
	if len(m.pop) == 0 {
		return 0
	}
	total := 0.0
	for _, a := range m.pop {
		total += a.Productivity
	}
	return total / float64(len(m.pop))
}

// Gini returns the Gini coefficient of the population's wealth.
func (m *Model) Gini() float64 {
	w := make([]float64, len(m.pop))
	for i, a := range m.pop {
		w[i] = a.Wealth
	}
	return Gini(w)
}

// Gini computes the Gini coefficient of a wealth distribution. Returns 0 for
// an empty slice or zero total wealth; never negative.
func Gini(wealth []float64) float64 {
	n := len(wealth)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, wealth)
	sort.Float64s(sorted)

	total := 0.0
	for _, w := range sorted {
		total += w
	}
	if total == 0 {
		return 0
	}

	cumulative, sumCumulative := 0.0, 0.0
	for _, w := range sorted {
		cumulative += w
		sumCumulative += cumulative
	}
	g := (float64(n) + 1 - 2*sumCumulative/total) / float64(n)
	if g < 0 {
		return 0
	}
	return g
}
