package economy

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/nation-sim/internal/agents"
)

func pureTradeParams(seed int64) Params {
	p := DefaultParams()
	p.Seed = seed
	p.Income.Enabled = false
	return p
}

func mustModel(t *testing.T, p Params) *Model {
	t.Helper()
	m, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNew_SpawnsPopulation(t *testing.T) {
	m := mustModel(t, DefaultParams())
	if m.Population() != 100 {
		t.Fatalf("population = %d, want 100", m.Population())
	}
	for _, a := range m.Agents() {
		if a.Wealth != 10 {
			t.Fatalf("agent %d wealth = %v, want 10", a.ID, a.Wealth)
		}
		if a.Happiness != 0.5 {
			t.Fatalf("agent %d happiness = %v, want 0.5", a.ID, a.Happiness)
		}
		if a.Productivity < 0.5 || a.Productivity > 1.5 {
			t.Fatalf("agent %d productivity = %v outside [0.5,1.5]", a.ID, a.Productivity)
		}
	}
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative agents", func(p *Params) { p.NumAgents = -1 }},
		{"negative wealth", func(p *Params) { p.InitialWealth = -3 }},
		{"bracket rate above one", func(p *Params) { p.Tax.Brackets = []Bracket{{Threshold: 0, Rate: 1.5}} }},
		{"negative threshold", func(p *Params) { p.Tax.Brackets = []Bracket{{Threshold: -1, Rate: 0.1}} }},
		{"disaster probability", func(p *Params) { p.Disaster.Probability = 2 }},
		{"zero max productivity", func(p *Params) { p.Education.MaxProductivity = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if _, err := New(p); !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("err = %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestStep_PureTradeConservesWealth(t *testing.T) {
	m := mustModel(t, pureTradeParams(3))
	before := m.TotalWealth()
	m.Run(50)
	after := m.TotalWealth()
	if math.Abs(after-before) > 1e-9 {
		t.Fatalf("total wealth drifted: %v -> %v", before, after)
	}
	if m.TotalIncome() != 0 {
		t.Fatalf("income = %v with income disabled", m.TotalIncome())
	}
}

func TestStep_IncomeAddsProductivityScaledWealth(t *testing.T) {
	p := DefaultParams()
	p.Seed = 9
	m := mustModel(t, p)

	wantIncome := 0.0
	for _, a := range m.Agents() {
		wantIncome += a.Productivity * p.Income.BaseIncome
	}
	before := m.TotalWealth()
	m.Step()

	if math.Abs(m.TotalIncome()-wantIncome) > 1e-9 {
		t.Fatalf("total income = %v, want %v", m.TotalIncome(), wantIncome)
	}
	if math.Abs(m.TotalWealth()-(before+wantIncome)) > 1e-9 {
		t.Fatalf("total wealth = %v, want %v", m.TotalWealth(), before+wantIncome)
	}
}

func TestStep_TaxWithFullUBIIsRevenueNeutral(t *testing.T) {
	p := pureTradeParams(11)
	p.Tax.Enabled = true
	p.Tax.UBIEnabled = true
	m := mustModel(t, p)

	for i := 0; i < 20; i++ {
		before := m.TotalWealth()
		m.Step()
		if math.Abs(m.TotalWealth()-before) > 1e-9 {
			t.Fatalf("step %d: wealth %v -> %v", i, before, m.TotalWealth())
		}
		want := m.TaxRevenue() / float64(m.Population())
		if math.Abs(m.UBIAmount()-want) > 1e-12 {
			t.Fatalf("ubi = %v, want %v", m.UBIAmount(), want)
		}
	}
	if m.TaxRevenue() <= 0 {
		t.Fatal("expected positive tax revenue")
	}
}

func TestStep_TaxWithoutUBIRemovesRevenue(t *testing.T) {
	p := pureTradeParams(5)
	p.Tax.Enabled = true
	m := mustModel(t, p)
	before := m.TotalWealth()
	m.Step()
	if m.UBIAmount() != 0 {
		t.Fatalf("ubi = %v with ubi disabled", m.UBIAmount())
	}
	if math.Abs(before-m.TaxRevenue()-m.TotalWealth()) > 1e-9 {
		t.Fatalf("wealth %v - revenue %v != %v", before, m.TaxRevenue(), m.TotalWealth())
	}
}

func TestStep_TaxDisabledReportsZero(t *testing.T) {
	p := pureTradeParams(5)
	p.Tax.UBIEnabled = true
	m := mustModel(t, p)
	m.Step()
	if m.TaxRevenue() != 0 || m.UBIAmount() != 0 {
		t.Fatalf("revenue=%v ubi=%v with tax disabled", m.TaxRevenue(), m.UBIAmount())
	}
}

func TestStep_CertainDisasterDamagesEveryone(t *testing.T) {
	p := pureTradeParams(2)
	p.Disaster.Enabled = true
	p.Disaster.Probability = 1
	p.Disaster.DamageRate = 0.5
	m := mustModel(t, p)
	before := m.TotalWealth()
	m.Step()
	if !m.DisasterOccurred() {
		t.Fatal("disaster should fire with probability 1")
	}
	if math.Abs(m.DisasterDamage()-before*0.5) > 1e-9 {
		t.Fatalf("damage = %v, want %v", m.DisasterDamage(), before*0.5)
	}
	if math.Abs(m.TotalWealth()-before*0.5) > 1e-9 {
		t.Fatalf("wealth after = %v, want %v", m.TotalWealth(), before*0.5)
	}
}

func TestStep_ImpossibleDisasterNeverFires(t *testing.T) {
	p := pureTradeParams(2)
	p.Disaster.Enabled = true
	p.Disaster.Probability = 0
	m := mustModel(t, p)
	for i := 0; i < 100; i++ {
		m.Step()
		if m.DisasterOccurred() {
			t.Fatalf("disaster fired at step %d", i)
		}
	}
}

func TestStep_EducationRespectsCap(t *testing.T) {
	p := DefaultParams()
	p.Seed = 4
	p.Education.Enabled = true
	p.Education.InvestmentRate = 0.5
	p.Income.BaseIncome = 20
	m := mustModel(t, p)
	startMean := m.MeanProductivity()

	for i := 0; i < 200; i++ {
		m.Step()
		for _, a := range m.Agents() {
			if a.Productivity > p.Education.MaxProductivity {
				t.Fatalf("step %d: agent %d productivity %v above cap", i, a.ID, a.Productivity)
			}
		}
	}
	if m.MeanProductivity() <= startMean {
		t.Fatalf("mean productivity %v did not grow from %v", m.MeanProductivity(), startMean)
	}
	if m.EducationInvestment() <= 0 {
		t.Fatal("expected education spend")
	}
}

func TestStep_HappinessStaysInRange(t *testing.T) {
	p := DefaultParams()
	p.Seed = 8
	p.Disaster.Enabled = true
	p.Disaster.Probability = 0.3
	m := mustModel(t, p)
	for i := 0; i < 100; i++ {
		m.Step()
		for _, a := range m.Agents() {
			if a.Happiness < 0 || a.Happiness > 1 {
				t.Fatalf("agent %d happiness %v out of range", a.ID, a.Happiness)
			}
		}
	}
}

func TestStep_HappinessUsesPostIncomeMean(t *testing.T) {
	p := DefaultParams()
	p.NumAgents = 0
	p.Seed = 5
	m := mustModel(t, p)
	poor := m.AddAgent(10, 1)
	m.AddAgent(20, 2)

	// Income brings wealth to 11 and 22. Each agent then gives one unit, so
	// poor rates itself at 10 or 11 depending on trade order.
	const preIncomeMean, postIncomeMean = 15.0, 16.5
	m.Step()

	happinessAt := func(wealth, mean float64) float64 {
		a := agents.Agent{Wealth: wealth}
		a.UpdateHappiness(mean, true)
		return a.Happiness
	}
	matches := func(mean float64) bool {
		for _, w := range []float64{10, 11} {
			if math.Abs(poor.Happiness-happinessAt(w, mean)) < 1e-12 {
				return true
			}
		}
		return false
	}
	if !matches(postIncomeMean) {
		t.Fatalf("happiness %v not computed against post-income mean %v", poor.Happiness, postIncomeMean)
	}
	if matches(preIncomeMean) {
		t.Fatalf("happiness %v also matches pre-income mean %v", poor.Happiness, preIncomeMean)
	}
}

func TestStep_Deterministic(t *testing.T) {
	p := DefaultParams()
	p.Seed = 77
	p.Tax.Enabled = true
	p.Tax.UBIEnabled = true
	p.Disaster.Enabled = true
	p.Education.Enabled = true

	a := mustModel(t, p)
	b := mustModel(t, p)
	a.Run(30)
	b.Run(30)

	for i, ag := range a.Agents() {
		bg := b.Agents()[i]
		if ag.Wealth != bg.Wealth || ag.Happiness != bg.Happiness || ag.Productivity != bg.Productivity {
			t.Fatalf("agent %d diverged: %+v vs %+v", ag.ID, ag, bg)
		}
	}
	if a.Gini() != b.Gini() {
		t.Fatalf("gini diverged: %v vs %v", a.Gini(), b.Gini())
	}
}

func TestStep_CollectsRecords(t *testing.T) {
	p := DefaultParams()
	p.NumAgents = 10
	m := mustModel(t, p)
	m.Run(3)

	recs := m.Records()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[2].Step != 3 || m.StepCount() != 3 {
		t.Fatalf("step counter = %d / %d, want 3", recs[2].Step, m.StepCount())
	}
	if len(m.AgentRecords()) != 30 {
		t.Fatalf("agent records = %d, want 30", len(m.AgentRecords()))
	}
	if recs[2].TotalWealth != m.TotalWealth() {
		t.Fatalf("recorded wealth %v != live %v", recs[2].TotalWealth, m.TotalWealth())
	}
}

func TestStep_EmptyPopulation(t *testing.T) {
	p := DefaultParams()
	p.NumAgents = 0
	p.Tax.Enabled = true
	p.Tax.UBIEnabled = true
	m := mustModel(t, p)
	m.Run(3)
	if m.MeanWealth() != 0 || m.Gini() != 0 || m.UBIAmount() != 0 {
		t.Fatalf("empty model metrics: mean=%v gini=%v ubi=%v", m.MeanWealth(), m.Gini(), m.UBIAmount())
	}
}

func TestAddAgent_AssignsFreshIDs(t *testing.T) {
	p := DefaultParams()
	p.NumAgents = 3
	m := mustModel(t, p)
	a := m.AddAgent(5, 1.0)
	if a.ID != 4 {
		t.Fatalf("new agent id = %d, want 4", a.ID)
	}
	if m.Population() != 4 {
		t.Fatalf("population = %d, want 4", m.Population())
	}
}

func TestScaleProductivity_Clamps(t *testing.T) {
	p := DefaultParams()
	p.NumAgents = 5
	m := mustModel(t, p)
	m.ScaleProductivity(10)
	for _, a := range m.Agents() {
		if a.Productivity != p.Education.MaxProductivity {
			t.Fatalf("productivity %v, want cap %v", a.Productivity, p.Education.MaxProductivity)
		}
	}
	m.ScaleProductivity(-1)
	for _, a := range m.Agents() {
		if a.Productivity != 0 {
			t.Fatalf("productivity %v, want 0", a.Productivity)
		}
	}
}

func TestReconfigure_KeepsPopulationSettings(t *testing.T) {
	p := DefaultParams()
	p.NumAgents = 7
	p.Seed = 12
	m := mustModel(t, p)

	next := DefaultParams()
	next.NumAgents = 999
	next.Tax.Enabled = true
	next.Income.BaseIncome = 2.5
	m.Reconfigure(next)

	got := m.Params()
	if got.NumAgents != 7 || got.Seed != 12 {
		t.Fatalf("construction params changed: %+v", got)
	}
	if !got.Tax.Enabled || got.Income.BaseIncome != 2.5 {
		t.Fatalf("settings not applied: %+v", got)
	}
}

func TestReconfigure_OutOfRangeRatesDegrade(t *testing.T) {
	p := pureTradeParams(1)
	p.NumAgents = 10
	m := mustModel(t, p)

	next := m.Params()
	next.Tax.Enabled = true
	next.Tax.Brackets = []Bracket{{Threshold: 0, Rate: -0.5}}
	m.Reconfigure(next)

	before := m.TotalWealth()
	m.Step()
	if m.TaxRevenue() != 0 {
		t.Fatalf("negative rate collected %v", m.TaxRevenue())
	}
	if math.Abs(m.TotalWealth()-before) > 1e-9 {
		t.Fatalf("wealth changed %v -> %v", before, m.TotalWealth())
	}
}

func TestGini(t *testing.T) {
	tests := []struct {
		name   string
		wealth []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0, 0}, 0},
		{"equal", []float64{5, 5, 5, 5}, 0},
		{"one holds all of two", []float64{0, 10}, 0.5},
		{"one holds all of four", []float64{0, 0, 0, 8}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gini(tt.wealth)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("Gini(%v) = %v, want %v", tt.wealth, got, tt.want)
			}
		})
	}
}

func TestGini_BoundsAfterTrading(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		m := mustModel(t, pureTradeParams(seed))
		m.Run(40)
		g := m.Gini()
		if g < 0 || g > 1 {
			t.Fatalf("seed %d: gini %v out of [0,1]", seed, g)
		}
	}
}

func TestRateFor(t *testing.T) {
	// Unsorted on purpose.
	brackets := []Bracket{
		{Threshold: 30, Rate: 0.2},
		{Threshold: 0, Rate: 0.0},
		{Threshold: 50, Rate: 0.3},
		{Threshold: 10, Rate: 0.1},
	}
	tests := []struct {
		wealth float64
		want   float64
	}{
		{-5, 0},
		{0, 0},
		{9.99, 0},
		{10, 0.1},
		{29, 0.1},
		{30, 0.2},
		{50, 0.3},
		{1000, 0.3},
	}
	for _, tt := range tests {
		if got := RateFor(brackets, tt.wealth); got != tt.want {
			t.Fatalf("RateFor(%v) = %v, want %v", tt.wealth, got, tt.want)
		}
	}
	if brackets[0].Threshold != 30 {
		t.Fatal("RateFor must not reorder the caller's slice")
	}
}
