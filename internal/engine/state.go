package engine

import (
	"math"

	"github.com/talgya/nation-sim/internal/economy"
	"github.com/talgya/nation-sim/internal/events"
	"github.com/talgya/nation-sim/internal/scoring"
)

// WealthBins are the lower edges of the histogram buckets; the last bucket
// is unbounded above.
var WealthBins = []float64{0, 2, 5, 10, 20, 35, 50, math.Inf(1)}

// TurnState is the nation's aggregate state at the end of a turn.
type TurnState struct {
	Gini               float64 `json:"gini"`
	MeanWealth         float64 `json:"mean_wealth"`
	MeanHappiness      float64 `json:"mean_happiness"`
	MeanProductivity   float64 `json:"mean_productivity"`
	TaxRevenue         float64 `json:"tax_revenue"`
	UBIAmount          float64 `json:"ubi_amount"`
	TotalIncome        float64 `json:"total_income"`
	Population         int     `json:"population"`
	AgentsInPoverty    int     `json:"agents_in_poverty"`
	AgentsBankrupt     int     `json:"agents_bankrupt"`
	WealthDistribution []int   `json:"wealth_distribution"`
}

// BankruptFraction returns the share of agents with no positive wealth.
func (s TurnState) BankruptFraction() float64 {
	if s.Population == 0 {
		return 0
	}
	return float64(s.AgentsBankrupt) / float64(s.Population)
}

// HistoryData holds one entry per completed turn for each tracked series.
type HistoryData struct {
	Gini             []float64 `json:"gini"`
	MeanWealth       []float64 `json:"mean_wealth"`
	MeanHappiness    []float64 `json:"mean_happiness"`
	MeanProductivity []float64 `json:"mean_productivity"`
}

// Len returns the number of recorded turns.
func (h HistoryData) Len() int { return len(h.Gini) }

func (h *HistoryData) append(s TurnState) {
	h.Gini = append(h.Gini, s.Gini)
	h.MeanWealth = append(h.MeanWealth, s.MeanWealth)
	h.MeanHappiness = append(h.MeanHappiness, s.MeanHappiness)
	h.MeanProductivity = append(h.MeanProductivity, s.MeanProductivity)
}

func (h HistoryData) clone() HistoryData {
	return HistoryData{
		Gini:             append([]float64{}, h.Gini...),
		MeanWealth:       append([]float64{}, h.MeanWealth...),
		MeanHappiness:    append([]float64{}, h.MeanHappiness...),
		MeanProductivity: append([]float64{}, h.MeanProductivity...),
	}
}

// EventView is the public description of an event that fired.
type EventView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    events.Category `json:"category"`
}

func viewOf(d events.Def) EventView {
	return EventView{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
	}
}

// TurnResult is everything a client needs after a turn.
type TurnResult struct {
	GameID     string         `json:"game_id"`
	Turn       int            `json:"turn"`
	MaxTurns   int            `json:"max_turns"`
	IsFinished bool           `json:"is_finished"`
	Events     []EventView    `json:"events"`
	State      TurnState      `json:"state"`
	History    HistoryData    `json:"history"`
	Scores     scoring.Scores `json:"scores"`
	Policies   PolicySet      `json:"policies"`
}

// Summary describes a game without its history.
type Summary struct {
	GameID              string            `json:"game_id"`
	Seed                int64             `json:"seed"`
	Difficulty          events.Difficulty `json:"difficulty"`
	Turn                int               `json:"turn"`
	MaxTurns            int               `json:"max_turns"`
	StepsPerTurn        int               `json:"steps_per_turn"`
	NumAgents           int               `json:"num_agents"`
	InitialWealth       float64           `json:"initial_wealth"`
	IsFinished          bool              `json:"is_finished"`
	TotalDisasterDamage float64           `json:"total_disaster_damage"`
}

// snapshot computes the aggregate state of m. Per-step flow figures (tax,
// UBI, income) come from the last model step.
func snapshot(m *economy.Model) TurnState {
	pop := m.Agents()
	s := TurnState{
		Gini:               m.Gini(),
		MeanWealth:         m.MeanWealth(),
		MeanHappiness:      m.MeanHappiness(),
		MeanProductivity:   m.MeanProductivity(),
		TaxRevenue:         m.TaxRevenue(),
		UBIAmount:          m.UBIAmount(),
		TotalIncome:        m.TotalIncome(),
		Population:         len(pop),
		WealthDistribution: make([]int, len(WealthBins)-1),
	}
	for _, a := range pop {
		if a.Wealth < 1.0 {
			s.AgentsInPoverty++
		}
		if a.Wealth <= 0 {
			s.AgentsBankrupt++
		}
		for i := 0; i < len(WealthBins)-1; i++ {
			if a.Wealth >= WealthBins[i] && a.Wealth < WealthBins[i+1] {
				s.WealthDistribution[i]++
				break
			}
		}
	}
	return s
}
