// Package agents provides the citizen data model and its economic operations:
// trade, taxation, basic income, labor income and education.
package agents

import "math/rand"

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Happiness bounds.
const (
	MinHappiness = 0.0
	MaxHappiness = 1.0
)

// DefaultHappiness is the happiness every newly spawned citizen starts with.
const DefaultHappiness = 0.5

// Wallet is the capability an agent needs to take part in a trade.
// Anything that can hold and receive wealth is a valid counterparty.
type Wallet interface {
	Balance() float64
	Deposit(amount float64)
}

// Agent is a single citizen of the nation.
type Agent struct {
	ID           AgentID `json:"id"`
	Wealth       float64 `json:"wealth"`       // May go negative; bankrupt when <= 0
	Happiness    float64 `json:"happiness"`    // 0.0–1.0
	Productivity float64 `json:"productivity"` // 0.0–max productivity
}

// Balance returns the agent's current wealth.
func (a *Agent) Balance() float64 { return a.Wealth }

// Deposit adds to the agent's wealth.
func (a *Agent) Deposit(amount float64) { a.Wealth += amount }

// Bankrupt reports whether the agent has no positive wealth left.
func (a *Agent) Bankrupt() bool { return a.Wealth <= 0 }

// Step picks one other citizen uniformly at random, trades with it, then
// recomputes happiness against the supplied population mean wealth.
// pop must contain a itself; a population of one is a no-op.
func (a *Agent) Step(rng *rand.Rand, pop []*Agent, meanWealth float64) {
	self := -1
	for i, other := range pop {
		if other == a {
			self = i
			break
		}
	}
	others := len(pop)
	if self >= 0 {
		others--
	}
	if others <= 0 {
		return
	}

	idx := rng.Intn(others)
	if self >= 0 && idx >= self {
		idx++
	}
	a.Interact(pop[idx])
	a.UpdateHappiness(meanWealth, true)
}

// Interact gives up to one unit of wealth to other. This is a one-way gift,
// not a negotiated exchange.
func (a *Agent) Interact(other Wallet) {
	if other == nil {
		return
	}
	if a.Wealth > 0 {
		transfer := math64Min(1.0, a.Wealth)
		a.Wealth -= transfer
		other.Deposit(transfer)
	}
}

// UpdateHappiness blends absolute comfort with standing relative to the
// population mean. When hasMean is false or the mean is not positive, only
// the absolute component is used.
func (a *Agent) UpdateHappiness(meanWealth float64, hasMean bool) {
	absolute := math64Min(1.0, 0.3+a.Wealth/50.0)

	h := absolute
	if hasMean && meanWealth > 0 {
		relative := math64Min(1.0, a.Wealth/meanWealth)
		h = 0.5*absolute + 0.5*relative
	}
	a.Happiness = clamp64(h, MinHappiness, MaxHappiness)
}

// PayTax removes wealth*rate from the agent and returns the amount paid.
func (a *Agent) PayTax(rate float64) float64 {
	if rate <= 0 || a.Wealth <= 0 {
		return 0
	}
	tax := a.Wealth * rate
	a.Wealth -= tax
	return tax
}

// ReceiveUBI credits a basic income payment.
func (a *Agent) ReceiveUBI(amount float64) {
	a.Wealth += amount
}

// EarnIncome pays base scaled by productivity and returns the income.
func (a *Agent) EarnIncome(base float64) float64 {
	income := base * a.Productivity
	a.Wealth += income
	return income
}

// InvestInEducation spends wealth*rate on training. The productivity gain
// shrinks linearly with the remaining room below maxProductivity and is zero
// at the cap. Returns the amount invested.
func (a *Agent) InvestInEducation(rate, maxProductivity float64) float64 {
	if a.Wealth <= 0 || rate <= 0 {
		return 0
	}

	investment := a.Wealth * rate
	a.Wealth -= investment

	if maxProductivity <= 0 {
		return investment
	}
	room := math64Max(0, maxProductivity-a.Productivity)
	gain := 0.1 * (room / maxProductivity) * (investment / 10.0)
	a.Productivity = math64Min(maxProductivity, a.Productivity+gain)
	return investment
}

func math64Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func math64Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
