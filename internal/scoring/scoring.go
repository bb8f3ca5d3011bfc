// Package scoring turns end-of-turn statistics into four 0–100 axis scores,
// a weighted composite and a letter grade.
package scoring

import "math"

// Inputs are the statistics a score is computed from.
type Inputs struct {
	MeanWealth          float64
	Gini                float64
	MeanHappiness       float64
	BankruptFraction    float64 // agents with wealth <= 0 over population
	TotalDisasterDamage float64
	InitialWealth       float64
}

// Scores is a full scorecard.
type Scores struct {
	Prosperity int    `json:"prosperity"`
	Equality   int    `json:"equality"`
	Happiness  int    `json:"happiness"`
	Stability  int    `json:"stability"`
	Composite  int    `json:"composite"`
	Grade      string `json:"grade"`
	Title      string `json:"title"`
}

// Grade is one row of the grade table.
type Grade struct {
	Min    int
	Letter string
	Title  string
}

// Grades is ordered from best to worst.
var Grades = []Grade{
	{85, "S", "Utopian Visionary"},
	{70, "A", "Beloved Leader"},
	{55, "B", "Competent Administrator"},
	{40, "C", "Struggling Manager"},
	{25, "D", "Unpopular Bureaucrat"},
	{0, "F", "Failed State"},
}

func bound(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Floor(v))))
}

// Prosperity rewards mean wealth relative to the starting endowment with
// saturating returns.
func Prosperity(meanWealth, initialWealth float64) int {
	ratio := 0.0
	if initialWealth > 0 {
		ratio = meanWealth / initialWealth
	}
	return bound(100 * (1 - math.Exp(-0.3*ratio)))
}

// Equality is 100 at perfect equality, falling super-linearly with Gini.
func Equality(gini float64) int {
	base := 1 - gini
	if base < 0 {
		return 0
	}
	return bound(100 * math.Pow(base, 1.5))
}

// Happiness maps mean happiness in [0,1] onto 0–100.
func Happiness(meanHappiness float64) int {
	if meanHappiness <= 0 {
		return 0
	}
	return bound(100 * math.Pow(meanHappiness, 0.8))
}

// Stability penalizes bankruptcy and cumulative disaster damage. The damage
// penalty never exceeds 50.
func Stability(bankruptFraction, totalDisasterDamage float64) int {
	penalty := bankruptFraction*200 + math.Min(50, totalDisasterDamage/100)
	return bound(100 - penalty)
}

// Composite weights prosperity, equality and happiness at 30% each and
// stability at 10%.
func Composite(prosperity, equality, happiness, stability int) int {
	v := 0.3*float64(prosperity) + 0.3*float64(equality) + 0.3*float64(happiness) + 0.1*float64(stability)
	return bound(v)
}

// GradeFor returns the first grade whose minimum the composite reaches.
func GradeFor(composite int) Grade {
	for _, g := range Grades {
		if composite >= g.Min {
			return g
		}
	}
	return Grades[len(Grades)-1]
}

// Calculate computes the full scorecard.
func Calculate(in Inputs) Scores {
	p := Prosperity(in.MeanWealth, in.InitialWealth)
	e := Equality(in.Gini)
	h := Happiness(in.MeanHappiness)
	s := Stability(in.BankruptFraction, in.TotalDisasterDamage)
	c := Composite(p, e, h, s)
	g := GradeFor(c)
	return Scores{
		Prosperity: p,
		Equality:   e,
		Happiness:  h,
		Stability:  s,
		Composite:  c,
		Grade:      g.Letter,
		Title:      g.Title,
	}
}
