package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/events"
	"github.com/talgya/nation-sim/internal/replay"
	"github.com/talgya/nation-sim/internal/scoring"
	"github.com/talgya/nation-sim/internal/sweep"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	turnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	badEventStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	goodEventStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	cardStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2)

	gradeStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F59E0B"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

const barWidth = 20

// renderTurn formats one played turn as a single line.
func renderTurn(res engine.TurnResult) string {
	s := res.State
	line := fmt.Sprintf("turn %3d/%-3d  gini %.3f  wealth %7.2f  happy %.2f  prod %.2f  pop %4d",
		res.Turn, res.MaxTurns, s.Gini, s.MeanWealth, s.MeanHappiness, s.MeanProductivity, s.Population)
	out := turnStyle.Render(line)

	for _, e := range res.Events {
		style := goodEventStyle
		if def, ok := events.Lookup(e.ID); ok && def.IsNegative {
			style = badEventStyle
		}
		out += "  " + style.Render(e.Name)
	}
	return out
}

// bar draws a 0-100 score as a fixed-width gauge.
func bar(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	filled := score * barWidth / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// renderScorecard formats the final scores.
func renderScorecard(gameID string, seed int64, sc scoring.Scores) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Final scorecard"))
	fmt.Fprintf(&b, "\ngame %s  seed %d\n\n", gameID, seed)
	rows := []struct {
		name  string
		score int
	}{
		{"Prosperity", sc.Prosperity},
		{"Equality", sc.Equality},
		{"Happiness", sc.Happiness},
		{"Stability", sc.Stability},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-11s %s %3d\n", r.name, bar(r.score), r.score)
	}
	fmt.Fprintf(&b, "\n%-11s %s %3d\n", "Composite", bar(sc.Composite), sc.Composite)
	b.WriteString("\n" + gradeStyle.Render(fmt.Sprintf("Grade %s: %s", sc.Grade, sc.Title)))
	return cardStyle.Render(b.String())
}

// renderSweep formats a sweep summary.
func renderSweep(s sweep.Summary) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Sweep of %d games", s.Games)))
	fmt.Fprintf(&b, "\ncomposite  mean %.1f  min %d  max %d\n", s.MeanComposite, s.MinComposite, s.MaxComposite)

	b.WriteString("\ngrades\n")
	for _, g := range scoring.Grades {
		if n := s.Grades[g.Letter]; n > 0 {
			fmt.Fprintf(&b, "  %-2s %4d\n", g.Letter, n)
		}
	}

	if len(s.EventsByKind) > 0 {
		b.WriteString("\nevents by category\n")
		kinds := make([]string, 0, len(s.EventsByKind))
		for k := range s.EventsByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, "  %-10s %5d\n", k, s.EventsByKind[k])
		}
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderReport formats a replay verification.
func renderReport(rep replay.Report) string {
	if rep.OK() {
		return okStyle.Render(fmt.Sprintf("OK  game %s reproduced exactly over %d turns", rep.GameID, rep.Turns))
	}
	var b strings.Builder
	b.WriteString(failStyle.Render(fmt.Sprintf("MISMATCH  game %s: %d mismatches over %d turns", rep.GameID, len(rep.Mismatches), rep.Turns)))
	for _, m := range rep.Mismatches {
		fmt.Fprintf(&b, "\n  turn %d: %s", m.Turn, m.Field)
	}
	return b.String()
}
