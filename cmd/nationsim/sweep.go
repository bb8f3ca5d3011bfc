package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/talgya/nation-sim/internal/events"
	"github.com/talgya/nation-sim/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		first  int64
		count  int
		diff   string
		opts   sweep.Options
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Play many seeded games and summarize their outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := events.Difficulty(diff)
			if !d.Valid() {
				return fmt.Errorf("unknown difficulty %q", diff)
			}
			if count < 1 {
				return fmt.Errorf("--games must be at least 1")
			}
			opts.Difficulty = d
			opts.Seeds = sweep.SeedRange(first, count)

			s, err := sweep.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printSweep(cmd.OutOrStdout(), s, asJSON)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&first, "first-seed", 1, "first seed of the range")
	f.IntVar(&count, "games", 100, "number of consecutive seeds to play")
	f.StringVar(&diff, "difficulty", string(events.Normal), "easy, normal or hard")
	f.IntVar(&opts.Turns, "turns", 0, "turns per game (engine default if unset)")
	f.IntVar(&opts.NumAgents, "agents", 0, "initial population (engine default if unset)")
	f.IntVar(&opts.Workers, "workers", 0, "concurrent games (GOMAXPROCS if unset)")
	f.BoolVar(&opts.UsePlanner, "planner", true, "play with the scripted planner instead of fixed default policies")
	f.BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSweep(out io.Writer, s sweep.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	_, err := fmt.Fprintln(out, renderSweep(s))
	return err
}
