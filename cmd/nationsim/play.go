package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/nation-sim/internal/autoplay"
	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/replay"
	"github.com/talgya/nation-sim/internal/tuning"
)

type playOptions struct {
	tuningPath string
	seed       int64
	hasSeed    bool
	difficulty string
	turns      int
	agents     int
	exportPath string
	quiet      bool
}

func newPlayCmd() *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one game headless with the scripted planner",
		Example: `  nationsim play --seed 42 --difficulty hard
  nationsim play --turns 20 --export game.jsonl.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasSeed = cmd.Flags().Changed("seed")
			return runPlay(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.tuningPath, "tuning", os.Getenv("NATIONSIM_TUNING"), "tuning YAML file")
	f.Int64Var(&opts.seed, "seed", 0, "game seed (random if unset)")
	f.StringVar(&opts.difficulty, "difficulty", "", "easy, normal or hard (tuned default if unset)")
	f.IntVar(&opts.turns, "turns", 0, "number of turns (tuned default if unset)")
	f.IntVar(&opts.agents, "agents", 0, "initial population (tuned default if unset)")
	f.StringVar(&opts.exportPath, "export", "", "write a replay log to this file")
	f.BoolVar(&opts.quiet, "quiet", false, "print only the final scorecard")
	return cmd
}

func runPlay(out io.Writer, opts playOptions) error {
	tun, err := tuning.Load(opts.tuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	if opts.difficulty != "" {
		tun.Difficulty = opts.difficulty
	}
	if opts.turns > 0 {
		tun.MaxTurns = opts.turns
	}
	if opts.agents > 0 {
		tun.NumAgents = opts.agents
	}
	if err := tun.Validate(); err != nil {
		return err
	}

	var seed *int64
	if opts.hasSeed {
		seed = &opts.seed
	}
	g, err := engine.New(tun.EngineConfig(seed, ""))
	if err != nil {
		return err
	}
	slog.Debug("game created", "game_id", g.ID(), "seed", g.Seed(), "difficulty", g.Difficulty())

	var lw *replay.Writer
	if opts.exportPath != "" {
		f, err := os.Create(opts.exportPath)
		if err != nil {
			return fmt.Errorf("create export: %w", err)
		}
		defer f.Close()
		if lw, err = replay.NewWriter(f, replay.HeaderFor(g)); err != nil {
			return err
		}
	}

	if !opts.quiet {
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Nation Builder  seed %d  %s  %d turns", g.Seed(), g.Difficulty(), g.MaxTurns())))
	}

	planner := autoplay.NewPlanner(g.Seed())
	var last *engine.TurnState
	for !g.IsFinished() {
		res, err := g.AdvanceTurn(planner.Next(g.Turn(), last))
		if err != nil {
			return err
		}
		if lw != nil {
			if err := lw.WriteTurn(res); err != nil {
				return fmt.Errorf("export turn %d: %w", res.Turn, err)
			}
		}
		if !opts.quiet {
			fmt.Fprintln(out, renderTurn(res))
		}
		last = &res.State
	}

	if lw != nil {
		if err := lw.Close(); err != nil {
			return fmt.Errorf("finish export: %w", err)
		}
		slog.Info("replay log written", "path", opts.exportPath, "turns", g.Turn())
	}

	sc, _ := g.Scores()
	fmt.Fprintln(out, renderScorecard(g.ID(), g.Seed(), sc))
	return nil
}
