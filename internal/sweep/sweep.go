// Package sweep plays many seeded games concurrently and aggregates their
// outcomes.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/nation-sim/internal/autoplay"
	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/events"
)

// Options configures a sweep.
type Options struct {
	Seeds      []int64
	Difficulty events.Difficulty
	Turns      int
	NumAgents  int
	Workers    int // defaults to GOMAXPROCS

	// UsePlanner plays with the autoplay planner; otherwise default
	// policies are held for the whole game.
	UsePlanner bool
}

// GameOutcome is the final result of one seed.
type GameOutcome struct {
	Seed      int64  `json:"seed"`
	Composite int    `json:"composite"`
	Grade     string `json:"grade"`
	Events    int    `json:"events"`
}

// Summary aggregates a sweep.
type Summary struct {
	Games         int            `json:"games"`
	MeanComposite float64        `json:"mean_composite"`
	MinComposite  int            `json:"min_composite"`
	MaxComposite  int            `json:"max_composite"`
	Grades        map[string]int `json:"grades"`
	EventsByKind  map[string]int `json:"events_by_category"`
	Outcomes      []GameOutcome  `json:"outcomes"`
}

// Run plays one game per seed. Outcomes are sorted by seed, so the summary
// is identical regardless of worker count.
func Run(ctx context.Context, opts Options) (Summary, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu       sync.Mutex
		outcomes = make([]GameOutcome, 0, len(opts.Seeds))
		byKind   = map[string]int{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, seed := range opts.Seeds {
		seed := seed
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, kinds, err := playOne(gctx, seed, opts)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			mu.Lock()
			outcomes = append(outcomes, out)
			for k, n := range kinds {
				byKind[k] += n
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Seed < outcomes[j].Seed })
	s := summarize(outcomes)
	s.EventsByKind = byKind
	slog.Debug("sweep complete", "games", s.Games, "mean_composite", s.MeanComposite)
	return s, nil
}

func playOne(ctx context.Context, seed int64, opts Options) (GameOutcome, map[string]int, error) {
	g, err := engine.New(engine.Config{
		Seed:       &seed,
		Difficulty: opts.Difficulty,
		MaxTurns:   opts.Turns,
		NumAgents:  opts.NumAgents,
	})
	if err != nil {
		return GameOutcome{}, nil, err
	}

	var planner *autoplay.Planner
	if opts.UsePlanner {
		planner = autoplay.NewPlanner(seed)
	}

	out := GameOutcome{Seed: seed}
	kinds := map[string]int{}
	var last *engine.TurnState
	for !g.IsFinished() {
		if err := ctx.Err(); err != nil {
			return out, nil, err
		}
		pol := engine.DefaultPolicies()
		if planner != nil {
			pol = planner.Next(g.Turn(), last)
		}
		res, err := g.AdvanceTurn(pol)
		if err != nil {
			return out, nil, err
		}
		for _, e := range res.Events {
			kinds[string(e.Category)]++
			out.Events++
		}
		out.Composite = res.Scores.Composite
		out.Grade = res.Scores.Grade
		last = &res.State
	}
	return out, kinds, nil
}

func summarize(outcomes []GameOutcome) Summary {
	s := Summary{
		Games:    len(outcomes),
		Grades:   map[string]int{},
		Outcomes: outcomes,
	}
	if len(outcomes) == 0 {
		return s
	}
	s.MinComposite, s.MaxComposite = 100, 0
	total := 0
	for _, o := range outcomes {
		total += o.Composite
		s.Grades[o.Grade]++
		if o.Composite < s.MinComposite {
			s.MinComposite = o.Composite
		}
		if o.Composite > s.MaxComposite {
			s.MaxComposite = o.Composite
		}
	}
	s.MeanComposite = float64(total) / float64(len(outcomes))
	return s
}

// SeedRange returns n consecutive seeds starting at first.
func SeedRange(first int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = first + int64(i)
	}
	return out
}
