// Package store keeps live games in a bounded in-memory registry.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/entropy"
	"github.com/talgya/nation-sim/internal/replay"
)

// ErrNotFound is returned for unknown or evicted game IDs.
var ErrNotFound = errors.New("game not found")

// Journal receives game lifecycle records. *persistence.DB implements it.
type Journal interface {
	RecordGame(s engine.Summary) error
	RecordTurn(r engine.TurnResult) error
	DeleteGame(id string) error
}

// Option configures a Registry.
type Option func(*Registry)

// WithJournal records every created game and played turn in j, and purges
// a game's rows when it leaves the registry.
func WithJournal(j Journal) Option {
	return func(r *Registry) { r.journal = j }
}

// WithSeedSource draws seeds for games created without one from s.
func WithSeedSource(s entropy.Source) Option {
	return func(r *Registry) { r.seeds = s }
}

type entry struct {
	mu      sync.Mutex
	game    *engine.Game
	turns   []engine.TurnResult // without history
	removed bool
}

// Registry holds up to a fixed number of games, evicting the least recently
// used. Mutation of a single game is serialized; different games proceed in
// parallel.
type Registry struct {
	cache   *lru.Cache
	journal Journal
	seeds   entropy.Source
}

// NewRegistry creates a registry holding at most capacity games.
func NewRegistry(capacity int, opts ...Option) (*Registry, error) {
	r := &Registry{}
	for _, o := range opts {
		o(r)
	}
	cache, err := lru.NewWithEvict(capacity, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}
	r.cache = cache
	return r, nil
}

// onEvict waits for any turn in flight so the purge sees its journal rows.
func (r *Registry) onEvict(key, value interface{}) {
	id, _ := key.(string)
	if e, ok := value.(*entry); ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.removed = true
	}
	slog.Debug("game released", "game_id", id)
	if r.journal == nil {
		return
	}
	if err := r.journal.DeleteGame(id); err != nil {
		slog.Warn("journal purge failed", "game_id", id, "error", err)
	}
}

// Create builds a new game and registers it.
func (r *Registry) Create(cfg engine.Config) (*engine.Game, error) {
	if cfg.Seed == nil && r.seeds != nil {
		seed := r.seeds.Seed()
		cfg.Seed = &seed
	}
	g, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}

	if r.journal != nil {
		if err := r.journal.RecordGame(g.Summary()); err != nil {
			slog.Warn("journal record game failed", "game_id", g.ID(), "error", err)
		}
	}
	if evicted := r.cache.Add(g.ID(), &entry{game: g}); evicted {
		slog.Info("registry full, evicted oldest game", "capacity", r.cache.Len())
	}

	slog.Info("game created", "game_id", g.ID(), "seed", g.Seed(), "difficulty", g.Difficulty())
	return g, nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	return v.(*entry), nil
}

func notFound(id string) error {
	return fmt.Errorf("game %s: %w", id, ErrNotFound)
}

// Get returns a registered game. Callers that mutate it must go through
// Advance instead.
func (r *Registry) Get(id string) (*engine.Game, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.game, nil
}

// Advance plays one turn of game id. At most one turn per game is in flight.
func (r *Registry) Advance(id string, policies engine.PolicySet) (engine.TurnResult, error) {
	e, err := r.lookup(id)
	if err != nil {
		return engine.TurnResult{}, err
	}
	return r.advance(e, id, policies)
}

func (r *Registry) advance(e *entry, id string, policies engine.PolicySet) (engine.TurnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return engine.TurnResult{}, notFound(id)
	}

	res, err := e.game.AdvanceTurn(policies)
	if err != nil {
		return engine.TurnResult{}, err
	}
	logged := res
	logged.History = engine.HistoryData{}
	e.turns = append(e.turns, logged)
	if r.journal != nil {
		if err := r.journal.RecordTurn(res); err != nil {
			slog.Warn("journal record turn failed", "game_id", id, "turn", res.Turn, "error", err)
		}
	}
	if res.IsFinished {
		slog.Info("game finished", "game_id", id, "composite", res.Scores.Composite, "grade", res.Scores.Grade)
	}
	return res, nil
}

// View runs fn with exclusive access to game id.
func (r *Registry) View(id string, fn func(*engine.Game) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return notFound(id)
	}
	return fn(e.game)
}

// Export writes game id as a replay log covering every turn played so far.
func (r *Registry) Export(id string, w io.Writer) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return notFound(id)
	}

	lw, err := replay.NewWriter(w, replay.HeaderFor(e.game))
	if err != nil {
		return fmt.Errorf("export %s: %w", id, err)
	}
	for _, t := range e.turns {
		if err := lw.WriteTurn(t); err != nil {
			_ = lw.Close()
			return fmt.Errorf("export %s turn %d: %w", id, t.Turn, err)
		}
	}
	return lw.Close()
}

// Delete removes game id. A turn already in flight finishes first; one
// still waiting for the game fails with ErrNotFound.
func (r *Registry) Delete(id string) error {
	v, ok := r.cache.Peek(id)
	if !ok {
		return notFound(id)
	}
	e := v.(*entry)
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()

	r.cache.Remove(id)
	slog.Info("game deleted", "game_id", id)
	return nil
}

// List returns registered game IDs, least recently used first.
func (r *Registry) List() []string {
	keys := r.cache.Keys()
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := k.(string); ok {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of registered games.
func (r *Registry) Len() int { return r.cache.Len() }
