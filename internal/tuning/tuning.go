// Package tuning loads game defaults from a YAML file.
package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/events"
)

// ErrInvalid is wrapped by every tuning validation failure.
var ErrInvalid = errors.New("invalid tuning")

// Tuning holds the defaults new games are created with.
type Tuning struct {
	NumAgents     int     `yaml:"num_agents"`
	InitialWealth float64 `yaml:"initial_wealth"`
	MaxTurns      int     `yaml:"max_turns"`
	StepsPerTurn  int     `yaml:"steps_per_turn"`
	Difficulty    string  `yaml:"difficulty"`
}

// Defaults mirrors engine.DefaultConfig.
func Defaults() Tuning {
	d := engine.DefaultConfig()
	return Tuning{
		NumAgents:     d.NumAgents,
		InitialWealth: d.InitialWealth,
		MaxTurns:      d.MaxTurns,
		StepsPerTurn:  d.StepsPerTurn,
		Difficulty:    string(d.Difficulty),
	}
}

// Load reads path over the defaults; keys absent from the file keep their
// default values. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Validate checks every field is in range and the difficulty is known.
func (t Tuning) Validate() error {
	if t.NumAgents < 1 {
		return fmt.Errorf("%w: num_agents must be at least 1, got %d", ErrInvalid, t.NumAgents)
	}
	if t.InitialWealth <= 0 {
		return fmt.Errorf("%w: initial_wealth must be positive, got %v", ErrInvalid, t.InitialWealth)
	}
	if t.MaxTurns < 1 {
		return fmt.Errorf("%w: max_turns must be at least 1, got %d", ErrInvalid, t.MaxTurns)
	}
	if t.StepsPerTurn < 1 {
		return fmt.Errorf("%w: steps_per_turn must be at least 1, got %d", ErrInvalid, t.StepsPerTurn)
	}
	if !events.Difficulty(t.Difficulty).Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalid, t.Difficulty)
	}
	return nil
}

// EngineConfig builds a game config. An empty difficulty uses the tuned
// default; a nil seed lets the engine draw one.
func (t Tuning) EngineConfig(seed *int64, difficulty string) engine.Config {
	if difficulty == "" {
		difficulty = t.Difficulty
	}
	return engine.Config{
		Seed:          seed,
		Difficulty:    events.Difficulty(difficulty),
		MaxTurns:      t.MaxTurns,
		StepsPerTurn:  t.StepsPerTurn,
		NumAgents:     t.NumAgents,
		InitialWealth: t.InitialWealth,
	}
}
