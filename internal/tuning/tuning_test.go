package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/nation-sim/internal/events"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_EmptyPathIsDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got != Defaults() {
		t.Fatalf("Load(\"\") = %+v, want defaults", got)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoad_OverridesOnlyPresentKeys(t *testing.T) {
	path := writeFile(t, "max_turns: 12\ndifficulty: hard\n")
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxTurns != 12 || got.Difficulty != "hard" {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.NumAgents != 100 || got.StepsPerTurn != 5 || got.InitialWealth != 10 {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v", err)
	}
	if _, err := Load(writeFile(t, "max_turns: [1, 2")); err == nil {
		t.Fatal("malformed yaml should fail")
	}
	if _, err := Load(writeFile(t, "difficulty: nightmare\n")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown difficulty err = %v", err)
	}
	if _, err := Load(writeFile(t, "steps_per_turn: 0\n")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero steps err = %v", err)
	}
}

func TestEngineConfig(t *testing.T) {
	tu := Defaults()
	tu.MaxTurns = 8
	seed := int64(99)

	cfg := tu.EngineConfig(&seed, "")
	if cfg.Difficulty != events.Normal || cfg.MaxTurns != 8 || cfg.Seed == nil || *cfg.Seed != 99 {
		t.Fatalf("EngineConfig = %+v", cfg)
	}
	if cfg := tu.EngineConfig(nil, "easy"); cfg.Difficulty != events.Easy || cfg.Seed != nil {
		t.Fatalf("EngineConfig override = %+v", cfg)
	}
}
