// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server is the configuration for the serve command.
type Server struct {
	Addr          string        `env:"NATIONSIM_ADDR" envDefault:":8080"`
	TuningPath    string        `env:"NATIONSIM_TUNING"`
	DBPath        string        `env:"NATIONSIM_DB" envDefault:"file:nationsim?mode=memory&cache=shared"`
	MaxGames      int           `env:"NATIONSIM_MAX_GAMES" envDefault:"1000"`
	LogLevel      string        `env:"NATIONSIM_LOG_LEVEL" envDefault:"info"`
	CORSOrigins   []string      `env:"NATIONSIM_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	CreateRate    float64       `env:"NATIONSIM_CREATE_RATE" envDefault:"1"`
	CreateBurst   int           `env:"NATIONSIM_CREATE_BURST" envDefault:"5"`
	RandomOrgKey  string        `env:"NATIONSIM_RANDOM_ORG_KEY"`
	AdminKey      string        `env:"NATIONSIM_ADMIN_KEY"`
	ShutdownGrace time.Duration `env:"NATIONSIM_SHUTDOWN_GRACE" envDefault:"10s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads Server from the environment and validates it.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.MaxGames < 1 {
		return cfg, fmt.Errorf("NATIONSIM_MAX_GAMES must be at least 1, got %d", cfg.MaxGames)
	}
	if cfg.CreateRate <= 0 || cfg.CreateBurst < 1 {
		return cfg, fmt.Errorf("NATIONSIM_CREATE_RATE and NATIONSIM_CREATE_BURST must be positive")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
