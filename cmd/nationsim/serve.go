package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/nation-sim/internal/api"
	"github.com/talgya/nation-sim/internal/config"
	"github.com/talgya/nation-sim/internal/entropy"
	"github.com/talgya/nation-sim/internal/persistence"
	"github.com/talgya/nation-sim/internal/store"
	"github.com/talgya/nation-sim/internal/tuning"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game API over HTTP",
		Long: `Serve the game API. Configuration comes from NATIONSIM_* environment
variables; game defaults come from the YAML file named by NATIONSIM_TUNING.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides NATIONSIM_ADDR")
	return cmd
}

func runServe(ctx context.Context, cfg config.Server) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Tuning ────────────────────────────────────────────────────────
	tun, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	slog.Info("tuning loaded",
		"path", cfg.TuningPath,
		"agents", tun.NumAgents,
		"max_turns", tun.MaxTurns,
		"steps_per_turn", tun.StepsPerTurn,
		"difficulty", tun.Difficulty,
	)

	// ── Journal ───────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("journal opened", "dsn", cfg.DBPath)

	// ── Registry ──────────────────────────────────────────────────────
	var seeds entropy.Source = entropy.CryptoSource{}
	if c := entropy.NewClient(cfg.RandomOrgKey); c != nil {
		seeds = c
		slog.Info("seeding games from random.org")
	}
	reg, err := store.NewRegistry(cfg.MaxGames, store.WithJournal(db), store.WithSeedSource(seeds))
	if err != nil {
		return err
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("NATIONSIM_ADMIN_KEY not set, admin endpoints will be disabled")
	}
	apiServer := &api.Server{
		Registry:      reg,
		Journal:       db,
		Tuning:        tun,
		CORSOrigins:   cfg.CORSOrigins,
		AdminKey:      cfg.AdminKey,
		CreateLimiter: api.NewRateLimiter(cfg.CreateRate, cfg.CreateBurst),
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP API starting", "addr", cfg.Addr, "max_games", cfg.MaxGames, "admin_auth", cfg.AdminKey != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "grace", cfg.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped", "games", reg.Len())
	return nil
}
