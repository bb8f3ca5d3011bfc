// Command nationsim serves and plays Nation Builder games.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/nation-sim/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "nationsim",
		Short: "Nation Builder: a turn-based economic policy game",
		Long: `nationsim runs a population of citizens through an economy shaped by the
player's tax, basic income, wage and education policies, with random national
events along the way. Serve it over HTTP or play it headless.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides NATIONSIM_LOG_LEVEL")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPlayCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newReplayCmd())
	return root
}

// setupLogging installs a text slog handler on stderr. An empty level falls
// back to NATIONSIM_LOG_LEVEL.
func setupLogging(level string) error {
	if level == "" {
		level = os.Getenv("NATIONSIM_LOG_LEVEL")
	}
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return nil
}
