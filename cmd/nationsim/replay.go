package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/nation-sim/internal/replay"
)

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay FILE",
		Short: "Verify that a replay log reproduces exactly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			l, err := replay.Read(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			rep, err := replay.Verify(l)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReport(rep))
			if !rep.OK() {
				return fmt.Errorf("replay diverged")
			}
			return nil
		},
	}
}
