package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"glucose-dashboard/internal/app"
)

var simulateTicks int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the simulation headless and log every tick",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateTicks < 0 {
			return errors.New("--ticks cannot be negative")
		}
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{Ticks: simulateTicks})
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateTicks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
}
