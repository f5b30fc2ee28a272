package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"glucose-dashboard/internal/app"
	"glucose-dashboard/internal/glucose"
)

var (
	showLog   string
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent ledger entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Log:   glucose.Log(showLog),
			Limit: showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showLog, "log", string(glucose.LogHistory), "Ledger to display (history or danger)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of entries to display")
}
