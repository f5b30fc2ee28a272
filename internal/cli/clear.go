package cli

import (
	"github.com/spf13/cobra"

	"glucose-dashboard/internal/glucose"
)

var clearLog string

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from a ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Clear(cmd.Context(), glucose.Log(clearLog))
	},
}

func init() {
	clearCmd.Flags().StringVar(&clearLog, "log", "", "Ledger to clear (history or danger)")
	_ = clearCmd.MarkFlagRequired("log")
}
