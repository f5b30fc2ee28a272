package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"glucose-dashboard/internal/app"
	"glucose-dashboard/internal/glucose"
)

var (
	exportLog        string
	exportFrom       string
	exportTo         string
	exportCSVPath    string
	exportMaxEntries int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export ledger entries as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Log:        glucose.Log(exportLog),
			CSVPath:    exportCSVPath,
			MaxEntries: exportMaxEntries,
		}

		if exportFrom != "" {
			from, err := time.Parse(time.RFC3339, exportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from value: %w", err)
			}
			opts.From = &from
		}

		if exportTo != "" {
			to, err := time.Parse(time.RFC3339, exportTo)
			if err != nil {
				return fmt.Errorf("invalid --to value: %w", err)
			}
			opts.To = &to
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportLog, "log", string(glucose.LogHistory), "Ledger to export (history or danger)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start timestamp (RFC3339, inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End timestamp (RFC3339, exclusive)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxEntries, "max-entries", 0, "Maximum entries to export (defaults to config)")
}
