package cli

import (
	"github.com/spf13/cobra"

	"glucose-dashboard/internal/app"
)

var serveStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API and simulation controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Serve(cmd.Context(), app.ServeOptions{Start: serveStart})
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveStart, "start", false, "Start the simulation immediately instead of waiting for /api/control/start")
}
