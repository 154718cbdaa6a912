package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relabs-tech/windtunnel_calibrator/internal/app"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print live telemetry from a running capture",
	RunE: func(*cobra.Command, []string) error {
		return app.RunMonitor(cfg)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
