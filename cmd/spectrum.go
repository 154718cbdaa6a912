package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/windtunnel_calibrator/internal/app"
)

var spectrumInput string

var spectrumCmd = &cobra.Command{
	Use:   "spectrum",
	Short: "Print magnitude-spectrum diagnostics for a recorded log",
	RunE: func(*cobra.Command, []string) error {
		return app.RunSpectrum(spectrumInput, os.Stdout)
	},
}

func init() {
	spectrumCmd.Flags().StringVar(&spectrumInput, "input", "sensor_log.csv", "log file to analyze")
	rootCmd.AddCommand(spectrumCmd)
}
