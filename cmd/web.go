package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relabs-tech/windtunnel_calibrator/internal/app"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve a browser live view of a running capture",
	RunE: func(*cobra.Command, []string) error {
		return app.RunWeb(cfg)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)
}
