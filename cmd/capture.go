// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/windtunnel_calibrator/internal/app"
	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
)

var captureOpt = app.CaptureOptions{}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record vision and ground-truth streams into a CSV log",
	RunE: func(*cobra.Command, []string) error {
		if captureOpt.Calibration && !config.ValidSide(captureOpt.Side) {
			return fmt.Errorf("capture: --calibration requires --side left or --side right")
		}
		return app.RunCapture(cfg, captureOpt)
	},
}

func init() {
	f := captureCmd.Flags()
	f.StringVar(&captureOpt.Side, "side", "", "tunnel side being captured (left|right)")
	f.StringVar(&captureOpt.OutputFile, "output", "sensor_log.csv", "CSV file to log to")
	f.DurationVar(&captureOpt.Duration, "duration", 0, "stop after this long (0 = until Ctrl+C or worker exit)")
	f.BoolVar(&captureOpt.Live, "plot", false, "print a throttled live view of the streams")
	f.BoolVar(&captureOpt.VisionDebug, "vision-debug", false, "run the vision worker with its UI for debugging")
	f.BoolVar(&captureOpt.Calibration, "calibration", false, "capture a calibration run for --side (40s default, archives the old log)")
	rootCmd.AddCommand(captureCmd)
}
