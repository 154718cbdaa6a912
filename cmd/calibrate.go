// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/windtunnel_calibrator/internal/app"
	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
)

var calibrateOpt = app.CalibrateOptions{}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Fit the scale constant and smoothing filter from a recorded log",
	RunE: func(*cobra.Command, []string) error {
		if !config.ValidSide(calibrateOpt.Side) {
			return fmt.Errorf("calibrate: --side must be left or right")
		}
		return app.RunCalibrate(cfg, calibrateOpt, os.Stdin, os.Stdout)
	},
}

func init() {
	f := calibrateCmd.Flags()
	f.StringVar(&calibrateOpt.Side, "side", "", "tunnel side being calibrated (left|right)")
	f.StringVar(&calibrateOpt.InputFile, "input", "", "log to calibrate on (default calibration/<side>_tunnel_calibration.csv)")
	f.IntVar(&calibrateOpt.SkipGroundTruth, "skip", 0, "warm-up ground-truth samples to discard")
	rootCmd.AddCommand(calibrateCmd)
}
