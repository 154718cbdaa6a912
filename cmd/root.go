// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cmd wires the windtunnel subcommands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "windtunnel",
	Short:         "Capture and calibrate contactless wind-speed measurements",
	Long:          "windtunnel merges a vision-sensor worker and a ground-truth serial anemometer into one log, and fits the conversion and smoothing parameters offline.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
