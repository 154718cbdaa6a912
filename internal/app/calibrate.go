// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/relabs-tech/windtunnel_calibrator/internal/calib"
	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
	"github.com/relabs-tech/windtunnel_calibrator/internal/datalog"
)

// CalibrateOptions come from the calibrate subcommand.
type CalibrateOptions struct {
	Side            string
	InputFile       string // defaults to the side's calibration log
	SkipGroundTruth int    // warm-up ground-truth samples to discard
}

// RunCalibrate aligns a recorded log, solves the wind-speed scale constant,
// optionally grid-searches Butterworth smoothing parameters, and writes the
// accepted values back to the configuration. Every write needs its own
// interactive confirmation; a declined prompt leaves the config untouched.
func RunCalibrate(cfg *config.Config, opt CalibrateOptions, in io.Reader, out io.Writer) error {
	input := opt.InputFile
	if input == "" {
		input = filepath.Join("calibration", opt.Side+"_tunnel_calibration.csv")
	}

	rows, err := datalog.ReadFile(input)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	ds, err := calib.BuildDataset(rows, opt.SkipGroundTruth)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	log.Printf("calibrate: aligned %d point pairs from %s", ds.GroundTruth.Len(), input)

	k, err := calib.SolveScale(ds)
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	fmt.Fprintf(out, "Solved for k: %v\n", k)

	speeds := calib.ScaledSpeeds(ds, k)
	fs := ds.GroundTruth.SampleRate()
	rawRMSE := calib.RMSE(ds.GroundTruth.Values, speeds)
	fmt.Fprintf(out, "Sample rate: %.2f Hz, unfiltered RMSE: %.4f\n", fs, rawRMSE)

	prompt := bufio.NewScanner(in)

	var accepted *calib.FilterParams
	if confirm(prompt, out, "Run filter parameter optimisation?") {
		fmt.Fprintln(out, "Finding optimal filter parameters...")
		best, err := calib.SearchFilter(speeds, ds.GroundTruth.Values, fs)
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		fmt.Fprintf(out, "Optimal parameters found: Order=%d, Cutoff=%.2f Hz (RMSE: %.4f)\n",
			best.Order, best.CutoffHz, best.RMSE)
		if confirm(prompt, out, "Use these parameters for this session?") {
			accepted = &best
		}
	}

	// Smooth with the session parameters if accepted, else with the side's
	// configured filter, and report the diagnostics either way.
	order, cutoff := 0, 0.0
	if accepted != nil {
		order, cutoff = accepted.Order, accepted.CutoffHz
	} else if o, c, err := cfg.Filter(opt.Side); err == nil {
		order, cutoff = o, c
	} else {
		log.Printf("calibrate: no filter configured for side %s, skipping smoothing diagnostics", opt.Side)
	}

	if order > 0 {
		f, err := calib.NewLowPass(order, cutoff, fs)
		if err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		smoothed := f.Apply(speeds)
		fmt.Fprintf(out, "Using filter: Order=%d, Cutoff=%.2f Hz, smoothed RMSE: %.4f\n",
			order, cutoff, calib.RMSE(ds.GroundTruth.Values, smoothed))
		printSpectra(out, ds, speeds, smoothed)
	}

	wrote := false
	if confirm(prompt, out, "Save K to config?") {
		cfg.SetScaleConstant(opt.Side, k)
		wrote = true
	}
	if accepted != nil && confirm(prompt, out, "Save optimised filter parameters to config?") {
		cfg.SetFilter(opt.Side, accepted.Order, accepted.CutoffHz)
		wrote = true
	}
	if wrote {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		fmt.Fprintln(out, "Configuration saved.")
	}
	return nil
}

// printSpectra reports the dominant frequency of each diagnostic series.
func printSpectra(out io.Writer, ds *calib.Dataset, speeds, smoothed []float64) {
	series := []struct {
		label  string
		values []float64
	}{
		{"vision (scaled)", speeds},
		{"vision (smoothed)", smoothed},
		{"ground truth", ds.GroundTruth.Values},
	}
	fmt.Fprintln(out, "Frequency diagnostics:")
	for _, s := range series {
		sp := calib.Magnitudes(calib.Series{Times: ds.GroundTruth.Times, Values: s.values})
		freq, mag := sp.Peak()
		fmt.Fprintf(out, "  %-18s peak %.3f Hz (amplitude %.4f)\n", s.label, freq, mag)
	}
}

// confirm asks a yes/no question, defaulting to no.
func confirm(sc *bufio.Scanner, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	if !sc.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sc.Text()), "y")
}
