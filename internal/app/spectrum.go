package app

import (
	"fmt"
	"io"

	"github.com/relabs-tech/windtunnel_calibrator/internal/calib"
	"github.com/relabs-tech/windtunnel_calibrator/internal/datalog"
	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

// RunSpectrum prints the dominant frequency bins of each source in a
// recorded log, as a quick diagnostic of noise content.
func RunSpectrum(input string, out io.Writer) error {
	rows, err := datalog.ReadFile(input)
	if err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}
	ds, err := calib.BuildDataset(rows, 0)
	if err != nil {
		return fmt.Errorf("spectrum: %w", err)
	}

	series := []struct {
		label string
		s     calib.Series
	}{
		{sample.SourceVision, ds.Vision},
		{sample.SourceGroundTruth, ds.GroundTruth},
	}
	for _, entry := range series {
		sp := calib.Magnitudes(entry.s)
		if len(sp.Freq) == 0 {
			fmt.Fprintf(out, "%s: series too short for a spectrum\n", entry.label)
			continue
		}
		freq, mag := sp.Peak()
		fmt.Fprintf(out, "%s: %d bins, peak %.3f Hz (amplitude %.4f)\n",
			entry.label, len(sp.Freq), freq, mag)
	}
	return nil
}
