// Package calib implements the offline calibration pipeline: aligning the
// recorded vision and ground-truth series, solving the wind-speed scale
// constant, searching Butterworth smoothing parameters, and computing
// diagnostic magnitude spectra.
package calib

import (
	"fmt"
	"sort"

	"github.com/relabs-tech/windtunnel_calibrator/internal/datalog"
	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

// Series is one timestamped measurement sequence. Times are seconds since
// the Unix epoch.
type Series struct {
	Times  []float64
	Values []float64
}

func (s Series) Len() int { return len(s.Times) }

// SampleRate infers the rate from the mean inter-sample interval.
func (s Series) SampleRate() float64 {
	n := s.Len()
	if n < 2 {
		return 0
	}
	span := s.Times[n-1] - s.Times[0]
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}

// Dataset is the time-aligned pair used for fitting: the ground-truth series
// and the vision series linearly interpolated onto its timestamp grid. The
// two series always have equal length.
type Dataset struct {
	GroundTruth Series
	Vision      Series
}

// BuildDataset splits log rows by source tag, re-sorts each series by
// timestamp (rows are drain-ordered, not time-ordered), optionally skips a
// warm-up prefix of ground-truth samples, and interpolates vision onto the
// ground-truth grid. Either series having fewer than 2 points is an error.
func BuildDataset(rows []datalog.Row, skipGroundTruth int) (*Dataset, error) {
	vision := splitSeries(rows, sample.SourceVision)
	truth := splitSeries(rows, sample.SourceGroundTruth)

	if skipGroundTruth > 0 {
		if skipGroundTruth >= truth.Len() {
			return nil, fmt.Errorf("calib: warm-up skip %d leaves no ground-truth samples (have %d)", skipGroundTruth, truth.Len())
		}
		truth.Times = truth.Times[skipGroundTruth:]
		truth.Values = truth.Values[skipGroundTruth:]
	}

	if vision.Len() < 2 {
		return nil, fmt.Errorf("calib: vision series too short: %d samples, need at least 2", vision.Len())
	}
	if truth.Len() < 2 {
		return nil, fmt.Errorf("calib: ground-truth series too short: %d samples, need at least 2", truth.Len())
	}

	interp := Series{
		Times:  append([]float64(nil), truth.Times...),
		Values: Interp(truth.Times, vision.Times, vision.Values),
	}
	return &Dataset{GroundTruth: truth, Vision: interp}, nil
}

func splitSeries(rows []datalog.Row, source string) Series {
	var s Series
	for _, r := range rows {
		if r.Source != source {
			continue
		}
		s.Times = append(s.Times, float64(r.Time.UnixNano())/1e9)
		s.Values = append(s.Values, r.Value)
	}
	sortSeries(&s)
	return s
}

func sortSeries(s *Series) {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.Times[idx[a]] < s.Times[idx[b]] })
	t := make([]float64, s.Len())
	v := make([]float64, s.Len())
	for i, j := range idx {
		t[i] = s.Times[j]
		v[i] = s.Values[j]
	}
	s.Times, s.Values = t, v
}

// Interp evaluates the piecewise-linear function through (xp, fp) at each x.
// Outside the span of xp it extends flat at the end values. xp must be
// ascending.
func Interp(x, xp, fp []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = interpOne(xi, xp, fp)
	}
	return out
}

func interpOne(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}
	j := sort.SearchFloat64s(xp, x)
	if xp[j] == x {
		return fp[j]
	}
	// xp[j-1] < x < xp[j]
	t := (x - xp[j-1]) / (xp[j] - xp[j-1])
	return fp[j-1] + t*(fp[j]-fp[j-1])
}
