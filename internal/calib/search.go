package calib

import "fmt"

// FilterParams is one candidate from the smoothing-filter grid search.
type FilterParams struct {
	Order    int
	CutoffHz float64
	RMSE     float64
}

// Grid bounds: order 2..6, cutoff 0.1 Hz up to (excluding) 1.5 Hz in 0.05 Hz
// steps.
const (
	gridOrderMin  = 2
	gridOrderMax  = 6
	gridCutoffMin = 0.1
	gridCutoffMax = 1.5
	gridCutoffInc = 0.05
)

// SearchFilter grid-searches Butterworth parameters, smoothing the scaled
// vision signal and scoring RMSE against ground truth at the given sample
// rate. Ties keep the first pair encountered under increasing order then
// increasing cutoff. Cutoffs at or above Nyquist are skipped.
func SearchFilter(scaled, truth []float64, sampleRateHz float64) (FilterParams, error) {
	if len(scaled) != len(truth) || len(scaled) == 0 {
		return FilterParams{}, fmt.Errorf("calib: filter search needs equal-length non-empty series")
	}
	if sampleRateHz <= 0 {
		return FilterParams{}, fmt.Errorf("calib: invalid sample rate %g Hz", sampleRateHz)
	}

	best := FilterParams{}
	found := false

	for order := gridOrderMin; order <= gridOrderMax; order++ {
		for i := 0; ; i++ {
			cutoff := gridCutoffMin + gridCutoffInc*float64(i)
			if cutoff >= gridCutoffMax {
				break
			}
			f, err := NewLowPass(order, cutoff, sampleRateHz)
			if err != nil {
				continue // cutoff above Nyquist for this dataset
			}
			e := RMSE(truth, f.Apply(scaled))
			if !found || e < best.RMSE {
				best = FilterParams{Order: order, CutoffHz: cutoff, RMSE: e}
				found = true
			}
		}
	}

	if !found {
		return FilterParams{}, fmt.Errorf("calib: no feasible filter in grid (sample rate %g Hz too low)", sampleRateHz)
	}
	return best, nil
}
