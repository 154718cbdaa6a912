package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SpeedTransform converts a vision angle reading in degrees to the unscaled
// wind-speed term sqrt(|tan(angle)|). Multiplying by the fitted scale
// constant yields speed in the ground-truth unit.
func SpeedTransform(angleDeg float64) float64 {
	return math.Sqrt(math.Abs(math.Tan(angleDeg * math.Pi / 180)))
}

// SolveScale fits the scale constant k minimizing
// sum((truth - k*transform(vision))^2): ordinary least squares through the
// origin, closed form k = <x,y>/<x,x>.
func SolveScale(ds *Dataset) (float64, error) {
	x := make([]float64, ds.Vision.Len())
	for i, a := range ds.Vision.Values {
		x[i] = SpeedTransform(a)
	}
	xx := floats.Dot(x, x)
	if xx == 0 {
		return 0, fmt.Errorf("calib: degenerate vision series, all transformed samples are zero")
	}
	k := floats.Dot(x, ds.GroundTruth.Values) / xx
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0, fmt.Errorf("calib: scale solve produced a non-finite constant")
	}
	return k, nil
}

// ScaledSpeeds applies the transform and scale constant to the aligned
// vision series.
func ScaledSpeeds(ds *Dataset, k float64) []float64 {
	out := make([]float64, ds.Vision.Len())
	for i, a := range ds.Vision.Values {
		out[i] = k * SpeedTransform(a)
	}
	return out
}

// RMSE is the root mean square error between two equal-length signals.
func RMSE(truth, pred []float64) float64 {
	d := make([]float64, len(truth))
	copy(d, truth)
	floats.Sub(d, pred)
	return math.Sqrt(floats.Dot(d, d) / float64(len(d)))
}
