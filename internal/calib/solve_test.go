package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveScaleRecoversKnownConstant(t *testing.T) {
	// Noiseless synthetic data: truth = 2.0 * sqrt(|tan(angle)|) for angles
	// spread across (0°, 80°).
	const k = 2.0
	var times, angles, truth []float64
	for i := 0; i < 200; i++ {
		angle := 0.4 + float64(i)*(79.0/200.0)
		times = append(times, float64(i))
		angles = append(angles, angle)
		truth = append(truth, k*SpeedTransform(angle))
	}

	ds := &Dataset{
		GroundTruth: Series{Times: times, Values: truth},
		Vision:      Series{Times: times, Values: angles},
	}

	got, err := SolveScale(ds)
	require.NoError(t, err)
	assert.InDelta(t, k, got, 1e-6)
}

func TestSolveScaleDegenerateInput(t *testing.T) {
	ds := &Dataset{
		GroundTruth: Series{Times: []float64{0, 1}, Values: []float64{1, 2}},
		Vision:      Series{Times: []float64{0, 1}, Values: []float64{0, 0}},
	}
	_, err := SolveScale(ds)
	assert.Error(t, err)
}

func TestSpeedTransform(t *testing.T) {
	assert.Zero(t, SpeedTransform(0))
	assert.InDelta(t, 1.0, SpeedTransform(45), 1e-12)
	// Negative angles map to the same magnitude.
	assert.InDelta(t, SpeedTransform(30), SpeedTransform(-30), 1e-12)
}

func TestRMSE(t *testing.T) {
	assert.Zero(t, RMSE([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.InDelta(t, 2.0, RMSE([]float64{0, 0}, []float64{2, -2}), 1e-12)
	assert.False(t, math.IsNaN(RMSE([]float64{1}, []float64{2})))
}
