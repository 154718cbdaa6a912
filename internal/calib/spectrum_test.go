package calib

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitudesFindsSinusoidPeak(t *testing.T) {
	const fs = 20.0
	n := 400
	s := Series{
		Times:  make([]float64, n),
		Values: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Times[i] = float64(i) / fs
		s.Values[i] = 1.5 * math.Sin(2*math.Pi*2.0*s.Times[i])
	}

	sp := Magnitudes(s)
	require.Len(t, sp.Freq, n/2)

	freq, mag := sp.Peak()
	assert.InDelta(t, 2.0, freq, fs/float64(n)+1e-9)
	assert.InDelta(t, 1.5, mag, 0.05)
}

func TestMagnitudesShortSeries(t *testing.T) {
	assert.Empty(t, Magnitudes(Series{}).Freq)
	assert.Empty(t, Magnitudes(Series{Times: []float64{1}, Values: []float64{2}}).Freq)
}

func TestMagnitudesDegenerateSpan(t *testing.T) {
	s := Series{Times: []float64{1, 1}, Values: []float64{2, 3}}
	assert.Empty(t, Magnitudes(s).Freq)
}
