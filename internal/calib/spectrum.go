package calib

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum is a one-sided discrete Fourier magnitude spectrum.
type Spectrum struct {
	Freq      []float64 // Hz
	Magnitude []float64 // 2/N-normalized
}

// Magnitudes computes the one-sided magnitude spectrum of a series, deriving
// the sample spacing from the series' own timestamp span. A series with
// fewer than 2 samples yields an empty spectrum.
func Magnitudes(s Series) Spectrum {
	n := s.Len()
	if n < 2 {
		return Spectrum{}
	}
	spacing := (s.Times[n-1] - s.Times[0]) / float64(n-1)
	if spacing <= 0 {
		return Spectrum{}
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, s.Values)

	half := n / 2
	sp := Spectrum{
		Freq:      make([]float64, half),
		Magnitude: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		sp.Freq[k] = float64(k) / (float64(n) * spacing)
		sp.Magnitude[k] = 2.0 / float64(n) * cmplx.Abs(coeffs[k])
	}
	return sp
}

// Peak returns the frequency and magnitude of the largest non-DC bin, or
// zeros for spectra too short to have one.
func (sp Spectrum) Peak() (freqHz, magnitude float64) {
	for k := 1; k < len(sp.Freq); k++ {
		if sp.Magnitude[k] > magnitude {
			magnitude = sp.Magnitude[k]
			freqHz = sp.Freq[k]
		}
	}
	return freqHz, magnitude
}
