// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calib

import (
	"fmt"
	"math"
)

// biquad is one second-order section in normalized form (a0 == 1). For a
// first-order section b2 and a2 are zero.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Butterworth is a low-pass filter as a cascade of second-order sections.
type Butterworth struct {
	Order    int
	CutoffHz float64
	sections []biquad
}

// NewLowPass designs a digital Butterworth low-pass filter of the given
// order and corner frequency via the bilinear transform. The cutoff must lie
// below the Nyquist frequency.
func NewLowPass(order int, cutoffHz, sampleRateHz float64) (*Butterworth, error) {
	if order < 1 {
		return nil, fmt.Errorf("calib: filter order must be >= 1, got %d", order)
	}
	if cutoffHz <= 0 || sampleRateHz <= 0 {
		return nil, fmt.Errorf("calib: cutoff %g Hz and sample rate %g Hz must be positive", cutoffHz, sampleRateHz)
	}
	if cutoffHz >= sampleRateHz/2 {
		return nil, fmt.Errorf("calib: cutoff %g Hz is at or above Nyquist (%g Hz)", cutoffHz, sampleRateHz/2)
	}

	// Prewarp the corner so the digital response matches at the cutoff.
	k := 2 * sampleRateHz
	wc := k * math.Tan(math.Pi*cutoffHz/sampleRateHz)

	f := &Butterworth{Order: order, CutoffHz: cutoffHz}

	// Analog prototype poles on the left-half-plane Butterworth circle of
	// radius wc, taken as conjugate pairs.
	for i := 0; i < order/2; i++ {
		theta := math.Pi * float64(2*i+1+order) / float64(2*order)
		p := complex(wc*math.Cos(theta), wc*math.Sin(theta))
		f.sections = append(f.sections, bilinearPair(p, wc, k))
	}
	if order%2 == 1 {
		// One real pole at -wc.
		a0 := k + wc
		f.sections = append(f.sections, biquad{
			b0: wc / a0,
			b1: wc / a0,
			a1: (wc - k) / a0,
		})
	}
	return f, nil
}

// bilinearPair maps the conjugate pole pair (p, conj(p)) of the analog
// section wc^2 / (s^2 - 2*Re(p)*s + wc^2) into a digital biquad with
// s = k*(1-z^-1)/(1+z^-1).
func bilinearPair(p complex128, wc, k float64) biquad {
	re2 := 2 * real(p)
	wc2 := wc * wc

	a0 := k*k - re2*k + wc2
	return biquad{
		b0: wc * wc / a0,
		b1: 2 * wc * wc / a0,
		b2: wc * wc / a0,
		a1: (-2*k*k + 2*wc2) / a0,
		a2: (k*k + re2*k + wc2) / a0,
	}
}

// Apply filters the signal through the cascade using direct form II
// transposed, returning a new slice.
func (f *Butterworth) Apply(x []float64) []float64 {
	y := append([]float64(nil), x...)
	for _, s := range f.sections {
		var w1, w2 float64
		for i, xi := range y {
			yi := s.b0*xi + w1
			w1 = s.b1*xi - s.a1*yi + w2
			w2 = s.b2*xi - s.a2*yi
			y[i] = yi
		}
	}
	return y
}
