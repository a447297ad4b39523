// Package analysis looks for oscillation in recorded runs. A well tuned
// cascade settles; a badly tuned one rings at a dominant frequency that
// shows up as a peak in the power spectrum of the tracking error.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: series too short")

type Spectrum struct {
	Freq  []float64 // Hz
	Power []float64
}

// PowerSpectrum returns the one-sided amplitude spectrum of data sampled
// every dt seconds. The mean is removed first so the DC bin stays small.
func PowerSpectrum(data []float64, dt float64) (*Spectrum, error) {
	if len(data) < 4 {
		return nil, ErrTooShort
	}
	if dt <= 0 {
		return nil, errors.Errorf("analysis: dt must be positive, got %g", dt)
	}
	mean := stat.Mean(data, nil)
	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(len(centred))
	coeff := fft.Coefficients(nil, centred)
	s := &Spectrum{
		Freq:  make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		s.Freq[i] = fft.Freq(i) / dt
		s.Power[i] = cmplx.Abs(c)
	}
	return s, nil
}

// Dominant returns the strongest non-DC bin.
func (s *Spectrum) Dominant() (freq, power float64) {
	idx := -1
	for i := 1; i < len(s.Power); i++ {
		if idx < 0 || s.Power[i] > s.Power[idx] {
			idx = i
		}
	}
	if idx < 0 {
		return 0, 0
	}
	return s.Freq[idx], s.Power[idx]
}

// Below keeps the bins up to maxHz.
func (s *Spectrum) Below(maxHz float64) *Spectrum {
	n := len(s.Freq)
	for i, f := range s.Freq {
		if f > maxHz {
			n = i
			break
		}
	}
	return &Spectrum{Freq: s.Freq[:n], Power: s.Power[:n]}
}

// Error returns measured minus reference, sample by sample.
func Error(measured, reference []float64) ([]float64, error) {
	if len(measured) != len(reference) {
		return nil, errors.Errorf("analysis: length mismatch %d vs %d", len(measured), len(reference))
	}
	out := make([]float64, len(measured))
	for i := range measured {
		out[i] = measured[i] - reference[i]
	}
	return out, nil
}

// Period is 1/f, or +Inf for a zero frequency.
func Period(f float64) float64 {
	if f == 0 {
		return math.Inf(1)
	}
	return 1 / f
}
