// Package spectrum holds sampled spectral data on a uniform wavelength grid
// and the conversions the reporting layer needs.
package spectrum

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/unit/constant"
)

// nanometre in metres, for photon energy conversion.
const nanometre = 1e-9

// Spectrum is a spectral density sampled over [MinWavelength, MaxWavelength)
// in nm, split into Bins equal-width bins. Samples holds one density value per
// bin (W/nm family units; the caller tracks the exact unit).
type Spectrum struct {
	MinWavelength float64
	MaxWavelength float64
	Bins          int
	Samples       []float64
}

// New allocates a zeroed spectrum over the given wavelength grid.
func New(minWavelength, maxWavelength float64, bins int) (*Spectrum, error) {
	if minWavelength <= 0 || maxWavelength <= 0 {
		return nil, fmt.Errorf("spectrum: wavelength bounds must be positive, got [%g, %g]", minWavelength, maxWavelength)
	}
	if maxWavelength <= minWavelength {
		return nil, fmt.Errorf("spectrum: max wavelength %g must exceed min wavelength %g", maxWavelength, minWavelength)
	}
	if bins < 1 {
		return nil, fmt.Errorf("spectrum: bin count must be at least 1, got %d", bins)
	}
	return &Spectrum{
		MinWavelength: minWavelength,
		MaxWavelength: maxWavelength,
		Bins:          bins,
		Samples:       make([]float64, bins),
	}, nil
}

// Delta returns the bin width in nm.
func (s *Spectrum) Delta() float64 {
	return (s.MaxWavelength - s.MinWavelength) / float64(s.Bins)
}

// Wavelengths returns the bin-centre wavelengths in nm.
func (s *Spectrum) Wavelengths() []float64 {
	delta := s.Delta()
	w := make([]float64, s.Bins)
	for i := range w {
		w[i] = s.MinWavelength + (float64(i)+0.5)*delta
	}
	return w
}

// Total integrates the sampled density over the wavelength grid.
func (s *Spectrum) Total() float64 {
	return floats.Sum(s.Samples) * s.Delta()
}

// Clone returns a deep copy of the spectrum.
func (s *Spectrum) Clone() *Spectrum {
	out := *s
	out.Samples = make([]float64, len(s.Samples))
	copy(out.Samples, s.Samples)
	return &out
}

// ToPhotons converts the energy density samples (W/nm family) to photon rate
// density (photon/s/nm family), dividing each bin by the photon energy at its
// centre wavelength.
func (s *Spectrum) ToPhotons() []float64 {
	h := float64(constant.Planck)
	c := float64(constant.LightSpeedInVacuum)

	out := make([]float64, s.Bins)
	for i, wavelength := range s.Wavelengths() {
		photonEnergy := h * c / (wavelength * nanometre)
		out[i] = s.Samples[i] / photonEnergy
	}
	return out
}
