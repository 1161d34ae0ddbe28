// Package pipeline models the output channels attached to an observer. A
// pipeline is one of a small closed set of variants: spectral or scalar,
// radiance or power. Variants are validated at construction; there is no open
// hierarchy.
package pipeline

import (
	"fmt"

	"github.com/plasmadiag/sightline/internal/spectrum"
)

// Kind tags the pipeline variant.
type Kind int

const (
	// SpectralRadiance accumulates a mean radiance spectrum (W/m^2/str/nm).
	SpectralRadiance Kind = iota
	// SpectralPower accumulates a mean power spectrum (W/nm).
	SpectralPower
	// Radiance accumulates a mean wavelength-integrated radiance (W/m^2/str).
	Radiance
	// Power accumulates a mean wavelength-integrated power (W).
	Power
)

func (k Kind) String() string {
	switch k {
	case SpectralRadiance:
		return "spectral_radiance"
	case SpectralPower:
		return "spectral_power"
	case Radiance:
		return "radiance"
	case Power:
		return "power"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a variant name, as produced by Kind.String, back to its tag.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "spectral_radiance":
		return SpectralRadiance, nil
	case "spectral_power":
		return SpectralPower, nil
	case "radiance":
		return Radiance, nil
	case "power":
		return Power, nil
	}
	return 0, fmt.Errorf("unknown pipeline kind %q", s)
}

// IsSpectral reports whether the variant carries a full spectrum rather than
// a single value.
func (k Kind) IsSpectral() bool {
	return k == SpectralRadiance || k == SpectralPower
}

// IsRadiance reports whether the variant belongs to the radiance family.
func (k Kind) IsRadiance() bool {
	return k == SpectralRadiance || k == Radiance
}

func (k Kind) valid() bool {
	switch k {
	case SpectralRadiance, SpectralPower, Radiance, Power:
		return true
	}
	return false
}

// Filter weights a scalar pipeline's accumulation by wavelength (nm in,
// dimensionless weight out). Spectral pipelines carry no filter.
type Filter func(wavelengthNm float64) float64

// UnsupportedVariantError reports a pipeline kind outside the supported set,
// or a variant used where another family is required.
type UnsupportedVariantError struct {
	Kind   Kind
	Reason string
}

func (e *UnsupportedVariantError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported pipeline variant %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("unsupported pipeline variant %s: only spectral_radiance, spectral_power, radiance and power are supported", e.Kind)
}

// Pipeline is one output channel. Exactly one of the mean spectrum or mean
// value is populated, according to the variant.
type Pipeline struct {
	kind Kind

	// Name identifies the pipeline for lookup. Optional, not required unique.
	Name string

	// Accumulate keeps samples across successive observations instead of
	// resetting. Only meaningful for the power-accumulating variants.
	Accumulate bool

	// DisplayProgress toggles live progress reporting. Only meaningful for
	// the spectral power variant.
	DisplayProgress bool

	filter Filter

	mean    *spectrum.Spectrum
	value   float64
	samples int
}

// New constructs a pipeline of the given kind. Spectral kinds reject any
// supplied filter silently (matching the attachment protocol, which ignores
// filters for spectral entries); scalar kinds keep it. Pipelines start
// non-accumulating.
func New(kind Kind, name string, filter Filter) (*Pipeline, error) {
	if !kind.valid() {
		return nil, &UnsupportedVariantError{Kind: kind}
	}
	p := &Pipeline{kind: kind, Name: name}
	if !kind.IsSpectral() {
		p.filter = filter
	}
	return p, nil
}

// Kind returns the variant tag.
func (p *Pipeline) Kind() Kind { return p.kind }

// Filter returns the accumulation filter for scalar variants, nil otherwise.
func (p *Pipeline) Filter() Filter { return p.filter }

// MeanSpectrum returns the accumulated mean spectrum for spectral variants,
// nil before any observation or for scalar variants.
func (p *Pipeline) MeanSpectrum() *spectrum.Spectrum { return p.mean }

// MeanValue returns the accumulated mean value for scalar variants.
func (p *Pipeline) MeanValue() float64 { return p.value }

// SampleCount returns the number of accumulated observations.
func (p *Pipeline) SampleCount() int { return p.samples }

// Reset discards accumulated samples.
func (p *Pipeline) Reset() {
	p.mean = nil
	p.value = 0
	p.samples = 0
}

// BeginObservation prepares the pipeline for a new observation. A
// non-accumulating pipeline discards the previous observation's samples; an
// accumulating one keeps folding new samples into the running mean.
func (p *Pipeline) BeginObservation() {
	if !p.Accumulate {
		p.Reset()
	}
}

// AddSpectrum folds one observed spectrum into the running mean of a spectral
// pipeline.
func (p *Pipeline) AddSpectrum(s *spectrum.Spectrum) error {
	if !p.kind.IsSpectral() {
		return &UnsupportedVariantError{Kind: p.kind, Reason: "scalar pipelines accumulate values, not spectra"}
	}
	if p.mean == nil {
		p.mean = s.Clone()
		p.samples = 1
		return nil
	}
	if p.mean.Bins != s.Bins || p.mean.MinWavelength != s.MinWavelength || p.mean.MaxWavelength != s.MaxWavelength {
		return fmt.Errorf("pipeline %q: spectrum grid changed between observations", p.Name)
	}
	p.samples++
	inv := 1 / float64(p.samples)
	for i := range p.mean.Samples {
		p.mean.Samples[i] += (s.Samples[i] - p.mean.Samples[i]) * inv
	}
	return nil
}

// AddValue folds one observed value into the running mean of a scalar
// pipeline.
func (p *Pipeline) AddValue(v float64) error {
	if p.kind.IsSpectral() {
		return &UnsupportedVariantError{Kind: p.kind, Reason: "spectral pipelines accumulate spectra, not values"}
	}
	p.samples++
	p.value += (v - p.value) / float64(p.samples)
	return nil
}
