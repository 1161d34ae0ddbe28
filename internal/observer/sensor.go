// Package observer implements point-like spectroscopic sensors and the
// fixed-membership groups that configure and observe them in bulk. Two sensor
// kinds share one capability set by composition: a placement, an ordered
// pipeline list and per-sensor sampling settings.
package observer

import (
	"context"
	"fmt"

	"github.com/plasmadiag/sightline/internal/engine"
	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/lookup"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/scenegraph"
	"github.com/plasmadiag/sightline/internal/spectrum"
)

// Default sampling settings for a freshly constructed sensor.
const (
	DefaultMinWavelength          = 375.0
	DefaultMaxWavelength          = 740.0
	DefaultSpectralBins           = 100
	DefaultPixelSamples           = 100
	DefaultSamplesPerTask         = 250
	DefaultRayExtinctionProb      = 0.01
	DefaultRayExtinctionMinDepth  = 3
	DefaultRayMaxDepth            = 500
	DefaultRayImportantPathWeight = 0.25
)

// Radiometer produces one spectral sample along a ray. It is the boundary to
// the ray-tracing side: the observers never look inside it.
type Radiometer interface {
	SampleSpectrum(origin geometry.Point3D, direction geometry.Vector3D, s *spectrum.Spectrum) error
}

// Observer is the capability shared by all point sensors: placement, engine,
// pipelines, sampling settings and observation. Both sensor kinds implement
// it through the common sensor base.
type Observer interface {
	Name() string
	SetName(name string)
	Node() *scenegraph.Node

	Origin() geometry.Point3D
	SetOrigin(p geometry.Point3D) error
	Direction() geometry.Vector3D
	SetDirection(v geometry.Vector3D) error

	Engine() engine.Engine
	SetEngine(e engine.Engine) error
	Radiometer() Radiometer
	SetRadiometer(r Radiometer)

	Pipelines() []*pipeline.Pipeline
	ConnectPipelines(specs []pipeline.Spec) error
	Pipeline(item any) (*pipeline.Pipeline, error)

	DisplayProgress() []bool
	SetDisplayProgress(v bool)
	Accumulate() []bool
	SetAccumulate(v bool)

	MinWavelength() float64
	SetMinWavelength(v float64) error
	MaxWavelength() float64
	SetMaxWavelength(v float64) error
	SpectralBins() int
	SetSpectralBins(v int) error
	RayExtinctionProb() float64
	SetRayExtinctionProb(v float64) error
	RayExtinctionMinDepth() int
	SetRayExtinctionMinDepth(v int) error
	RayMaxDepth() int
	SetRayMaxDepth(v int) error
	RayImportantPathWeight() float64
	SetRayImportantPathWeight(v float64) error
	PixelSamples() int
	SetPixelSamples(v int) error
	SamplesPerTask() int
	SetSamplesPerTask(v int) error

	Observe(ctx context.Context) error
}

// sensor is the shared implementation behind both sensor kinds.
type sensor struct {
	node *scenegraph.Node

	origin    geometry.Point3D
	direction geometry.Vector3D

	eng        engine.Engine
	radiometer Radiometer
	pipes      []*pipeline.Pipeline

	minWavelength          float64
	maxWavelength          float64
	spectralBins           int
	rayExtinctionProb      float64
	rayExtinctionMinDepth  int
	rayMaxDepth            int
	rayImportantPathWeight float64
	pixelSamples           int
	samplesPerTask         int
}

func newSensor(origin geometry.Point3D, direction geometry.Vector3D, name string) (*sensor, error) {
	s := &sensor{
		node:                   scenegraph.NewNode(name),
		origin:                 geometry.Point3D{},
		direction:              geometry.Vector3D{X: 1},
		eng:                    engine.NewSerial(),
		minWavelength:          DefaultMinWavelength,
		maxWavelength:          DefaultMaxWavelength,
		spectralBins:           DefaultSpectralBins,
		rayExtinctionProb:      DefaultRayExtinctionProb,
		rayExtinctionMinDepth:  DefaultRayExtinctionMinDepth,
		rayMaxDepth:            DefaultRayMaxDepth,
		rayImportantPathWeight: DefaultRayImportantPathWeight,
		pixelSamples:           DefaultPixelSamples,
		samplesPerTask:         DefaultSamplesPerTask,
	}
	if err := s.SetOrigin(origin); err != nil {
		return nil, err
	}
	if err := s.SetDirection(direction); err != nil {
		return nil, err
	}
	if err := s.ConnectPipelines(nil); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sensor) Name() string             { return s.node.Name() }
func (s *sensor) SetName(name string)      { s.node.SetName(name) }
func (s *sensor) Node() *scenegraph.Node   { return s.node }
func (s *sensor) Origin() geometry.Point3D { return s.origin }

// SetOrigin moves the sensor and recomputes its placement transform using the
// current viewing direction, so origin and direction can be set in either
// order without losing the other.
func (s *sensor) SetOrigin(p geometry.Point3D) error {
	t, err := geometry.LookTransform(p, s.direction)
	if err != nil {
		return fmt.Errorf("set origin: %w", err)
	}
	s.origin = p
	s.node.SetTransform(t)
	return nil
}

func (s *sensor) Direction() geometry.Vector3D { return s.direction }

// SetDirection points the sensor and recomputes its placement transform using
// the current origin.
func (s *sensor) SetDirection(v geometry.Vector3D) error {
	if v.IsZero() {
		return &TypeMismatchError{Property: "direction", Reason: "direction must be a non-null vector"}
	}
	t, err := geometry.LookTransform(s.origin, v)
	if err != nil {
		return fmt.Errorf("set direction: %w", err)
	}
	s.direction = v
	s.node.SetTransform(t)
	return nil
}

func (s *sensor) Engine() engine.Engine { return s.eng }

func (s *sensor) SetEngine(e engine.Engine) error {
	if e == nil {
		return &TypeMismatchError{Property: "render_engine", Reason: "engine must be a non-nil Engine instance"}
	}
	s.eng = e
	return nil
}

func (s *sensor) Radiometer() Radiometer     { return s.radiometer }
func (s *sensor) SetRadiometer(r Radiometer) { s.radiometer = r }

// Pipelines returns the ordered pipeline list. The order defines positional
// lookup.
func (s *sensor) Pipelines() []*pipeline.Pipeline { return s.pipes }

// ConnectPipelines replaces the sensor's pipelines with ones built from
// specs, in spec order. Previous pipelines are discarded, never merged. Nil
// specs attach the default spectral radiance pipeline.
func (s *sensor) ConnectPipelines(specs []pipeline.Spec) error {
	pipes, err := pipeline.Build(specs)
	if err != nil {
		return err
	}
	s.pipes = pipes
	return nil
}

// Pipeline resolves a pipeline by positional index or unique name.
func (s *sensor) Pipeline(item any) (*pipeline.Pipeline, error) {
	return lookup.Resolve(s.pipes, item, "pipeline", func(p *pipeline.Pipeline) string { return p.Name })
}

// DisplayProgress returns the per-pipeline progress flags. Entries for
// variants without progress support are always false.
func (s *sensor) DisplayProgress() []bool {
	out := make([]bool, len(s.pipes))
	for i, p := range s.pipes {
		if p.Kind() == pipeline.SpectralPower {
			out[i] = p.DisplayProgress
		}
	}
	return out
}

// SetDisplayProgress toggles progress display on the pipelines that support
// it and leaves the rest untouched.
func (s *sensor) SetDisplayProgress(v bool) {
	for _, p := range s.pipes {
		if p.Kind() == pipeline.SpectralPower {
			p.DisplayProgress = v
		}
	}
}

// Accumulate returns the per-pipeline accumulation flags. Entries for
// variants without accumulation support are always false.
func (s *sensor) Accumulate() []bool {
	out := make([]bool, len(s.pipes))
	for i, p := range s.pipes {
		if accumulateCapable(p.Kind()) {
			out[i] = p.Accumulate
		}
	}
	return out
}

// SetAccumulate toggles accumulation on the pipelines that support it.
func (s *sensor) SetAccumulate(v bool) {
	for _, p := range s.pipes {
		if accumulateCapable(p.Kind()) {
			p.Accumulate = v
		}
	}
}

func accumulateCapable(k pipeline.Kind) bool {
	return k == pipeline.Power || k == pipeline.SpectralPower
}

func (s *sensor) MinWavelength() float64 { return s.minWavelength }

func (s *sensor) SetMinWavelength(v float64) error {
	if v <= 0 || v >= s.maxWavelength {
		return fmt.Errorf("min wavelength %g must be positive and below max wavelength %g", v, s.maxWavelength)
	}
	s.minWavelength = v
	return nil
}

func (s *sensor) MaxWavelength() float64 { return s.maxWavelength }

func (s *sensor) SetMaxWavelength(v float64) error {
	if v <= s.minWavelength {
		return fmt.Errorf("max wavelength %g must exceed min wavelength %g", v, s.minWavelength)
	}
	s.maxWavelength = v
	return nil
}

func (s *sensor) SpectralBins() int { return s.spectralBins }

func (s *sensor) SetSpectralBins(v int) error {
	if v < 1 {
		return fmt.Errorf("spectral bins must be at least 1, got %d", v)
	}
	s.spectralBins = v
	return nil
}

func (s *sensor) RayExtinctionProb() float64 { return s.rayExtinctionProb }

func (s *sensor) SetRayExtinctionProb(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("ray extinction probability %g must lie in [0, 1]", v)
	}
	s.rayExtinctionProb = v
	return nil
}

func (s *sensor) RayExtinctionMinDepth() int { return s.rayExtinctionMinDepth }

func (s *sensor) SetRayExtinctionMinDepth(v int) error {
	if v < 1 {
		return fmt.Errorf("ray extinction min depth must be at least 1, got %d", v)
	}
	s.rayExtinctionMinDepth = v
	return nil
}

func (s *sensor) RayMaxDepth() int { return s.rayMaxDepth }

func (s *sensor) SetRayMaxDepth(v int) error {
	if v < 1 {
		return fmt.Errorf("ray max depth must be at least 1, got %d", v)
	}
	s.rayMaxDepth = v
	return nil
}

func (s *sensor) RayImportantPathWeight() float64 { return s.rayImportantPathWeight }

func (s *sensor) SetRayImportantPathWeight(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("ray important path weight %g must lie in [0, 1]", v)
	}
	s.rayImportantPathWeight = v
	return nil
}

func (s *sensor) PixelSamples() int { return s.pixelSamples }

func (s *sensor) SetPixelSamples(v int) error {
	if v < 1 {
		return fmt.Errorf("pixel samples must be at least 1, got %d", v)
	}
	s.pixelSamples = v
	return nil
}

func (s *sensor) SamplesPerTask() int { return s.samplesPerTask }

func (s *sensor) SetSamplesPerTask(v int) error {
	if v < 1 {
		return fmt.Errorf("samples per task must be at least 1, got %d", v)
	}
	s.samplesPerTask = v
	return nil
}

// Observe samples the radiometer pixelSamples times through the assigned
// engine and folds the results into every attached pipeline. Scalar pipelines
// integrate each sample over wavelength, weighted by their filter.
func (s *sensor) Observe(ctx context.Context) error {
	if s.radiometer == nil {
		return fmt.Errorf("sensor %q: no radiometer assigned", s.Name())
	}

	for _, p := range s.pipes {
		p.BeginObservation()
	}

	total := s.pixelSamples
	perTask := s.samplesPerTask
	if perTask > total {
		perTask = total
	}
	tasks := (total + perTask - 1) / perTask

	err := s.eng.Run(ctx, tasks, func(task int) error {
		count := perTask
		if task == tasks-1 {
			count = total - perTask*(tasks-1)
		}
		for i := 0; i < count; i++ {
			sample, err := spectrum.New(s.minWavelength, s.maxWavelength, s.spectralBins)
			if err != nil {
				return err
			}
			if err := s.radiometer.SampleSpectrum(s.origin, s.direction, sample); err != nil {
				return fmt.Errorf("sensor %q: %w", s.Name(), err)
			}
			for _, p := range s.pipes {
				if p.Kind().IsSpectral() {
					if err := p.AddSpectrum(sample); err != nil {
						return err
					}
					continue
				}
				if err := p.AddValue(filteredTotal(sample, p.Filter())); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("observe %q: %w", s.Name(), err)
	}
	return nil
}

// filteredTotal integrates a sampled spectrum over wavelength, applying the
// pipeline filter weight per bin. A nil filter weights every bin at 1.
func filteredTotal(s *spectrum.Spectrum, f pipeline.Filter) float64 {
	if f == nil {
		return s.Total()
	}
	delta := s.Delta()
	var total float64
	for i, w := range s.Wavelengths() {
		total += s.Samples[i] * f(w) * delta
	}
	return total
}

// SightLine is a pencil-beam sensor: a single ray along the viewing
// direction.
type SightLine struct {
	sensor
}

// NewSightLine creates a sight line at origin looking along direction, with
// the default spectral radiance pipeline attached.
func NewSightLine(origin geometry.Point3D, direction geometry.Vector3D, name string) (*SightLine, error) {
	base, err := newSensor(origin, direction, name)
	if err != nil {
		return nil, fmt.Errorf("new sight-line: %w", err)
	}
	return &SightLine{sensor: *base}, nil
}

// Default fibre sampling geometry.
const (
	DefaultAcceptanceAngle = 5.0  // degrees
	DefaultTipRadius       = 1e-3 // metres
)

// FibreOptic is a sensor with a finite tip area and acceptance cone. Rays are
// sampled over a disc of TipRadius at the tip and a cone of AcceptanceAngle
// around the viewing direction.
type FibreOptic struct {
	sensor

	acceptanceAngle float64
	tipRadius       float64
}

// NewFibreOptic creates a fibre sensor at origin looking along direction,
// with the default acceptance cone and tip radius.
func NewFibreOptic(origin geometry.Point3D, direction geometry.Vector3D, name string) (*FibreOptic, error) {
	base, err := newSensor(origin, direction, name)
	if err != nil {
		return nil, fmt.Errorf("new fibre optic: %w", err)
	}
	return &FibreOptic{
		sensor:          *base,
		acceptanceAngle: DefaultAcceptanceAngle,
		tipRadius:       DefaultTipRadius,
	}, nil
}

// AcceptanceAngle returns the cone half-angle in degrees.
func (f *FibreOptic) AcceptanceAngle() float64 { return f.acceptanceAngle }

// SetAcceptanceAngle sets the cone half-angle in degrees, in (0, 90].
func (f *FibreOptic) SetAcceptanceAngle(v float64) error {
	if v <= 0 || v > 90 {
		return fmt.Errorf("acceptance angle %g must lie in (0, 90] degrees", v)
	}
	f.acceptanceAngle = v
	return nil
}

// TipRadius returns the sampled tip radius in metres.
func (f *FibreOptic) TipRadius() float64 { return f.tipRadius }

// SetTipRadius sets the sampled tip radius in metres.
func (f *FibreOptic) SetTipRadius(v float64) error {
	if v <= 0 {
		return fmt.Errorf("tip radius %g must be positive", v)
	}
	f.tipRadius = v
	return nil
}
