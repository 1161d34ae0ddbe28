// Package config loads instrument layouts from JSON: named groups of
// sight-lines or fibre optics, their pipelines and sampling settings. The
// schema uses pointer fields so partial configs are safe; fields omitted from
// the JSON keep the observer defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/pipeline"
)

// Group kinds accepted in instrument configs.
const (
	KindSightLine  = "sight_line"
	KindFibreOptic = "fibre_optic"
)

// InstrumentConfig is the root of an instrument layout file.
type InstrumentConfig struct {
	Groups []GroupConfig `json:"groups"`
}

// GroupConfig declares one observation group. Sampling fields broadcast to
// every sensor in the group.
type GroupConfig struct {
	Name      string           `json:"name"`
	Kind      *string          `json:"kind,omitempty"` // sight_line (default) or fibre_optic
	Pipelines []PipelineConfig `json:"pipelines,omitempty"`
	Sensors   []SensorConfig   `json:"sensors"`

	MinWavelength  *float64 `json:"min_wavelength,omitempty"`
	MaxWavelength  *float64 `json:"max_wavelength,omitempty"`
	SpectralBins   *int     `json:"spectral_bins,omitempty"`
	PixelSamples   *int     `json:"pixel_samples,omitempty"`
	SamplesPerTask *int     `json:"samples_per_task,omitempty"`

	// Fibre-only broadcast settings.
	AcceptanceAngle *float64 `json:"acceptance_angle,omitempty"`
	TipRadius       *float64 `json:"tip_radius,omitempty"`
}

// SensorConfig declares one sensor within a group.
type SensorConfig struct {
	Name      string     `json:"name,omitempty"`
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`

	// Fibre-only per-sensor overrides.
	AcceptanceAngle *float64 `json:"acceptance_angle,omitempty"`
	TipRadius       *float64 `json:"tip_radius,omitempty"`
}

// PipelineConfig declares one pipeline to attach to every sensor in a group.
type PipelineConfig struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// Load reads and validates an instrument layout from a JSON file.
func Load(path string) (*InstrumentConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an instrument layout from JSON bytes.
func Parse(data []byte) (*InstrumentConfig, error) {
	cfg := &InstrumentConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the layout before any observers are built, so a bad file
// fails as a whole rather than half-constructing an instrument.
func (c *InstrumentConfig) Validate() error {
	if len(c.Groups) == 0 {
		return fmt.Errorf("config declares no groups")
	}
	for i, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("group %d: name is required", i)
		}
		kind := g.GetKind()
		if kind != KindSightLine && kind != KindFibreOptic {
			return fmt.Errorf("group %q: unknown kind %q", g.Name, kind)
		}
		if len(g.Sensors) == 0 {
			return fmt.Errorf("group %q: declares no sensors", g.Name)
		}
		if g.MinWavelength != nil && g.MaxWavelength != nil && *g.MaxWavelength <= *g.MinWavelength {
			return fmt.Errorf("group %q: max_wavelength must exceed min_wavelength", g.Name)
		}
		for j, s := range g.Sensors {
			if (geometry.Vector3D{X: s.Direction[0], Y: s.Direction[1], Z: s.Direction[2]}).IsZero() {
				return fmt.Errorf("group %q sensor %d: direction must be non-zero", g.Name, j)
			}
		}
		for _, p := range g.Pipelines {
			if _, err := pipeline.ParseKind(p.Kind); err != nil {
				return fmt.Errorf("group %q: %w", g.Name, err)
			}
		}
	}
	return nil
}

// GetKind returns the group kind, defaulting to sight_line.
func (g *GroupConfig) GetKind() string {
	if g.Kind == nil || *g.Kind == "" {
		return KindSightLine
	}
	return *g.Kind
}

func (g *GroupConfig) pipelineSpecs() ([]pipeline.Spec, error) {
	if len(g.Pipelines) == 0 {
		return nil, nil
	}
	specs := make([]pipeline.Spec, 0, len(g.Pipelines))
	for _, p := range g.Pipelines {
		kind, err := pipeline.ParseKind(p.Kind)
		if err != nil {
			return nil, err
		}
		specs = append(specs, pipeline.Spec{Kind: kind, Name: p.Name})
	}
	return specs, nil
}

// Build constructs every declared group in file order.
func (c *InstrumentConfig) Build() ([]observer.GroupView, error) {
	groups := make([]observer.GroupView, 0, len(c.Groups))
	for _, gc := range c.Groups {
		var (
			g   observer.GroupView
			err error
		)
		switch gc.GetKind() {
		case KindFibreOptic:
			g, err = gc.buildFibreOpticGroup()
		default:
			g, err = gc.buildLineOfSightGroup()
		}
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gc.Name, err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (gc *GroupConfig) buildLineOfSightGroup() (*observer.LineOfSightGroup, error) {
	g := observer.NewLineOfSightGroup(gc.Name)
	for _, sc := range gc.Sensors {
		sl, err := observer.NewSightLine(sc.origin(), sc.direction(), sc.Name)
		if err != nil {
			return nil, err
		}
		g.Add(sl)
	}
	if err := gc.applyCommon(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (gc *GroupConfig) buildFibreOpticGroup() (*observer.FibreOpticGroup, error) {
	g := observer.NewFibreOpticGroup(gc.Name)
	for _, sc := range gc.Sensors {
		fo, err := observer.NewFibreOptic(sc.origin(), sc.direction(), sc.Name)
		if err != nil {
			return nil, err
		}
		if sc.AcceptanceAngle != nil {
			if err := fo.SetAcceptanceAngle(*sc.AcceptanceAngle); err != nil {
				return nil, err
			}
		}
		if sc.TipRadius != nil {
			if err := fo.SetTipRadius(*sc.TipRadius); err != nil {
				return nil, err
			}
		}
		g.Add(fo)
	}
	if gc.AcceptanceAngle != nil {
		if err := g.SetAcceptanceAngle(*gc.AcceptanceAngle); err != nil {
			return nil, err
		}
	}
	if gc.TipRadius != nil {
		if err := g.SetTipRadius(*gc.TipRadius); err != nil {
			return nil, err
		}
	}
	if err := gc.applyCommon(g); err != nil {
		return nil, err
	}
	return g, nil
}

// groupSettings is the broadcast surface shared by both group kinds.
type groupSettings interface {
	ConnectPipelines([]pipeline.Spec) error
	SetMinWavelength(float64) error
	SetMaxWavelength(float64) error
	SetSpectralBins(int) error
	SetPixelSamples(int) error
	SetSamplesPerTask(int) error
}

func (gc *GroupConfig) applyCommon(g groupSettings) error {
	specs, err := gc.pipelineSpecs()
	if err != nil {
		return err
	}
	if specs != nil {
		if err := g.ConnectPipelines(specs); err != nil {
			return err
		}
	}
	// The wavelength setters validate each bound against the current other
	// bound, so a band lying entirely above the default range must widen the
	// upper bound first.
	if gc.MinWavelength != nil && *gc.MinWavelength >= observer.DefaultMaxWavelength {
		if gc.MaxWavelength != nil {
			if err := g.SetMaxWavelength(*gc.MaxWavelength); err != nil {
				return err
			}
		}
		if err := g.SetMinWavelength(*gc.MinWavelength); err != nil {
			return err
		}
	} else {
		if gc.MinWavelength != nil {
			if err := g.SetMinWavelength(*gc.MinWavelength); err != nil {
				return err
			}
		}
		if gc.MaxWavelength != nil {
			if err := g.SetMaxWavelength(*gc.MaxWavelength); err != nil {
				return err
			}
		}
	}
	if gc.SpectralBins != nil {
		if err := g.SetSpectralBins(*gc.SpectralBins); err != nil {
			return err
		}
	}
	if gc.PixelSamples != nil {
		if err := g.SetPixelSamples(*gc.PixelSamples); err != nil {
			return err
		}
	}
	if gc.SamplesPerTask != nil {
		if err := g.SetSamplesPerTask(*gc.SamplesPerTask); err != nil {
			return err
		}
	}
	return nil
}

func (sc *SensorConfig) origin() geometry.Point3D {
	return geometry.Point3D{X: sc.Origin[0], Y: sc.Origin[1], Z: sc.Origin[2]}
}

func (sc *SensorConfig) direction() geometry.Vector3D {
	return geometry.Vector3D{X: sc.Direction[0], Y: sc.Direction[1], Z: sc.Direction[2]}
}
