package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmadiag/sightline/internal/observer"
)

const layoutJSON = `{
  "groups": [
    {
      "name": "midplane array",
      "pipelines": [
        {"kind": "spectral_radiance", "name": "full"},
        {"kind": "power", "name": "mono"}
      ],
      "min_wavelength": 400,
      "max_wavelength": 700,
      "spectral_bins": 50,
      "pixel_samples": 200,
      "sensors": [
        {"name": "ch1", "origin": [1, 0, 0], "direction": [-1, 0, 0]},
        {"name": "ch2", "origin": [1, 0, 0.1], "direction": [-1, 0, 0]}
      ]
    },
    {
      "name": "divertor fibres",
      "kind": "fibre_optic",
      "acceptance_angle": 10,
      "sensors": [
        {"name": "f1", "origin": [0, 0, 2], "direction": [0, 0, -1], "tip_radius": 0.002},
        {"name": "f2", "origin": [0, 0.1, 2], "direction": [0, 0, -1]}
      ]
    }
  ]
}`

func TestParseAndBuild(t *testing.T) {
	cfg, err := Parse([]byte(layoutJSON))
	require.NoError(t, err)
	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, KindSightLine, cfg.Groups[0].GetKind())
	assert.Equal(t, KindFibreOptic, cfg.Groups[1].GetKind())

	groups, err := cfg.Build()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	los, ok := groups[0].(*observer.LineOfSightGroup)
	require.True(t, ok)
	assert.Equal(t, "midplane array", los.Name())
	assert.Equal(t, 2, los.Len())
	if diff := cmp.Diff([]float64{400, 400}, los.MinWavelengths()); diff != "" {
		t.Errorf("min wavelengths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{50, 50}, los.SpectralBins()); diff != "" {
		t.Errorf("spectral bins mismatch (-want +got):\n%s", diff)
	}

	// Declared pipelines are attached to every member.
	pipe, err := los.Observers()[0].Pipeline("mono")
	require.NoError(t, err)
	assert.Equal(t, "mono", pipe.Name)

	fibres, ok := groups[1].(*observer.FibreOpticGroup)
	require.True(t, ok)
	assert.Equal(t, 2, fibres.Len())
	// Group broadcast overrides the default, per-sensor settings survive it.
	if diff := cmp.Diff([]float64{10, 10}, fibres.AcceptanceAngles()); diff != "" {
		t.Errorf("acceptance angles mismatch (-want +got):\n%s", diff)
	}
	radii := fibres.TipRadii()
	require.Len(t, radii, 2)
	assert.InDelta(t, 0.002, radii[0], 1e-12)
	assert.InDelta(t, observer.DefaultTipRadius, radii[1], 1e-12)
}

func TestParseRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"no groups", `{"groups": []}`},
		{"unnamed group", `{"groups": [{"sensors": [{"direction": [1,0,0]}]}]}`},
		{"unknown kind", `{"groups": [{"name": "g", "kind": "bolometer", "sensors": [{"direction": [1,0,0]}]}]}`},
		{"no sensors", `{"groups": [{"name": "g", "sensors": []}]}`},
		{"zero direction", `{"groups": [{"name": "g", "sensors": [{"direction": [0,0,0]}]}]}`},
		{"inverted band", `{"groups": [{"name": "g", "min_wavelength": 700, "max_wavelength": 400, "sensors": [{"direction": [1,0,0]}]}]}`},
		{"bad pipeline kind", `{"groups": [{"name": "g", "pipelines": [{"kind": "camera"}], "sensors": [{"direction": [1,0,0]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestBuildBandAboveDefault(t *testing.T) {
	cfg, err := Parse([]byte(`{"groups": [{
		"name": "infrared",
		"min_wavelength": 800,
		"max_wavelength": 900,
		"sensors": [{"direction": [1,0,0]}]
	}]}`))
	require.NoError(t, err)

	groups, err := cfg.Build()
	require.NoError(t, err)
	los := groups[0].(*observer.LineOfSightGroup)
	assert.Equal(t, []float64{800}, los.MinWavelengths())
	assert.Equal(t, []float64{900}, los.MaxWavelengths())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instrument.json")
	require.NoError(t, os.WriteFile(path, []byte(layoutJSON), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Groups, 2)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	badExt := filepath.Join(dir, "instrument.yaml")
	require.NoError(t, os.WriteFile(badExt, []byte(layoutJSON), 0o644))
	_, err = Load(badExt)
	assert.ErrorContains(t, err, ".json extension")
}
