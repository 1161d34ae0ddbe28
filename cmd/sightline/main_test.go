package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmadiag/sightline/internal/config"
	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/spectrum"
)

func TestDemoLayoutBuilds(t *testing.T) {
	cfg, err := config.Parse([]byte(demoLayout))
	require.NoError(t, err)

	groups, err := cfg.Build()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "midplane array", groups[0].Name())
	assert.Equal(t, 3, groups[0].Len())
	assert.Equal(t, "divertor fibres", groups[1].Name())
	assert.Equal(t, 2, groups[1].Len())
}

func TestGaussianRadiometerPeaksAtCentre(t *testing.T) {
	r := &gaussianRadiometer{centreNm: 656.28, widthNm: 1.2, peak: 5, continuum: 0.05}

	s, err := spectrum.New(640, 670, 300)
	require.NoError(t, err)
	require.NoError(t, r.SampleSpectrum(geometry.Point3D{}, geometry.Vector3D{X: 1}, s))

	peakBin := 0
	for i, v := range s.Samples {
		if v > s.Samples[peakBin] {
			peakBin = i
		}
	}
	assert.InDelta(t, 656.28, s.Wavelengths()[peakBin], s.Delta())
	assert.InDelta(t, 5.05, s.Samples[peakBin], 0.05)
	// Far from the line only the continuum remains.
	assert.InDelta(t, 0.05, s.Samples[0], 1e-6)
}

func TestSanitise(t *testing.T) {
	assert.Equal(t, "midplane-array", sanitise("midplane array"))
	assert.Equal(t, "a-b_c-1", sanitise("a/b_c 1"))
}
