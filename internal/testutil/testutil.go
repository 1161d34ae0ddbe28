// Package testutil provides shared test fixtures for the observation
// packages: a deterministic radiometer and a pre-observed group, so tests can
// assert on exact signal values without a ray tracer.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/spectrum"
)

// FlatRadiometer reports a constant spectral density along every ray, so a
// spectrum observed over W nanometres integrates to exactly Level*W.
type FlatRadiometer struct {
	Level float64
}

// SampleSpectrum fills every bin with the configured level.
func (r *FlatRadiometer) SampleSpectrum(_ geometry.Point3D, _ geometry.Vector3D, s *spectrum.Spectrum) error {
	for i := range s.Samples {
		s.Samples[i] = r.Level
	}
	return nil
}

// ObservedGroup builds a line-of-sight group over the 400-500 nm band, wires
// a FlatRadiometer at the given level and runs one observation with two
// samples per sensor. Passing no specs leaves the default pipeline attached.
func ObservedGroup(t *testing.T, name string, sensors []string, bins int, level float64, specs ...pipeline.Spec) *observer.LineOfSightGroup {
	t.Helper()

	g := observer.NewLineOfSightGroup(name)
	for _, sensorName := range sensors {
		sl, err := observer.NewSightLine(geometry.Point3D{}, geometry.Vector3D{X: 1}, sensorName)
		require.NoError(t, err)
		g.Add(sl)
	}
	if len(specs) > 0 {
		require.NoError(t, g.ConnectPipelines(specs))
	}
	require.NoError(t, g.SetMinWavelength(400))
	require.NoError(t, g.SetMaxWavelength(500))
	require.NoError(t, g.SetSpectralBins(bins))
	require.NoError(t, g.SetPixelSamples(2))
	g.SetRadiometer(&FlatRadiometer{Level: level})
	require.NoError(t, g.Observe(context.Background()))
	return g
}
