package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/observer"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/testutil"
)

func observedGroup(t *testing.T, bins int, specs ...pipeline.Spec) *observer.LineOfSightGroup {
	t.Helper()
	return testutil.ObservedGroup(t, "divertor view", []string{"inner", "outer"}, bins, 3, specs...)
}

func TestTotalSignalSpectral(t *testing.T) {
	g := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.SpectralRadiance, Name: "Halpha"})

	p, err := TotalSignal(g, "Halpha", nil)
	require.NoError(t, err)
	assert.Equal(t, "divertor view: Halpha", p.Title.Text)
	assert.Equal(t, "Line of sight", p.X.Label.Text)
	assert.Equal(t, "Radiance (W/m^2/str)", p.Y.Label.Text)
}

func TestTotalSignalTitleByIndex(t *testing.T) {
	g := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.SpectralPower, Name: "Halpha"})

	// Shared non-empty name wins for positional requests.
	p, err := TotalSignal(g, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "divertor view: Halpha", p.Title.Text)
	assert.Equal(t, "Power (W)", p.Y.Label.Text)

	// Unnamed pipelines fall back to the generic label.
	g2 := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.SpectralPower})
	p, err = TotalSignal(g2, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "divertor view: pipeline 0", p.Title.Text)
}

func TestTotalSignalKindConflict(t *testing.T) {
	g := observer.NewLineOfSightGroup("mixed")
	a, err := observer.NewSightLine(geometry.Point3D{}, geometry.Vector3D{X: 1}, "a")
	require.NoError(t, err)
	b, err := observer.NewSightLine(geometry.Point3D{}, geometry.Vector3D{X: 1}, "b")
	require.NoError(t, err)
	require.NoError(t, a.ConnectPipelines([]pipeline.Spec{{Kind: pipeline.SpectralRadiance}}))
	require.NoError(t, b.ConnectPipelines([]pipeline.Spec{{Kind: pipeline.SpectralPower}}))
	g.SetSightLines([]*observer.SightLine{a, b})

	_, err = TotalSignal(g, 0, nil)
	var conflict *observer.KindConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestTotalSignalValues(t *testing.T) {
	g := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.SpectralRadiance, Name: "X"})

	agg, err := g.SamePipelines("X")
	require.NoError(t, err)
	values := SignalValues(agg)
	require.Len(t, values, 2)
	// Flat 3 over 100 nm integrates to 300 per sensor.
	assert.InDelta(t, 300, values[0], 1e-9)
	assert.InDelta(t, 300, values[1], 1e-9)
}

func TestSpectraDrawsLines(t *testing.T) {
	g := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.SpectralRadiance, Name: "X"})

	p, err := Spectra(g, "X", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "divertor view: X", p.Title.Text)
	assert.Equal(t, "Wavelength (nm)", p.X.Label.Text)
	assert.Equal(t, "Spectral radiance (W/m^2/str/nm)", p.Y.Label.Text)

	// Photon units change the axis label and scale the data.
	p, err = Spectra(g, "X", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "Spectral radiance (photon/s/m^2/str/nm)", p.Y.Label.Text)
}

func TestSpectraRejectsScalarVariant(t *testing.T) {
	g := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.Power, Name: "mono"})

	_, err := Spectra(g, "mono", false, nil)
	var uv *pipeline.UnsupportedVariantError
	assert.ErrorAs(t, err, &uv)
}

func TestSpectraOntoExistingPlot(t *testing.T) {
	g := observedGroup(t, 10, pipeline.Spec{Kind: pipeline.SpectralRadiance, Name: "X"})

	existing := plot.New()
	p, err := Spectra(g, "X", false, existing)
	require.NoError(t, err)
	assert.Same(t, existing, p, "existing plot is reused, not replaced")
}

func TestSpectrumPlotterStyle(t *testing.T) {
	single := plotter.XYs{{X: 656, Y: 1}}
	drawn, err := newSpectrumPlotter(single)
	require.NoError(t, err)
	assert.IsType(t, &plotter.Scatter{}, drawn, "single-bin spectrum renders as a marker")

	multi := plotter.XYs{{X: 400, Y: 1}, {X: 500, Y: 2}}
	drawn, err = newSpectrumPlotter(multi)
	require.NoError(t, err)
	assert.IsType(t, &plotter.Line{}, drawn)
}

func TestSpectrumPlotSingleSensor(t *testing.T) {
	g := observedGroup(t, 1, pipeline.Spec{Kind: pipeline.SpectralPower, Name: "narrow"})
	sensor := g.Observers()[0]

	p, err := SpectrumPlot(sensor, "narrow", false, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "inner: narrow", p.Title.Text)
	assert.Equal(t, "Spectral power (W/nm)", p.Y.Label.Text)
}

func TestSpectrumPlotUnobserved(t *testing.T) {
	sl, err := observer.NewSightLine(geometry.Point3D{}, geometry.Vector3D{X: 1}, "s")
	require.NoError(t, err)

	_, err = SpectrumPlot(sl, 0, false, true, nil)
	assert.Error(t, err, "no observed spectrum yet")
}
