package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmadiag/sightline/internal/engine"
	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/lookup"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/spectrum"
)

// flatRadiometer reports a constant spectral density everywhere.
type flatRadiometer struct {
	level float64
	calls int
}

func (r *flatRadiometer) SampleSpectrum(_ geometry.Point3D, _ geometry.Vector3D, s *spectrum.Spectrum) error {
	r.calls++
	for i := range s.Samples {
		s.Samples[i] = r.level
	}
	return nil
}

func newTestSightLine(t *testing.T, name string) *SightLine {
	t.Helper()
	sl, err := NewSightLine(geometry.Point3D{}, geometry.Vector3D{X: 1}, name)
	require.NoError(t, err)
	return sl
}

func newTestGroup(t *testing.T, names ...string) *LineOfSightGroup {
	t.Helper()
	g := NewLineOfSightGroup("test group")
	members := make([]*SightLine, len(names))
	for i, name := range names {
		members[i] = newTestSightLine(t, name)
	}
	g.SetSightLines(members)
	return g
}

func TestNewSightLineDefaults(t *testing.T) {
	sl := newTestSightLine(t, "s")

	pipes := sl.Pipelines()
	require.Len(t, pipes, 1, "default pipeline attached")
	assert.Equal(t, pipeline.SpectralRadiance, pipes[0].Kind())
	assert.False(t, pipes[0].Accumulate)

	assert.Equal(t, DefaultMinWavelength, sl.MinWavelength())
	assert.Equal(t, DefaultMaxWavelength, sl.MaxWavelength())
	assert.Equal(t, DefaultPixelSamples, sl.PixelSamples())
	assert.NotNil(t, sl.Engine())
}

func TestSetOriginThenDirectionKeepsBoth(t *testing.T) {
	sl := newTestSightLine(t, "s")

	origin := geometry.Point3D{X: 1, Y: 2, Z: 3}
	direction := geometry.Vector3D{Y: 1}
	require.NoError(t, sl.SetOrigin(origin))
	require.NoError(t, sl.SetDirection(direction))

	assert.Equal(t, origin, sl.Origin())
	assert.Equal(t, direction, sl.Direction())

	// The transform must reflect both: local origin maps to the sensor
	// origin and local +Z maps to the viewing direction.
	tr := sl.Node().Transform()
	at := tr.ApplyPoint(geometry.Point3D{})
	assert.InDelta(t, origin.X, at.X, 1e-12)
	assert.InDelta(t, origin.Y, at.Y, 1e-12)
	assert.InDelta(t, origin.Z, at.Z, 1e-12)

	fwd := tr.ApplyVector(geometry.Vector3D{Z: 1})
	assert.InDelta(t, 0, fwd.X, 1e-12)
	assert.InDelta(t, 1, fwd.Y, 1e-12)
	assert.InDelta(t, 0, fwd.Z, 1e-12)

	// Reverse order keeps the direction too.
	sl2 := newTestSightLine(t, "s2")
	require.NoError(t, sl2.SetDirection(direction))
	require.NoError(t, sl2.SetOrigin(origin))
	assert.Equal(t, direction, sl2.Direction())
	assert.Equal(t, origin, sl2.Origin())
}

func TestSetDirectionRejectsNull(t *testing.T) {
	sl := newTestSightLine(t, "s")
	err := sl.SetDirection(geometry.Vector3D{})
	var tm *TypeMismatchError
	assert.ErrorAs(t, err, &tm)
}

func TestConnectPipelinesReplacesWholesale(t *testing.T) {
	sl := newTestSightLine(t, "s")
	old := sl.Pipelines()[0]

	specs := []pipeline.Spec{
		{Kind: pipeline.SpectralPower, Name: "Halpha"},
		{Kind: pipeline.Power, Name: "total", Filter: func(float64) float64 { return 1 }},
	}
	require.NoError(t, sl.ConnectPipelines(specs))

	pipes := sl.Pipelines()
	require.Len(t, pipes, 2)
	assert.Equal(t, pipeline.SpectralPower, pipes[0].Kind())
	assert.Equal(t, pipeline.Power, pipes[1].Kind())
	assert.NotContains(t, pipes, old, "old pipelines discarded, not merged")
}

func TestPipelineLookup(t *testing.T) {
	sl := newTestSightLine(t, "s")
	require.NoError(t, sl.ConnectPipelines([]pipeline.Spec{
		{Kind: pipeline.SpectralPower, Name: "Halpha"},
	}))

	p, err := sl.Pipeline("Halpha")
	require.NoError(t, err)
	assert.Equal(t, "Halpha", p.Name)

	_, err = sl.Pipeline("Hbeta")
	var nf *lookup.NotFoundError
	assert.ErrorAs(t, err, &nf)

	p, err = sl.Pipeline(0)
	require.NoError(t, err)
	assert.Equal(t, "Halpha", p.Name)

	_, err = sl.Pipeline(1)
	assert.ErrorAs(t, err, &nf)

	_, err = sl.Pipeline(3.14)
	var kt *lookup.KeyTypeError
	assert.ErrorAs(t, err, &kt)
}

func TestGroupMembershipAndOwnership(t *testing.T) {
	g := newTestGroup(t, "a", "b")
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a", "b"}, g.Names())

	for _, m := range g.SightLines() {
		assert.Same(t, g.Node(), m.Node().Parent(), "membership transfers placement parent")
	}

	c := newTestSightLine(t, "c")
	g.Add(c)
	assert.Equal(t, 3, g.Len())
	assert.Same(t, g.Node(), c.Node().Parent())
}

func TestGroupSightLineLookup(t *testing.T) {
	g := newTestGroup(t, "north", "south", "south")

	m, err := g.SightLine("north")
	require.NoError(t, err)
	assert.Equal(t, "north", m.Name())

	m, err = g.SightLine(1)
	require.NoError(t, err)
	assert.Equal(t, "south", m.Name())

	_, err = g.SightLine("south")
	var amb *lookup.AmbiguousError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, 2, amb.Count)

	_, err = g.SightLine("east")
	var nf *lookup.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = g.SightLine(7)
	assert.ErrorAs(t, err, &nf)
}

func TestBroadcastScalar(t *testing.T) {
	g := newTestGroup(t, "a", "b", "c")

	require.NoError(t, g.SetPixelSamples(500))
	assert.Equal(t, []int{500, 500, 500}, g.PixelSamples())

	require.NoError(t, g.SetMinWavelength(400))
	require.NoError(t, g.SetMaxWavelength(700))
	assert.Equal(t, []float64{400, 400, 400}, g.MinWavelengths())
	assert.Equal(t, []float64{700, 700, 700}, g.MaxWavelengths())
}

func TestBroadcastPerMember(t *testing.T) {
	g := newTestGroup(t, "a", "b")

	require.NoError(t, g.SetPixelSamplesEach([]int{100, 200}))
	assert.Equal(t, []int{100, 200}, g.PixelSamples())
}

func TestBroadcastLengthMismatch(t *testing.T) {
	g := newTestGroup(t, "a", "b")

	err := g.SetPixelSamplesEach([]int{100, 200, 300})
	var lm *LengthMismatchError
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, 3, lm.Got)
	assert.Equal(t, 2, lm.Want)
	assert.Equal(t, "pixel_samples", lm.Property)

	err = g.SetSpectralBinsEach([]int{10})
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, 1, lm.Got)

	// A failed per-member set must not have resized the group.
	assert.Equal(t, 2, g.Len())
}

func TestBroadcastEngine(t *testing.T) {
	g := newTestGroup(t, "a", "b")

	err := g.SetEngine(nil)
	var tm *TypeMismatchError
	require.ErrorAs(t, err, &tm)

	shared := engine.NewSerial()
	require.NoError(t, g.SetEngine(shared))
	engines := g.Engines()
	assert.Same(t, shared, engines[0])
	assert.Same(t, shared, engines[1])

	// Shared instance aliasing: tuning through one member is seen by all.
	engines[0].(*engine.Serial).SetTasksPerUpdate(8)
	assert.Equal(t, 8, engines[1].(*engine.Serial).TasksPerUpdate)

	// Distinct instances do not alias.
	require.NoError(t, g.SetEngines([]engine.Engine{engine.NewSerial(), engine.NewSerial()}))
	engines = g.Engines()
	engines[0].(*engine.Serial).SetTasksPerUpdate(3)
	assert.Equal(t, 0, engines[1].(*engine.Serial).TasksPerUpdate)
}

func TestBroadcastAccumulateAndProgress(t *testing.T) {
	g := newTestGroup(t, "a", "b")
	require.NoError(t, g.ConnectPipelines([]pipeline.Spec{
		{Kind: pipeline.SpectralPower, Name: "sp"},
		{Kind: pipeline.Radiance, Name: "r"},
	}))

	g.SetAccumulate(true)
	for _, flags := range g.Accumulate() {
		assert.Equal(t, []bool{true, false}, flags, "radiance variant has no accumulate flag")
	}

	g.SetDisplayProgress(true)
	for _, flags := range g.DisplayProgress() {
		assert.Equal(t, []bool{true, false}, flags, "only spectral power reports progress")
	}
}

func TestGroupObserve(t *testing.T) {
	g := newTestGroup(t, "a", "b")
	rad := &flatRadiometer{level: 2}
	g.SetRadiometer(rad)
	require.NoError(t, g.SetPixelSamples(4))
	require.NoError(t, g.SetSpectralBins(10))
	require.NoError(t, g.SetMinWavelength(400))
	require.NoError(t, g.SetMaxWavelength(500))

	require.NoError(t, g.Observe(context.Background()))
	assert.Equal(t, 8, rad.calls, "4 samples for each of 2 sensors")

	for _, m := range g.SightLines() {
		mean := m.Pipelines()[0].MeanSpectrum()
		require.NotNil(t, mean)
		// Flat 2 W/.../nm over 100 nm integrates to 200.
		assert.InDelta(t, 200, mean.Total(), 1e-9)
	}
}

func TestObserveScalarFilter(t *testing.T) {
	sl := newTestSightLine(t, "s")
	require.NoError(t, sl.SetMinWavelength(400))
	require.NoError(t, sl.SetMaxWavelength(500))
	require.NoError(t, sl.SetSpectralBins(10))
	require.NoError(t, sl.SetPixelSamples(2))
	sl.SetRadiometer(&flatRadiometer{level: 1})

	require.NoError(t, sl.ConnectPipelines([]pipeline.Spec{
		{Kind: pipeline.Power, Name: "unfiltered"},
		{Kind: pipeline.Power, Name: "halved", Filter: func(float64) float64 { return 0.5 }},
	}))

	require.NoError(t, sl.Observe(context.Background()))

	unfiltered, err := sl.Pipeline("unfiltered")
	require.NoError(t, err)
	assert.InDelta(t, 100, unfiltered.MeanValue(), 1e-9)

	halved, err := sl.Pipeline("halved")
	require.NoError(t, err)
	assert.InDelta(t, 50, halved.MeanValue(), 1e-9)
}

func TestObserveWithoutRadiometer(t *testing.T) {
	sl := newTestSightLine(t, "s")
	assert.Error(t, sl.Observe(context.Background()))
}

func TestFibreOpticGroupExtras(t *testing.T) {
	g := NewFibreOpticGroup("fibres")
	for i := 0; i < 2; i++ {
		f, err := NewFibreOptic(geometry.Point3D{}, geometry.Vector3D{X: 1}, "")
		require.NoError(t, err)
		g.Add(f)
	}

	require.NoError(t, g.SetAcceptanceAngle(10))
	assert.Equal(t, []float64{10, 10}, g.AcceptanceAngles())

	require.NoError(t, g.SetTipRadii([]float64{1e-3, 2e-3}))
	assert.Equal(t, []float64{1e-3, 2e-3}, g.TipRadii())

	err := g.SetAcceptanceAngles([]float64{5})
	var lm *LengthMismatchError
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, "acceptance_angle", lm.Property)

	assert.Error(t, g.SetAcceptanceAngle(120), "angle above 90 degrees")
	assert.Error(t, g.SetTipRadius(-1))
}
