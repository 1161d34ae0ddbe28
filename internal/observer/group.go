package observer

import (
	"context"
	"fmt"

	"github.com/plasmadiag/sightline/internal/engine"
	"github.com/plasmadiag/sightline/internal/geometry"
	"github.com/plasmadiag/sightline/internal/lookup"
	"github.com/plasmadiag/sightline/internal/pipeline"
	"github.com/plasmadiag/sightline/internal/scenegraph"
)

// Group is an ordered, fixed-membership collection of sensors of one kind
// sharing a placement parent. Every configurable sensor property can be set
// in bulk: once for the whole group, or per member with strict arity
// checking. Membership only changes through SetSightLines and Add; the
// broadcast setters never resize the group.
type Group[T Observer] struct {
	node    *scenegraph.Node
	members []T
}

func newGroup[T Observer](name string) Group[T] {
	return Group[T]{node: scenegraph.NewNode(name)}
}

// Name returns the group name.
func (g *Group[T]) Name() string { return g.node.Name() }

// SetName renames the group.
func (g *Group[T]) SetName(name string) { g.node.SetName(name) }

// Node returns the group's placement node, the parent of every member.
func (g *Group[T]) Node() *scenegraph.Node { return g.node }

// Len returns the number of member sensors.
func (g *Group[T]) Len() int { return len(g.members) }

// SightLines returns the ordered member list.
func (g *Group[T]) SightLines() []T {
	out := make([]T, len(g.members))
	copy(out, g.members)
	return out
}

// SetSightLines replaces the group membership. Each sensor is reparented
// under the group node; ownership transfers to the group.
func (g *Group[T]) SetSightLines(members []T) {
	g.members = make([]T, len(members))
	copy(g.members, members)
	for _, m := range g.members {
		m.Node().SetParent(g.node)
	}
}

// Add appends one sensor to the group and reparents it under the group node.
func (g *Group[T]) Add(m T) {
	m.Node().SetParent(g.node)
	g.members = append(g.members, m)
}

// Observers returns the members as the shared Observer capability, for
// callers that do not care about the sensor kind.
func (g *Group[T]) Observers() []Observer {
	out := make([]Observer, len(g.members))
	for i, m := range g.members {
		out[i] = m
	}
	return out
}

// SightLine resolves a member by positional index or unique name.
func (g *Group[T]) SightLine(item any) (T, error) {
	return lookup.Resolve(g.members, item, "sight-line", func(m T) string { return m.Name() })
}

// Observe triggers each member's observation in group order. The first
// failure stops the run.
func (g *Group[T]) Observe(ctx context.Context) error {
	for _, m := range g.members {
		if err := m.Observe(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ConnectPipelines attaches pipelines built from specs to every member. Each
// member gets its own pipeline instances; previous pipelines are discarded.
func (g *Group[T]) ConnectPipelines(specs []pipeline.Spec) error {
	for _, m := range g.members {
		if err := m.ConnectPipelines(specs); err != nil {
			return err
		}
	}
	return nil
}

// Pipelines returns each member's pipeline list, in group order.
func (g *Group[T]) Pipelines() [][]*pipeline.Pipeline {
	return getEach(g, func(m T) []*pipeline.Pipeline { return m.Pipelines() })
}

// getEach collects one property value from every member, in group order.
func getEach[T Observer, V any](g *Group[T], get func(T) V) []V {
	out := make([]V, len(g.members))
	for i, m := range g.members {
		out[i] = get(m)
	}
	return out
}

// setAll applies one shared value to every member.
func setAll[T Observer, V any](g *Group[T], set func(T, V) error, v V) error {
	for _, m := range g.members {
		if err := set(m, v); err != nil {
			return err
		}
	}
	return nil
}

// setEach applies values[i] to member i, requiring exactly one value per
// member.
func setEach[T Observer, V any](g *Group[T], property string, set func(T, V) error, values []V) error {
	if len(values) != len(g.members) {
		return &LengthMismatchError{Property: property, Got: len(values), Want: len(g.members)}
	}
	for i, m := range g.members {
		if err := set(m, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Names returns each member's name.
func (g *Group[T]) Names() []string {
	return getEach(g, func(m T) string { return m.Name() })
}

// SetNames assigns one name per member. Names have no shared-scalar form.
func (g *Group[T]) SetNames(names []string) error {
	return setEach(g, "names", func(m T, v string) error { m.SetName(v); return nil }, names)
}

// Origins returns each member's origin point.
func (g *Group[T]) Origins() []geometry.Point3D {
	return getEach(g, func(m T) geometry.Point3D { return m.Origin() })
}

// SetOrigin moves every member to the same origin.
func (g *Group[T]) SetOrigin(p geometry.Point3D) error {
	return setAll(g, func(m T, v geometry.Point3D) error { return m.SetOrigin(v) }, p)
}

// SetOrigins assigns one origin per member.
func (g *Group[T]) SetOrigins(ps []geometry.Point3D) error {
	return setEach(g, "origin", func(m T, v geometry.Point3D) error { return m.SetOrigin(v) }, ps)
}

// Directions returns each member's viewing direction.
func (g *Group[T]) Directions() []geometry.Vector3D {
	return getEach(g, func(m T) geometry.Vector3D { return m.Direction() })
}

// SetDirection points every member the same way.
func (g *Group[T]) SetDirection(v geometry.Vector3D) error {
	return setAll(g, func(m T, v geometry.Vector3D) error { return m.SetDirection(v) }, v)
}

// SetDirections assigns one viewing direction per member.
func (g *Group[T]) SetDirections(vs []geometry.Vector3D) error {
	return setEach(g, "direction", func(m T, v geometry.Vector3D) error { return m.SetDirection(v) }, vs)
}

// Engines returns each member's render engine.
func (g *Group[T]) Engines() []engine.Engine {
	return getEach(g, func(m T) engine.Engine { return m.Engine() })
}

// SetEngine assigns one shared engine instance to every member. Tuning a
// shared instance through any member affects all of them; that aliasing is
// the point of sharing.
func (g *Group[T]) SetEngine(e engine.Engine) error {
	return setAll(g, func(m T, v engine.Engine) error { return m.SetEngine(v) }, e)
}

// SetEngines assigns one engine per member. Distinct instances do not alias.
func (g *Group[T]) SetEngines(es []engine.Engine) error {
	return setEach(g, "render_engine", func(m T, v engine.Engine) error { return m.SetEngine(v) }, es)
}

// SetRadiometer assigns one shared radiometer to every member.
func (g *Group[T]) SetRadiometer(r Radiometer) {
	for _, m := range g.members {
		m.SetRadiometer(r)
	}
}

// DisplayProgress returns each member's per-pipeline progress flags.
func (g *Group[T]) DisplayProgress() [][]bool {
	return getEach(g, func(m T) []bool { return m.DisplayProgress() })
}

// SetDisplayProgress toggles progress display on every member.
func (g *Group[T]) SetDisplayProgress(v bool) {
	for _, m := range g.members {
		m.SetDisplayProgress(v)
	}
}

// SetDisplayProgressEach toggles progress display per member.
func (g *Group[T]) SetDisplayProgressEach(vs []bool) error {
	return setEach(g, "display_progress", func(m T, v bool) error { m.SetDisplayProgress(v); return nil }, vs)
}

// Accumulate returns each member's per-pipeline accumulation flags.
func (g *Group[T]) Accumulate() [][]bool {
	return getEach(g, func(m T) []bool { return m.Accumulate() })
}

// SetAccumulate toggles accumulation on every member.
func (g *Group[T]) SetAccumulate(v bool) {
	for _, m := range g.members {
		m.SetAccumulate(v)
	}
}

// SetAccumulateEach toggles accumulation per member.
func (g *Group[T]) SetAccumulateEach(vs []bool) error {
	return setEach(g, "accumulate", func(m T, v bool) error { m.SetAccumulate(v); return nil }, vs)
}

// MinWavelengths returns each member's lower wavelength bound.
func (g *Group[T]) MinWavelengths() []float64 {
	return getEach(g, func(m T) float64 { return m.MinWavelength() })
}

// SetMinWavelength sets the lower wavelength bound on every member.
func (g *Group[T]) SetMinWavelength(v float64) error {
	return setAll(g, func(m T, v float64) error { return m.SetMinWavelength(v) }, v)
}

// SetMinWavelengths assigns one lower wavelength bound per member.
func (g *Group[T]) SetMinWavelengths(vs []float64) error {
	return setEach(g, "min_wavelength", func(m T, v float64) error { return m.SetMinWavelength(v) }, vs)
}

// MaxWavelengths returns each member's upper wavelength bound.
func (g *Group[T]) MaxWavelengths() []float64 {
	return getEach(g, func(m T) float64 { return m.MaxWavelength() })
}

// SetMaxWavelength sets the upper wavelength bound on every member.
func (g *Group[T]) SetMaxWavelength(v float64) error {
	return setAll(g, func(m T, v float64) error { return m.SetMaxWavelength(v) }, v)
}

// SetMaxWavelengths assigns one upper wavelength bound per member.
func (g *Group[T]) SetMaxWavelengths(vs []float64) error {
	return setEach(g, "max_wavelength", func(m T, v float64) error { return m.SetMaxWavelength(v) }, vs)
}

// SpectralBins returns each member's spectral bin count.
func (g *Group[T]) SpectralBins() []int {
	return getEach(g, func(m T) int { return m.SpectralBins() })
}

// SetSpectralBins sets the spectral bin count on every member.
func (g *Group[T]) SetSpectralBins(v int) error {
	return setAll(g, func(m T, v int) error { return m.SetSpectralBins(v) }, v)
}

// SetSpectralBinsEach assigns one spectral bin count per member.
func (g *Group[T]) SetSpectralBinsEach(vs []int) error {
	return setEach(g, "spectral_bins", func(m T, v int) error { return m.SetSpectralBins(v) }, vs)
}

// RayExtinctionProbs returns each member's ray extinction probability.
func (g *Group[T]) RayExtinctionProbs() []float64 {
	return getEach(g, func(m T) float64 { return m.RayExtinctionProb() })
}

// SetRayExtinctionProb sets the ray extinction probability on every member.
func (g *Group[T]) SetRayExtinctionProb(v float64) error {
	return setAll(g, func(m T, v float64) error { return m.SetRayExtinctionProb(v) }, v)
}

// SetRayExtinctionProbs assigns one ray extinction probability per member.
func (g *Group[T]) SetRayExtinctionProbs(vs []float64) error {
	return setEach(g, "ray_extinction_prob", func(m T, v float64) error { return m.SetRayExtinctionProb(v) }, vs)
}

// RayExtinctionMinDepths returns each member's extinction minimum depth.
func (g *Group[T]) RayExtinctionMinDepths() []int {
	return getEach(g, func(m T) int { return m.RayExtinctionMinDepth() })
}

// SetRayExtinctionMinDepth sets the extinction minimum depth on every member.
func (g *Group[T]) SetRayExtinctionMinDepth(v int) error {
	return setAll(g, func(m T, v int) error { return m.SetRayExtinctionMinDepth(v) }, v)
}

// SetRayExtinctionMinDepths assigns one extinction minimum depth per member.
func (g *Group[T]) SetRayExtinctionMinDepths(vs []int) error {
	return setEach(g, "ray_extinction_min_depth", func(m T, v int) error { return m.SetRayExtinctionMinDepth(v) }, vs)
}

// RayMaxDepths returns each member's maximum path depth.
func (g *Group[T]) RayMaxDepths() []int {
	return getEach(g, func(m T) int { return m.RayMaxDepth() })
}

// SetRayMaxDepth sets the maximum path depth on every member.
func (g *Group[T]) SetRayMaxDepth(v int) error {
	return setAll(g, func(m T, v int) error { return m.SetRayMaxDepth(v) }, v)
}

// SetRayMaxDepths assigns one maximum path depth per member.
func (g *Group[T]) SetRayMaxDepths(vs []int) error {
	return setEach(g, "ray_max_depth", func(m T, v int) error { return m.SetRayMaxDepth(v) }, vs)
}

// RayImportantPathWeights returns each member's important path weight.
func (g *Group[T]) RayImportantPathWeights() []float64 {
	return getEach(g, func(m T) float64 { return m.RayImportantPathWeight() })
}

// SetRayImportantPathWeight sets the important path weight on every member.
func (g *Group[T]) SetRayImportantPathWeight(v float64) error {
	return setAll(g, func(m T, v float64) error { return m.SetRayImportantPathWeight(v) }, v)
}

// SetRayImportantPathWeights assigns one important path weight per member.
func (g *Group[T]) SetRayImportantPathWeights(vs []float64) error {
	return setEach(g, "ray_important_path_weight", func(m T, v float64) error { return m.SetRayImportantPathWeight(v) }, vs)
}

// PixelSamples returns each member's per-pixel sample count.
func (g *Group[T]) PixelSamples() []int {
	return getEach(g, func(m T) int { return m.PixelSamples() })
}

// SetPixelSamples sets the per-pixel sample count on every member.
func (g *Group[T]) SetPixelSamples(v int) error {
	return setAll(g, func(m T, v int) error { return m.SetPixelSamples(v) }, v)
}

// SetPixelSamplesEach assigns one per-pixel sample count per member.
func (g *Group[T]) SetPixelSamplesEach(vs []int) error {
	return setEach(g, "pixel_samples", func(m T, v int) error { return m.SetPixelSamples(v) }, vs)
}

// SamplesPerTask returns each member's samples-per-task setting.
func (g *Group[T]) SamplesPerTask() []int {
	return getEach(g, func(m T) int { return m.SamplesPerTask() })
}

// SetSamplesPerTask sets the samples-per-task setting on every member.
func (g *Group[T]) SetSamplesPerTask(v int) error {
	return setAll(g, func(m T, v int) error { return m.SetSamplesPerTask(v) }, v)
}

// SetSamplesPerTaskEach assigns one samples-per-task setting per member.
func (g *Group[T]) SetSamplesPerTaskEach(vs []int) error {
	return setEach(g, "samples_per_task", func(m T, v int) error { return m.SetSamplesPerTask(v) }, vs)
}

// LineOfSightGroup is a group of pencil-beam sight lines.
type LineOfSightGroup struct {
	Group[*SightLine]
}

// NewLineOfSightGroup creates an empty sight-line group.
func NewLineOfSightGroup(name string) *LineOfSightGroup {
	return &LineOfSightGroup{Group: newGroup[*SightLine](name)}
}

// FibreOpticGroup is a group of fibre optic sensors, adding the fibre
// geometry broadcasts to the shared set.
type FibreOpticGroup struct {
	Group[*FibreOptic]
}

// NewFibreOpticGroup creates an empty fibre optic group.
func NewFibreOpticGroup(name string) *FibreOpticGroup {
	return &FibreOpticGroup{Group: newGroup[*FibreOptic](name)}
}

// AcceptanceAngles returns each fibre's cone half-angle in degrees.
func (g *FibreOpticGroup) AcceptanceAngles() []float64 {
	return getEach(&g.Group, (*FibreOptic).AcceptanceAngle)
}

// SetAcceptanceAngle sets the cone half-angle on every fibre.
func (g *FibreOpticGroup) SetAcceptanceAngle(v float64) error {
	return setAll(&g.Group, (*FibreOptic).SetAcceptanceAngle, v)
}

// SetAcceptanceAngles assigns one cone half-angle per fibre.
func (g *FibreOpticGroup) SetAcceptanceAngles(vs []float64) error {
	return setEach(&g.Group, "acceptance_angle", (*FibreOptic).SetAcceptanceAngle, vs)
}

// TipRadii returns each fibre's tip radius in metres.
func (g *FibreOpticGroup) TipRadii() []float64 {
	return getEach(&g.Group, (*FibreOptic).TipRadius)
}

// SetTipRadius sets the tip radius on every fibre.
func (g *FibreOpticGroup) SetTipRadius(v float64) error {
	return setAll(&g.Group, (*FibreOptic).SetTipRadius, v)
}

// SetTipRadii assigns one tip radius per fibre.
func (g *FibreOpticGroup) SetTipRadii(vs []float64) error {
	return setEach(&g.Group, "radius", (*FibreOptic).SetTipRadius, vs)
}

// GroupView is the kind-independent view of a group that the reporting,
// storage and monitoring layers consume.
type GroupView interface {
	Name() string
	Len() int
	Observers() []Observer
	SamePipelines(item any) (*Aggregate, error)
	Observe(ctx context.Context) error
}

var (
	_ GroupView = (*LineOfSightGroup)(nil)
	_ GroupView = (*FibreOpticGroup)(nil)
)

// interface conformance for the sensor kinds.
var (
	_ Observer = (*SightLine)(nil)
	_ Observer = (*FibreOptic)(nil)
)

// String summarises the group for logs.
func (g *Group[T]) String() string {
	return fmt.Sprintf("group %q (%d sight-lines)", g.Name(), len(g.members))
}
