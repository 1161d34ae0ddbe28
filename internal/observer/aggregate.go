package observer

import (
	"errors"
	"fmt"

	"github.com/plasmadiag/sightline/internal/lookup"
	"github.com/plasmadiag/sightline/internal/pipeline"
)

// Aggregate is the result of collecting same-identity pipelines across a
// group: the matched pipelines, their owning sensors and each sensor's
// position in the group, all in group order and all the same length.
type Aggregate struct {
	Item      any
	Kind      pipeline.Kind
	Pipelines []*pipeline.Pipeline
	Sensors   []Observer
	Indices   []int
}

// SamePipelines collects the pipeline identified by item from every member
// that has one. Members where the lookup finds nothing are skipped, not
// failed, so a partially configured group still reports what it can. Use
// SamePipelinesStrict when a silently skipped sensor would mask a
// misconfiguration.
//
// An empty result returns EmptyAggregateError. Matched pipelines must all
// share one variant; mixed variants return KindConflictError.
func (g *Group[T]) SamePipelines(item any) (*Aggregate, error) {
	return g.samePipelines(item, false)
}

// SamePipelinesStrict is SamePipelines with the skip policy disabled: every
// member must carry a matching pipeline.
func (g *Group[T]) SamePipelinesStrict(item any) (*Aggregate, error) {
	return g.samePipelines(item, true)
}

func (g *Group[T]) samePipelines(item any, strict bool) (*Aggregate, error) {
	agg := &Aggregate{Item: item}
	for i, m := range g.members {
		p, err := m.Pipeline(item)
		if err != nil {
			var notFound *lookup.NotFoundError
			if errors.As(err, &notFound) {
				if strict {
					return nil, fmt.Errorf("sight-line %q: %w", m.Name(), err)
				}
				continue
			}
			return nil, err
		}
		agg.Pipelines = append(agg.Pipelines, p)
		agg.Sensors = append(agg.Sensors, m)
		agg.Indices = append(agg.Indices, i)
	}

	if len(agg.Pipelines) == 0 {
		return nil, &EmptyAggregateError{Group: g.Name(), Item: item}
	}

	agg.Kind = agg.Pipelines[0].Kind()
	var kinds []pipeline.Kind
	for _, p := range agg.Pipelines {
		if !containsKind(kinds, p.Kind()) {
			kinds = append(kinds, p.Kind())
		}
	}
	if len(kinds) > 1 {
		return nil, &KindConflictError{Group: g.Name(), Item: item, Kinds: kinds}
	}
	return agg, nil
}

func containsKind(kinds []pipeline.Kind, k pipeline.Kind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}

// SharedName returns the pipeline name shared by every matched pipeline, or
// false when names differ or the shared name is empty. Reporting uses it to
// title charts requested by positional index.
func (a *Aggregate) SharedName() (string, bool) {
	if len(a.Pipelines) == 0 {
		return "", false
	}
	name := a.Pipelines[0].Name
	for _, p := range a.Pipelines[1:] {
		if p.Name != name {
			return "", false
		}
	}
	if name == "" {
		return "", false
	}
	return name, true
}

// SensorLabels returns one label per matched sensor: the sensor name when it
// is non-empty, else its positional index within the group.
func (a *Aggregate) SensorLabels() []string {
	labels := make([]string, len(a.Sensors))
	for i, s := range a.Sensors {
		if s.Name() != "" {
			labels[i] = s.Name()
		} else {
			labels[i] = fmt.Sprintf("%d", a.Indices[i])
		}
	}
	return labels
}
