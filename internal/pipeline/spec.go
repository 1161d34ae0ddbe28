package pipeline

// Spec declares one pipeline to attach: the variant, an optional name and an
// optional filter. Filters only apply to the scalar variants; a filter on a
// spectral entry is ignored.
type Spec struct {
	Kind   Kind
	Name   string
	Filter Filter
}

// DefaultSpecs returns the spec list used when an observer is connected with
// no explicit specs: a single unnamed, unfiltered spectral radiance pipeline.
// A fresh slice is returned on every call so callers can never share or
// mutate a common default.
func DefaultSpecs() []Spec {
	return []Spec{{Kind: SpectralRadiance}}
}

// Build constructs pipelines from specs, in order. The resulting list is
// intended to replace an observer's pipelines wholesale; there is no merging
// with previously attached pipelines. A nil or empty spec list builds the
// defaults.
func Build(specs []Spec) ([]*Pipeline, error) {
	if len(specs) == 0 {
		specs = DefaultSpecs()
	}
	out := make([]*Pipeline, 0, len(specs))
	for _, s := range specs {
		p, err := New(s.Kind, s.Name, s.Filter)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
