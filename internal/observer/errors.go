package observer

import (
	"fmt"

	"github.com/plasmadiag/sightline/internal/pipeline"
)

// LengthMismatchError reports a per-member value list whose length does not
// match the group size.
type LengthMismatchError struct {
	Property string
	Got      int
	Want     int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("the length of %q (%d) mismatches the number of sight-lines (%d)", e.Property, e.Got, e.Want)
}

// TypeMismatchError reports a value that violates a property's constraint,
// for the few constraints Go's static types cannot carry (nil engines,
// null directions).
type TypeMismatchError struct {
	Property string
	Reason   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Property, e.Reason)
}

// EmptyAggregateError reports that no sensor in a group carries a pipeline
// matching the requested identity.
type EmptyAggregateError struct {
	Group string
	Item  any
}

func (e *EmptyAggregateError) Error() string {
	return fmt.Sprintf("pipeline %v was not found for any sight-line in group %q", e.Item, e.Group)
}

// KindConflictError reports that same-identity pipelines across a group's
// sensors do not share one variant.
type KindConflictError struct {
	Group string
	Item  any
	Kinds []pipeline.Kind
}

func (e *KindConflictError) Error() string {
	return fmt.Sprintf("pipelines %v have different variants across sight-lines in group %q: %v", e.Item, e.Group, e.Kinds)
}
