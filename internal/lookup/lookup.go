// Package lookup resolves an element of an ordered collection by positional
// index or by unique name. The same rules cover sensors within a group and
// pipelines within a sensor.
package lookup

import "fmt"

// NotFoundError reports an index outside the collection or a name matching no
// element.
type NotFoundError struct {
	Collection string
	Key        any
	Size       int
}

func (e *NotFoundError) Error() string {
	if idx, ok := e.Key.(int); ok {
		return fmt.Sprintf("%s %d not available in this collection with only %d elements", e.Collection, idx, e.Size)
	}
	return fmt.Sprintf("%s %q was not found in this collection", e.Collection, e.Key)
}

// AmbiguousError reports a name shared by more than one element.
type AmbiguousError struct {
	Collection string
	Name       string
	Count      int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("found %d %ss with name %q", e.Count, e.Collection, e.Name)
}

// KeyTypeError reports a lookup key that is neither an int nor a string.
type KeyTypeError struct {
	Collection string
	Key        any
}

func (e *KeyTypeError) Error() string {
	return fmt.Sprintf("%s key must be an int or a string, got %T", e.Collection, e.Key)
}

// Resolve returns the element of items selected by key. An int key selects by
// position; a string key selects the single element whose name matches.
// collection names the element kind in error messages ("pipeline",
// "sight-line"); name extracts an element's name.
func Resolve[T any](items []T, key any, collection string, name func(T) string) (T, error) {
	var zero T
	switch k := key.(type) {
	case int:
		if k < 0 || k >= len(items) {
			return zero, &NotFoundError{Collection: collection, Key: k, Size: len(items)}
		}
		return items[k], nil
	case string:
		var matches []T
		for _, item := range items {
			if name(item) == k {
				matches = append(matches, item)
			}
		}
		switch len(matches) {
		case 0:
			return zero, &NotFoundError{Collection: collection, Key: k, Size: len(items)}
		case 1:
			return matches[0], nil
		default:
			return zero, &AmbiguousError{Collection: collection, Name: k, Count: len(matches)}
		}
	default:
		return zero, &KeyTypeError{Collection: collection, Key: key}
	}
}
