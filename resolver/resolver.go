package resolver

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// ObjectResolver resolves symbolic references in PDF objects.
// It can recursively resolve references in dictionaries, arrays and streams
type ObjectResolver struct {
	source       ObjectSource
	visited      map[string]bool // Cycle detection
	maxDepth     int             // Maximum recursion depth
	currentDepth int             // Current recursion depth
}

// ObjectSource looks up top-level objects by id. *core.Document satisfies it.
type ObjectSource interface {
	Object(id string) (core.Object, bool)
}

// Option configures the resolver
type Option func(*ObjectResolver)

// WithMaxDepth sets the maximum recursion depth (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *ObjectResolver) {
		r.maxDepth = depth
	}
}

// NewResolver creates a new object resolver
func NewResolver(source ObjectSource, opts ...Option) *ObjectResolver {
	r := &ObjectResolver{
		source:   source,
		visited:  make(map[string]bool),
		maxDepth: 100,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve follows obj while it is a reference. Containers are returned
// as they are.
func (r *ObjectResolver) Resolve(obj core.Object) (core.Object, error) {
	defer r.Reset()
	return r.resolve(obj, false)
}

// ResolveDeep returns a copy of obj in which every reference, at any
// depth, is replaced by its target. A reference that leads back to one of
// its own ancestors is an error, so trees with back pointers (Parent
// entries) cannot be fully expanded.
func (r *ObjectResolver) ResolveDeep(obj core.Object) (core.Object, error) {
	defer r.Reset()
	return r.resolve(obj, true)
}

func (r *ObjectResolver) resolve(obj core.Object, deep bool) (core.Object, error) {
	if r.currentDepth >= r.maxDepth {
		return nil, fmt.Errorf("maximum recursion depth (%d) exceeded", r.maxDepth)
	}

	switch v := obj.(type) {
	case core.Ref:
		id := string(v)
		if r.visited[id] {
			return nil, core.Malformed("circular reference detected for %s", id)
		}

		r.visited[id] = true
		// Unmark after we're done (allows the same object in different branches)
		defer delete(r.visited, id)

		resolved, ok := r.source.Object(id)
		if !ok {
			return nil, &core.DanglingReferenceError{ID: id}
		}

		// References to references are always followed
		r.currentDepth++
		resolved, err := r.resolve(resolved, deep)
		r.currentDepth--
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference %s: %w", id, err)
		}
		return resolved, nil

	case core.Dict:
		if !deep {
			return v, nil
		}

		resolved := make(core.Dict, len(v))
		for _, key := range v.Keys() {
			r.currentDepth++
			resolvedValue, err := r.resolve(v[key], deep)
			r.currentDepth--
			if err != nil {
				return nil, fmt.Errorf("failed to resolve dict key %s: %w", key, err)
			}
			resolved[key] = resolvedValue
		}
		return resolved, nil

	case core.Array:
		if !deep {
			return v, nil
		}

		resolved := make(core.Array, len(v))
		for i, elem := range v {
			r.currentDepth++
			resolvedElem, err := r.resolve(elem, deep)
			r.currentDepth--
			if err != nil {
				return nil, fmt.Errorf("failed to resolve array element %d: %w", i, err)
			}
			resolved[i] = resolvedElem
		}
		return resolved, nil

	case *core.Stream:
		if !deep {
			return v, nil
		}

		r.currentDepth++
		resolvedDict, err := r.resolve(v.Dict, deep)
		r.currentDepth--
		if err != nil {
			return nil, fmt.Errorf("failed to resolve stream dict: %w", err)
		}

		return &core.Stream{
			Dict:     resolvedDict.(core.Dict),
			Encoding: v.Encoding,
			Data:     v.Data,
		}, nil

	default:
		// Scalars, content trees and nil pass through
		return obj, nil
	}
}

// Reset clears the visited set and depth counter
func (r *ObjectResolver) Reset() {
	r.visited = make(map[string]bool)
	r.currentDepth = 0
}

// ResolveDict resolves obj shallowly and requires a dictionary; a stream
// yields its dictionary.
func (r *ObjectResolver) ResolveDict(obj core.Object) (core.Dict, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := resolved.(type) {
	case core.Dict:
		return v, nil
	case *core.Stream:
		return v.Dict, nil
	}
	return nil, core.Malformed("expected dictionary, got %T", resolved)
}

// ResolveArray resolves obj shallowly and requires an array
func (r *ObjectResolver) ResolveArray(obj core.Object) (core.Array, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return nil, core.Malformed("expected array, got %T", resolved)
	}
	return arr, nil
}

// ResolveNumber resolves obj shallowly and requires a number
func (r *ObjectResolver) ResolveNumber(obj core.Object) (core.Number, error) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return 0, err
	}
	n, ok := resolved.(core.Number)
	if !ok {
		return 0, core.Malformed("expected number, got %T", resolved)
	}
	return n, nil
}

// GetObject loads an object by id without resolving it
func (r *ObjectResolver) GetObject(id string) (core.Object, error) {
	obj, ok := r.source.Object(id)
	if !ok {
		return nil, &core.DanglingReferenceError{ID: id}
	}
	return obj, nil
}

// GetObjectResolvedDeep loads and fully resolves an object by id
func (r *ObjectResolver) GetObjectResolvedDeep(id string) (core.Object, error) {
	return r.ResolveDeep(core.Ref(id))
}
