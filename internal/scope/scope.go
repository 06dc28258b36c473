// Package scope walks a test's context hierarchy and gathers the annotation
// values attached at each level.
//
// A Context is one level of the hierarchy: the test case itself, its suite,
// the suite enclosing that, and so on up to a root with no parent. Each level
// may carry method-level and class-level annotations.
package scope

// Context is one level of a test's scope chain.
type Context interface {
	// MethodAnnotations returns the values attached to the test case at this
	// level. Suites return nil.
	MethodAnnotations() []any

	// ClassAnnotations returns the values attached to the suite at this level.
	ClassAnnotations() []any

	// Parent returns the enclosing level, or nil at the root.
	Parent() Context
}

// Collect returns every annotation of type A visible from ctx, closest scope
// first. At each level method annotations come before class annotations.
// An empty result is not an error.
func Collect[A any](ctx Context) []A {
	var found []A
	for current := ctx; current != nil; current = current.Parent() {
		found = appendMatching(found, current.MethodAnnotations())
		found = appendMatching(found, current.ClassAnnotations())
	}
	return found
}

// Find returns the first annotation of type A in annotations.
func Find[A any](annotations []any) (A, bool) {
	for _, annotation := range annotations {
		if a, ok := annotation.(A); ok {
			return a, true
		}
	}
	var zero A
	return zero, false
}

// Depth returns the number of levels from ctx to the root, inclusive.
func Depth(ctx Context) int {
	depth := 0
	for current := ctx; current != nil; current = current.Parent() {
		depth++
	}
	return depth
}

func appendMatching[A any](found []A, annotations []any) []A {
	for _, annotation := range annotations {
		if a, ok := annotation.(A); ok {
			found = append(found, a)
		}
	}
	return found
}
