package testkit

import (
	"github.com/harrison/fixturekit/internal/scope"
)

// Suite groups test cases and carries class-level annotations. Suites nest;
// a nested suite sees its own annotations before its parent's.
type Suite struct {
	name        string
	parent      *Suite
	annotations []any
	extension   *Extension
	hooks       []any
}

// NewSuite creates a top-level suite.
func NewSuite(name string, annotations ...any) *Suite {
	return &Suite{name: name, annotations: annotations}
}

// Nested creates a suite enclosed by s.
func (s *Suite) Nested(name string, annotations ...any) *Suite {
	return &Suite{name: name, parent: s, annotations: annotations}
}

// WithExtension makes cases in s, and in suites nested under it, run through
// e instead of the default extension.
func (s *Suite) WithExtension(e *Extension) *Suite {
	s.extension = e
	return s
}

// BeforeEach registers fn to run before the body of every case in s and in
// suites nested under it. fn takes the same parameters as a body passed to
// Case.Run and may return an error.
func (s *Suite) BeforeEach(fn any) *Suite {
	s.hooks = append(s.hooks, fn)
	return s
}

// Name returns the slash-separated path of suite names from the root.
func (s *Suite) Name() string {
	if s.parent == nil {
		return s.name
	}
	return s.parent.Name() + "/" + s.name
}

// Test declares a case in s with method-level annotations.
func (s *Suite) Test(name string, annotations ...any) *Case {
	return &Case{name: name, suite: s, annotations: annotations}
}

func (s *Suite) MethodAnnotations() []any { return nil }
func (s *Suite) ClassAnnotations() []any  { return s.annotations }

func (s *Suite) Parent() scope.Context {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *Suite) resolveExtension() *Extension {
	for current := s; current != nil; current = current.parent {
		if current.extension != nil {
			return current.extension
		}
	}
	return nil
}

// Case is one test with method-level annotations.
type Case struct {
	name        string
	suite       *Suite
	annotations []any
}

// Test declares a case outside any suite.
func Test(name string, annotations ...any) *Case {
	return &Case{name: name, annotations: annotations}
}

// Name returns the case name prefixed by its suite path.
func (c *Case) Name() string {
	if c.suite == nil {
		return c.name
	}
	return c.suite.Name() + "/" + c.name
}

func (c *Case) MethodAnnotations() []any { return c.annotations }
func (c *Case) ClassAnnotations() []any  { return nil }

func (c *Case) Parent() scope.Context {
	if c.suite == nil {
		return nil
	}
	return c.suite
}

// hooks returns the before-each hooks of every enclosing suite, outermost
// suite first.
func (c *Case) hooks() []any {
	var chain []*Suite
	for current := c.suite; current != nil; current = current.parent {
		chain = append(chain, current)
	}
	var hooks []any
	for i := len(chain) - 1; i >= 0; i-- {
		hooks = append(hooks, chain[i].hooks...)
	}
	return hooks
}

func (c *Case) extension() *Extension {
	if c.suite != nil {
		if e := c.suite.resolveExtension(); e != nil {
			return e
		}
	}
	return defaultExtension()
}
