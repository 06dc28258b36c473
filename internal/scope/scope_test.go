package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type marker struct{ name string }

type other struct{}

// node is a minimal Context for exercising the walk.
type node struct {
	method []any
	class  []any
	parent *node
}

func (n *node) MethodAnnotations() []any { return n.method }
func (n *node) ClassAnnotations() []any  { return n.class }
func (n *node) Parent() Context {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func TestCollectThreeLevels(t *testing.T) {
	outer := &node{class: []any{marker{"outer"}}}
	inner := &node{class: []any{marker{"inner"}}, parent: outer}
	method := &node{method: []any{marker{"method"}}, parent: inner}

	got := Collect[marker](method)

	assert.Equal(t, []marker{{"method"}, {"inner"}, {"outer"}}, got)
}

func TestCollectMethodBeforeClassAtSameLevel(t *testing.T) {
	leaf := &node{
		method: []any{marker{"method"}},
		class:  []any{marker{"class"}},
		parent: &node{class: []any{marker{"parent"}}},
	}

	got := Collect[marker](leaf)

	assert.Equal(t, []marker{{"method"}, {"class"}, {"parent"}}, got)
}

func TestCollectSkipsOtherTypesAndEmptyLevels(t *testing.T) {
	root := &node{class: []any{other{}, marker{"root"}}}
	middle := &node{parent: root}
	leaf := &node{method: []any{other{}}, parent: middle}

	assert.Equal(t, []marker{{"root"}}, Collect[marker](leaf))
	assert.Len(t, Collect[other](leaf), 2)
}

func TestCollectNoneFound(t *testing.T) {
	leaf := &node{parent: &node{}}

	assert.Empty(t, Collect[marker](leaf))
	assert.Empty(t, Collect[marker](nil))
}

func TestCollectDeepNesting(t *testing.T) {
	var current *node
	for i := 0; i < 10; i++ {
		current = &node{class: []any{marker{string(rune('a' + i))}}, parent: current}
	}

	got := Collect[marker](current)

	assert.Len(t, got, 10)
	assert.Equal(t, marker{"j"}, got[0])
	assert.Equal(t, marker{"a"}, got[9])
	assert.Equal(t, 10, Depth(current))
}

func TestFind(t *testing.T) {
	got, ok := Find[marker]([]any{other{}, marker{"first"}, marker{"second"}})
	assert.True(t, ok)
	assert.Equal(t, marker{"first"}, got)

	_, ok = Find[marker]([]any{other{}})
	assert.False(t, ok)
}
