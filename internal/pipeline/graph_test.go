package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/twitstock/internal/task"
	"github.com/wonny/twitstock/pkg/objstore"
)

func indexOf(order []task.ID, id task.ID) int {
	for i, o := range order {
		if o == id {
			return i
		}
	}
	return -1
}

func TestBuildDeduplicatesByID(t *testing.T) {
	store := objstore.NewMemory("t")
	// two distinct instances with the same identity collapse into one node
	p1 := newFake(store, "prices")
	p2 := newFake(store, "prices")
	a := newFake(store, "a", p1)
	b := newFake(store, "b", p2)

	g, err := Build(a, b, a)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, []task.ID{a.ID(), b.ID()}, g.Roots)
	assert.ElementsMatch(t, []task.ID{a.ID(), b.ID()}, g.Nodes[p1.ID()].Dependents)
}

func TestBuildOrder(t *testing.T) {
	store := objstore.NewMemory("t")
	prices := newFake(store, "prices")
	tweets := newFake(store, "tweets")
	export := newFake(store, "export")
	tweets.deps = []task.Task{export}
	extract := newFake(store, "extract", tweets, prices)
	analyze := newFake(store, "analyze", extract)

	g, err := Build(analyze)
	require.NoError(t, err)
	require.Len(t, g.Order, 5)

	for id, n := range g.Nodes {
		for _, dep := range n.Deps {
			assert.Less(t, indexOf(g.Order, dep), indexOf(g.Order, id), "%s before %s", dep, id)
		}
	}

	assert.Equal(t, []task.ID{export.ID(), tweets.ID()}, g.Closure(tweets.ID()))
	assert.Contains(t, g.String(), "Fake(extract)")
}

func TestBuildErrors(t *testing.T) {
	_, err := Build()
	assert.True(t, errors.Is(err, ErrInvalidGraph))

	store := objstore.NewMemory("t")
	a := newFake(store, "a")
	b := newFake(store, "b", a)
	a.deps = []task.Task{b}

	_, err = Build(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycle))
	assert.Contains(t, err.Error(), "Fake(b) -> Fake(a) -> Fake(b)")
}
