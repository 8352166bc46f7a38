package pagerank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lioia/pagerank/pkg/graph"
)

func columnSum(t *Transition, j int) float64 {
	sum := 0.0
	for i := 0; i < t.Len(); i++ {
		sum += t.At(i, j)
	}
	return sum
}

func TestBuildTransition_EmptyGraph(t *testing.T) {
	tr, err := BuildTransition(graph.FromEdges[int](nil))
	assert.ErrorIs(t, err, ErrEmptyGraph)
	assert.Nil(t, tr)
}

func TestBuildTransition_Star(t *testing.T) {
	g := graph.FromEdges([]graph.Edge[int]{{0, 1}, {0, 2}, {0, 3}})
	tr, err := BuildTransition(g)
	require.NoError(t, err)

	require.Equal(t, 4, tr.Len())
	for i := 1; i <= 3; i++ {
		assert.InDelta(t, 1.0/3, tr.At(i, 0), 1e-15, "hub spreads evenly")
		assert.Equal(t, 1.0, tr.At(0, i), "leaf sends everything to the hub")
		assert.Zero(t, tr.At(i, i))
	}
	for j := 0; j < tr.Len(); j++ {
		assert.InDelta(t, 1.0, columnSum(tr, j), 1e-12, "column %d", j)
	}
}

func TestBuildTransition_DanglingColumnIsUniform(t *testing.T) {
	g, err := graph.New([]int{0, 1, 2, 3}, []graph.Edge[int]{{0, 1}, {1, 2}})
	require.NoError(t, err)
	tr, err := BuildTransition(g)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.25, tr.At(i, 3))
	}
	for j := 0; j < tr.Len(); j++ {
		assert.InDelta(t, 1.0, columnSum(tr, j), 1e-12)
	}
}

func TestBuildTransition_SingleNode(t *testing.T) {
	g, err := graph.New([]int{42}, nil)
	require.NoError(t, err)
	tr, err := BuildTransition(g)
	require.NoError(t, err)
	assert.Equal(t, 1.0, tr.At(0, 0))
}

func TestBuildTransition_SelfLoop(t *testing.T) {
	g := graph.FromEdges([]graph.Edge[int]{{0, 0}, {0, 1}})
	tr, err := BuildTransition(g)
	require.NoError(t, err)

	assert.Equal(t, 0.5, tr.At(0, 0))
	assert.Equal(t, 0.5, tr.At(1, 0))
	assert.Equal(t, 1.0, tr.At(0, 1))
}

type badAdjacency struct{}

func (badAdjacency) Len() int              { return 2 }
func (badAdjacency) Neighbors(i int) []int { return []int{5} }

func TestBuildTransition_RejectsOutOfRangeNeighbour(t *testing.T) {
	_, err := BuildTransition(badAdjacency{})
	assert.Error(t, err)
}

func TestApply_ParallelMatchesSerial(t *testing.T) {
	var edges []graph.Edge[int]
	for i := 0; i < 97; i++ {
		edges = append(edges, graph.Edge[int]{Source: i, Target: (i*7 + 3) % 97})
		edges = append(edges, graph.Edge[int]{Source: i, Target: (i + 1) % 97})
	}
	tr, err := BuildTransition(graph.FromEdges(edges))
	require.NoError(t, err)

	src := make([]float64, tr.Len())
	for i := range src {
		src[i] = math.Sin(float64(i)) + 2
	}
	serial := make([]float64, tr.Len())
	tr.Apply(serial, src, 1)

	for _, workers := range []int{2, 3, 8, 64} {
		parallel := make([]float64, tr.Len())
		tr.Apply(parallel, src, workers)
		assert.Equal(t, serial, parallel, "workers=%d", workers)
	}
}
