package pagerank

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/logging"
)

func sum[N comparable](scores map[N]float64) float64 {
	total := 0.0
	for _, v := range scores {
		total += v
	}
	return total
}

func cycle(n int) []graph.Edge[int] {
	edges := make([]graph.Edge[int], 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, graph.Edge[int]{Source: i, Target: (i + 1) % n})
	}
	return edges
}

func TestRank_Star(t *testing.T) {
	res, _, err := Rank(context.Background(), nil,
		[]graph.Edge[int]{{0, 1}, {0, 2}, {0, 3}}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Scores, 4)
	assert.InDelta(t, 1.0, sum(res.Scores), 1e-9)
	for i := 1; i <= 3; i++ {
		assert.Greater(t, res.Scores[0], res.Scores[i], "hub ranks first")
	}
	assert.Equal(t, res.Scores[1], res.Scores[2])
	assert.Equal(t, res.Scores[2], res.Scores[3])

	// Fixed point of x0 = 0.15/4 + 0.85·3x, x = 0.15/4 + 0.85·x0/3
	assert.InDelta(t, 0.133125/0.2775, res.Scores[0], 1e-3)
	assert.Equal(t, 50, res.Iterations, "the bipartite star needs more than 50 iterations at 1e-6")
	assert.False(t, res.Converged)
}

func TestRank_StarConvergesWithMoreIterations(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 500
	res, _, err := Rank(context.Background(), nil,
		[]graph.Edge[int]{{0, 1}, {0, 2}, {0, 3}}, opts)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Less(t, res.Iterations, 500)
	assert.Less(t, res.Delta, opts.Tolerance)
	assert.InDelta(t, 0.133125/0.2775, res.Scores[0], 1e-6)
}

func TestRank_RegularGraphIsUniform(t *testing.T) {
	res, _, err := Rank(context.Background(), nil, cycle(5), DefaultOptions())
	require.NoError(t, err)

	for node, score := range res.Scores {
		assert.InDelta(t, 0.2, score, 1e-12, "node %d", node)
	}
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
}

func TestRank_SingleIsolatedNode(t *testing.T) {
	res, _, err := Rank(context.Background(), []int{7}, nil, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Scores, 1)
	assert.Equal(t, 1.0, res.Scores[7])
	assert.True(t, res.Converged)
}

func TestRank_SymmetricComponents(t *testing.T) {
	// Two paths 0-1-2 and 10-11-12
	edges := []graph.Edge[int]{{0, 1}, {1, 2}, {10, 11}, {11, 12}}
	res, _, err := Rank(context.Background(), nil, edges, DefaultOptions())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.InDelta(t, res.Scores[i], res.Scores[10+i], 1e-12, "node %d", i)
	}
	assert.Greater(t, res.Scores[1], res.Scores[0])
	assert.InDelta(t, 1.0, sum(res.Scores), 1e-9)
}

func TestRank_DanglingNodeAmongConnected(t *testing.T) {
	nodes := []int{0, 1, 2, 3}
	edges := []graph.Edge[int]{{0, 1}, {1, 2}, {2, 0}}
	res, _, err := Rank(context.Background(), nodes, edges, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Scores, 4)
	assert.InDelta(t, 1.0, sum(res.Scores), 1e-9)
	for _, n := range nodes {
		assert.Greater(t, res.Scores[n], 0.0)
	}
	assert.Less(t, res.Scores[3], res.Scores[0])
	assert.InDelta(t, res.Scores[0], res.Scores[1], 1e-12)
	assert.InDelta(t, res.Scores[1], res.Scores[2], 1e-12)
}

func TestRank_Errors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Rank[int](ctx, nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyGraph)

	_, _, err = Rank(ctx, []int{}, []graph.Edge[int]{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyGraph)

	_, _, err = Rank(ctx, []int{0, 1}, []graph.Edge[int]{{0, 2}}, DefaultOptions())
	assert.ErrorIs(t, err, ErrUnknownNodeReference)

	bad := DefaultOptions()
	bad.DampingFactor = 1
	_, _, err = Rank(ctx, nil, cycle(3), bad)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	// Configuration is checked before the graph
	_, _, err = Rank[int](ctx, nil, nil, bad)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRank_IterationLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = MaxIterationsLimit
	res, _, err := Rank(context.Background(), nil, cycle(4), opts)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Len(t, res.Deltas, res.Iterations)

	opts.MaxIterations = 1 << 62
	_, _, err = Rank(context.Background(), nil, cycle(4), opts)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRankLimited(t *testing.T) {
	ctx := context.Background()
	star := []graph.Edge[int]{{0, 1}, {0, 2}, {0, 3}}

	_, _, err := RankLimited(ctx, nil, star, DefaultOptions(), 3)
	assert.ErrorIs(t, err, ErrGraphTooLarge)
	assert.ErrorContains(t, err, "4 nodes")

	res, g, err := RankLimited(ctx, nil, star, DefaultOptions(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Len(t, res.Scores, 4)

	_, _, err = RankLimited(ctx, nil, star, DefaultOptions(), 0)
	assert.NoError(t, err, "zero means no cap")

	bad := DefaultOptions()
	bad.Tolerance = 0
	_, _, err = RankLimited(ctx, nil, star, bad, 3)
	assert.ErrorIs(t, err, ErrInvalidConfiguration, "configuration is checked before the cap")
}

func TestCompute_NilGraph(t *testing.T) {
	_, err := Compute[int](context.Background(), nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestRank_Idempotent(t *testing.T) {
	edges := []graph.Edge[int]{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 2}, {4, 2}}
	first, _, err := Rank(context.Background(), nil, edges, DefaultOptions())
	require.NoError(t, err)
	second, _, err := Rank(context.Background(), nil, edges, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	assert.Equal(t, first.Iterations, second.Iterations)
	assert.Equal(t, first.Deltas, second.Deltas)
}

func TestRank_WorkersDoNotChangeResult(t *testing.T) {
	var edges []graph.Edge[int]
	for i := 0; i < 60; i++ {
		edges = append(edges, graph.Edge[int]{Source: i, Target: (i * i) % 61})
	}
	serial, _, err := Rank(context.Background(), nil, edges, DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Workers = 6
	parallel, _, err := Rank(context.Background(), nil, edges, opts)
	require.NoError(t, err)

	assert.Equal(t, serial.Scores, parallel.Scores)
	assert.Equal(t, serial.Iterations, parallel.Iterations)
}

func TestSolve_DeltasNonIncreasing(t *testing.T) {
	edges := []graph.Edge[int]{{0, 1}, {0, 2}, {0, 3}, {3, 4}, {4, 5}, {5, 3}, {6, 6}}
	g, err := graph.New([]int{0, 1, 2, 3, 4, 5, 6, 7}, edges)
	require.NoError(t, err)
	tr, err := BuildTransition(g)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxIterations = 200
	sol, err := Solve(context.Background(), tr, opts)
	require.NoError(t, err)

	require.Len(t, sol.Deltas, sol.Iterations)
	for i := 1; i < len(sol.Deltas); i++ {
		assert.LessOrEqual(t, sol.Deltas[i], sol.Deltas[i-1], "iteration %d", i+1)
	}
	assert.True(t, sol.Converged)
}

func TestSolve_ScoresStayPositive(t *testing.T) {
	g := graph.FromEdges([]graph.Edge[int]{{0, 1}, {1, 2}, {2, 3}, {3, 4}})
	tr, err := BuildTransition(g)
	require.NoError(t, err)

	opts := DefaultOptions()
	sol, err := Solve(context.Background(), tr, opts)
	require.NoError(t, err)

	floor := (1 - opts.DampingFactor) / float64(g.Len())
	for i, v := range sol.Vector {
		assert.GreaterOrEqual(t, v, floor*(1-1e-9), "index %d", i)
	}
}

func TestSolve_Cancelled(t *testing.T) {
	tr, err := BuildTransition(graph.FromEdges(cycle(4)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err := Solve(ctx, tr, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, sol)
}

func TestSolve_InvalidInputs(t *testing.T) {
	_, err := Solve(context.Background(), nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrEmptyGraph)

	tr, err := BuildTransition(graph.FromEdges(cycle(3)))
	require.NoError(t, err)
	_, err = Solve(context.Background(), tr, Options{DampingFactor: 0.85, MaxIterations: 0, Tolerance: 1e-6})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSolve_LogsNonConvergence(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.New(&buf, "warn", "json"))

	tr, err := BuildTransition(graph.FromEdges([]graph.Edge[int]{{0, 1}, {0, 2}}))
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.MaxIterations = 2
	sol, err := Solve(ctx, tr, opts)
	require.NoError(t, err)
	require.False(t, sol.Converged)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, 2, entry["iterations"])
}

func TestRank_StringIdentifiers(t *testing.T) {
	res, _, err := Rank(context.Background(), nil,
		[]graph.Edge[string]{{"alice", "bob"}, {"alice", "carol"}}, DefaultOptions())
	require.NoError(t, err)

	assert.Greater(t, res.Scores["alice"], res.Scores["bob"])
	assert.False(t, math.IsNaN(res.Scores["carol"]))
}
