// Package pagerank computes the stationary distribution of a damped random
// walk over an undirected graph.
package pagerank

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/logging"
)

// Solution is the raw output of the power iteration, indexed like the
// transition matrix.
type Solution struct {
	Vector     []float64
	Iterations int
	Converged  bool
	// Delta is the L1 difference measured at the last iteration.
	Delta float64
	// Deltas holds the L1 difference of every iteration.
	Deltas []float64
}

// Result maps every node of the graph to its score.
type Result[N cmp.Ordered] struct {
	Scores     map[N]float64 `json:"scores"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Delta      float64       `json:"delta"`
	Deltas     []float64     `json:"-"`
}

// Solve runs the damped power iteration
//
//	R_(t+1) = d·T·R_t + (1-d)/n
//
// starting from the uniform vector, until the L1 difference between two
// iterations drops below opts.Tolerance or opts.MaxIterations is reached.
// Running out of iterations is not an error: the last vector is returned
// with Converged set to false. The vector is renormalised once, after the
// loop.
func Solve(ctx context.Context, t *Transition, opts Options) (*Solution, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return solve(ctx, t, opts)
}

// solve is Solve for options that were already validated.
func solve(ctx context.Context, t *Transition, opts Options) (*Solution, error) {
	if t == nil || t.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	logger := logging.FromContext(ctx)

	n := t.Len()
	d := opts.DampingFactor
	teleport := (1 - d) / float64(n)
	workers := opts.workers()

	rank := make([]float64, n)
	next := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	// Most runs stop long before the cap
	sol := &Solution{Deltas: make([]float64, 0, min(opts.MaxIterations, 64))}
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		// Cancellation is only observed between iterations
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pagerank cancelled after %d iterations: %w", iter-1, err)
		}

		t.Apply(next, rank, workers)
		delta := 0.0
		for i := range next {
			next[i] = d*next[i] + teleport
			delta += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank

		sol.Iterations = iter
		sol.Delta = delta
		sol.Deltas = append(sol.Deltas, delta)
		logger.Debug("pagerank iteration", slog.Int("iteration", iter), slog.Float64("delta", delta))

		if delta < opts.Tolerance {
			sol.Converged = true
			break
		}
	}

	if sol.Converged {
		logger.Info("pagerank converged",
			slog.Int("iterations", sol.Iterations), slog.Float64("delta", sol.Delta), slog.Int("nodes", n))
	} else {
		logger.Warn("pagerank did not converge",
			slog.Int("iterations", sol.Iterations), slog.Float64("delta", sol.Delta),
			slog.Float64("tolerance", opts.Tolerance), slog.Int("nodes", n))
	}

	// Normalize values
	sum := 0.0
	for _, v := range rank {
		sum += v
	}
	for i := range rank {
		rank[i] /= sum
	}
	sol.Vector = rank
	return sol, nil
}

// Compute ranks every node of g.
func Compute[N cmp.Ordered](ctx context.Context, g *graph.Graph[N], opts Options) (*Result[N], error) {
	// Configuration is checked before any matrix work
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return compute(ctx, g, opts)
}

func compute[N cmp.Ordered](ctx context.Context, g *graph.Graph[N], opts Options) (*Result[N], error) {
	if g == nil {
		return nil, ErrEmptyGraph
	}
	t, err := BuildTransition(g)
	if err != nil {
		return nil, err
	}
	sol, err := solve(ctx, t, opts)
	if err != nil {
		return nil, err
	}

	scores := make(map[N]float64, g.Len())
	for i, v := range sol.Vector {
		scores[g.Node(i)] = v
	}
	return &Result[N]{
		Scores:     scores,
		Iterations: sol.Iterations,
		Converged:  sol.Converged,
		Delta:      sol.Delta,
		Deltas:     sol.Deltas,
	}, nil
}

// Rank builds a graph from nodes and edges and ranks it. A nil nodes slice
// infers the node set from the edges; otherwise nodes is the declared set
// and edges referencing anything else fail with ErrUnknownNodeReference.
func Rank[N cmp.Ordered](ctx context.Context, nodes []N, edges []graph.Edge[N], opts Options) (*Result[N], *graph.Graph[N], error) {
	return RankLimited(ctx, nodes, edges, opts, 0)
}

// RankLimited is Rank with a cap on the number of nodes, checked before the
// n×n matrix is allocated. maxNodes <= 0 means no cap.
func RankLimited[N cmp.Ordered](ctx context.Context, nodes []N, edges []graph.Edge[N], opts Options, maxNodes int) (*Result[N], *graph.Graph[N], error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	g, err := Build(nodes, edges)
	if err != nil {
		return nil, nil, err
	}
	if maxNodes > 0 && g.Len() > maxNodes {
		return nil, nil, fmt.Errorf("%w: %d nodes, limit is %d", ErrGraphTooLarge, g.Len(), maxNodes)
	}
	res, err := compute(ctx, g, opts)
	if err != nil {
		return nil, nil, err
	}
	return res, g, nil
}

// Build picks the indexing policy used by Rank.
func Build[N cmp.Ordered](nodes []N, edges []graph.Edge[N]) (*graph.Graph[N], error) {
	if nodes == nil {
		return graph.FromEdges(edges), nil
	}
	return graph.New(nodes, edges)
}
