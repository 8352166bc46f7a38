package pagerank

import (
	"fmt"
	"sync"
)

// Adjacency is the view of a graph the transition builder needs.
type Adjacency interface {
	Len() int
	Neighbors(i int) []int
}

// Transition is a dense column-stochastic matrix: At(i, j) is the
// probability of moving from node j to node i in one step. Every column sums
// to 1.
type Transition struct {
	n    int
	data []float64 // row-major, n*n
}

// BuildTransition turns an adjacency relation into a transition matrix.
// A node with neighbours spreads its mass evenly over them; a dangling node
// spreads it evenly over all n nodes, itself included.
func BuildTransition(adj Adjacency) (*Transition, error) {
	n := adj.Len()
	if n == 0 {
		return nil, ErrEmptyGraph
	}

	t := &Transition{n: n, data: make([]float64, n*n)}
	uniform := 1.0 / float64(n)
	for j := 0; j < n; j++ {
		neighbors := adj.Neighbors(j)
		if len(neighbors) == 0 {
			for i := 0; i < n; i++ {
				t.data[i*n+j] = uniform
			}
			continue
		}
		p := 1.0 / float64(len(neighbors))
		for _, i := range neighbors {
			if i < 0 || i >= n {
				return nil, fmt.Errorf("neighbour index %d of node %d out of range [0,%d)", i, j, n)
			}
			t.data[i*n+j] = p
		}
	}
	return t, nil
}

// Len returns the matrix dimension.
func (t *Transition) Len() int { return t.n }

// At returns the probability of moving from j to i.
func (t *Transition) At(i, j int) float64 { return t.data[i*t.n+j] }

// Apply computes dst = T·src. With workers > 1 the rows are split into
// contiguous blocks, one goroutine per block; every row is still summed in
// column order, so the result does not depend on the number of workers.
func (t *Transition) Apply(dst, src []float64, workers int) {
	if workers <= 1 || t.n < 2*workers {
		t.applyRows(dst, src, 0, t.n)
		return
	}
	chunk := (t.n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < t.n; lo += chunk {
		hi := min(lo+chunk, t.n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			t.applyRows(dst, src, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

func (t *Transition) applyRows(dst, src []float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		row := t.data[i*t.n : (i+1)*t.n]
		sum := 0.0
		for j, p := range row {
			sum += p * src[j]
		}
		dst[i] = sum
	}
}
