package pagerank

import (
	"bufio"
	"cmp"
	"container/heap"
	"fmt"
	"io"

	"github.com/lioia/pagerank/pkg/graph"
)

// Ranked is a node paired with its score.
type Ranked[N cmp.Ordered] struct {
	Node  N       `json:"node"`
	Score float64 `json:"score"`
}

// before orders by descending score, then ascending identifier.
func before[N cmp.Ordered](a, b Ranked[N]) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Node < b.Node
}

// rankedHeap is a min-heap: the root is the entry that ranks last, so it is
// the one evicted when a better entry arrives.
type rankedHeap[N cmp.Ordered] []Ranked[N]

func (h rankedHeap[N]) Len() int           { return len(h) }
func (h rankedHeap[N]) Less(i, j int) bool { return before(h[j], h[i]) }
func (h rankedHeap[N]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedHeap[N]) Push(x any) {
	*h = append(*h, x.(Ranked[N]))
}

func (h *rankedHeap[N]) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// topK keeps the k best entries accepted by keep. k <= 0 keeps everything.
// O(n log k).
func topK[N cmp.Ordered](scores map[N]float64, k int, keep func(N) bool) []Ranked[N] {
	if k <= 0 || k > len(scores) {
		k = len(scores)
	}
	h := make(rankedHeap[N], 0, k)
	for node, score := range scores {
		if keep != nil && !keep(node) {
			continue
		}
		r := Ranked[N]{Node: node, Score: score}
		if h.Len() < k {
			heap.Push(&h, r)
		} else if k > 0 && before(r, h[0]) {
			h[0] = r
			heap.Fix(&h, 0)
		}
	}

	// Extract elements from heap (worst first)
	out := make([]Ranked[N], h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Ranked[N])
	}
	return out
}

// Top returns the k highest-scored nodes, ties broken by ascending
// identifier. k <= 0 returns every node.
func (r *Result[N]) Top(k int) []Ranked[N] {
	return topK(r.Scores, k, nil)
}

// Ranking returns every node ordered by descending score.
func (r *Result[N]) Ranking() []Ranked[N] {
	return r.Top(0)
}

// Recommend returns up to k nodes that node is not yet connected to, best
// score first. node itself is never recommended.
func Recommend[N cmp.Ordered](g *graph.Graph[N], r *Result[N], node N, k int) ([]Ranked[N], error) {
	neighbors, err := g.NeighborsOf(node)
	if err != nil {
		return nil, err
	}
	exclude := make(map[N]struct{}, len(neighbors)+1)
	exclude[node] = struct{}{}
	for _, n := range neighbors {
		exclude[n] = struct{}{}
	}
	if k <= 0 {
		return []Ranked[N]{}, nil
	}
	return topK(r.Scores, k, func(n N) bool {
		_, skip := exclude[n]
		return !skip
	}), nil
}

// WriteTo writes one "Node <id> with rank <score>" line per node, best
// first.
func (r *Result[N]) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for _, entry := range r.Ranking() {
		n, err := fmt.Fprintf(bw, "Node %v with rank %f\n", entry.Node, entry.Score)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, bw.Flush()
}
