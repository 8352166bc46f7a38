package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lioia/pagerank/pkg/pagerank"
)

// printRanking writes one row per node. neighbors may be nil when the graph
// is not known locally.
func printRanking(w io.Writer, ranked []pagerank.Ranked[int64], neighbors func(int64) []int64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if neighbors == nil {
		fmt.Fprintln(tw, "NODE\tSCORE")
	} else {
		fmt.Fprintln(tw, "NODE\tSCORE\tNEIGHBOURS")
	}
	for _, r := range ranked {
		if neighbors == nil {
			fmt.Fprintf(tw, "%d\t%.4f\n", r.Node, r.Score)
			continue
		}
		fmt.Fprintf(tw, "%d\t%.4f\t%s\n", r.Node, r.Score, joinIDs(neighbors(r.Node)))
	}
	return tw.Flush()
}

func printSummary(w io.Writer, iterations int, converged bool, delta float64) {
	if converged {
		fmt.Fprintf(w, "converged after %d iterations (delta %.3g)\n", iterations, delta)
		return
	}
	fmt.Fprintf(w, "stopped after %d iterations without converging (delta %.3g)\n", iterations, delta)
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
