package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/pagerank"
)

func newRankCmd() *cobra.Command {
	var (
		flags  optionFlags
		top    int
		output string
	)
	cmd := &cobra.Command{
		Use:   "rank <file|url>",
		Short: "Compute PageRank scores locally",
		Long: `Loads an undirected edge list (one "source target" pair per line) from a
file or an http(s) URL and prints every node with its score and neighbours,
best first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			ctx, _ := commandContext(cmd)

			edges, err := graph.LoadResource(ctx, args[0])
			if err != nil {
				return err
			}
			res, g, err := pagerank.Rank(ctx, nil, edges, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = printRanking(out, res.Top(top), func(n int64) []int64 {
				neighbors, _ := g.NeighborsOf(n)
				return neighbors
			})
			if err != nil {
				return err
			}
			printSummary(out, res.Iterations, res.Converged, res.Delta)

			if output == "" {
				return nil
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("could not create output file: %w", err)
			}
			defer f.Close()
			if _, err := res.WriteTo(f); err != nil {
				return err
			}
			return f.Close()
		},
	}
	addOptionFlags(cmd, &flags)
	cmd.Flags().IntVar(&top, "top", 0, "print only the best N nodes (0 prints all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write every rank to this file")
	return cmd
}
