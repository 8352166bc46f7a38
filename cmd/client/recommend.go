package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lioia/pagerank/pkg/graph"
	"github.com/lioia/pagerank/pkg/pagerank"
)

func newRecommendCmd() *cobra.Command {
	var (
		flags optionFlags
		node  int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "recommend <file|url>",
		Short: "Suggest new connections for a node",
		Long: `Ranks the graph and lists the highest-scored nodes that --node is not yet
connected to.`,
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
			recs, err := pagerank.Recommend(g, res, node, limit)
			if err != nil {
				return err
			}
			neighbors, _ := g.NeighborsOf(node)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "node %d (score %.4f) is connected to: %s\n", node, res.Scores[node], joinIDs(neighbors))
			if len(recs) == 0 {
				fmt.Fprintln(out, "no recommendations")
				return nil
			}
			return printRanking(out, recs, nil)
		},
	}
	addOptionFlags(cmd, &flags)
	cmd.Flags().Int64Var(&node, "node", 0, "node to recommend connections for")
	cmd.Flags().IntVar(&limit, "limit", 3, "maximum number of recommendations")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}
