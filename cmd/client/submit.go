package main

import (
	"github.com/spf13/cobra"

	"github.com/lioia/pagerank/pkg/api"
	"github.com/lioia/pagerank/pkg/graph"
)

func newSubmitCmd() *cobra.Command {
	var (
		flags   optionFlags
		address string
		top     int
	)
	cmd := &cobra.Command{
		Use:   "submit <file|url>",
		Short: "Rank a graph on a remote server over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.override(cmd)
			if err != nil {
				return err
			}
			ctx, _ := commandContext(cmd)

			edges, err := graph.LoadResource(ctx, args[0])
			if err != nil {
				return err
			}
			resp, err := api.NewClient(address).Rank(ctx, api.RankRequest{
				Edges:   edges,
				Options: opts,
				Top:     top,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printRanking(out, resp.Ranking, nil); err != nil {
				return err
			}
			printSummary(out, resp.Iterations, resp.Converged, resp.Delta)
			return nil
		},
	}
	addOptionFlags(cmd, &flags)
	cmd.Flags().StringVar(&address, "api", "http://127.0.0.1:8080", "ranking server URL")
	cmd.Flags().IntVar(&top, "top", -1, "print only the best N nodes (-1 prints all, 0 uses the server default)")
	return cmd
}
