package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lioia/pagerank/pkg/logging"
	"github.com/lioia/pagerank/pkg/pagerank"
	"github.com/lioia/pagerank/pkg/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pagerank",
		Short:        "Rank the nodes of a graph",
		Long:         "Computes PageRank scores and friend recommendations for edge-list graphs, locally or through a ranking server.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "YAML or JSON file with engine defaults")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRankCmd(),
		newRecommendCmd(),
		newSubmitCmd(),
		newEnqueueCmd(),
		newHealthCmd(),
	)
	return root
}

// commandContext returns the command context with a stderr logger attached.
func commandContext(cmd *cobra.Command) (context.Context, *slog.Logger) {
	level, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(cmd.ErrOrStderr(), level, "text")
	return logging.WithLogger(cmd.Context(), logger), logger
}

type optionFlags struct {
	damping    float64
	iterations int
	tolerance  float64
	workers    int
}

func addOptionFlags(cmd *cobra.Command, f *optionFlags) {
	d := pagerank.DefaultOptions()
	cmd.Flags().Float64Var(&f.damping, "damping", d.DampingFactor, "damping factor, strictly between 0 and 1")
	cmd.Flags().IntVar(&f.iterations, "iterations", d.MaxIterations, "maximum number of iterations")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", d.Tolerance, "L1 convergence threshold")
	cmd.Flags().IntVar(&f.workers, "workers", d.Workers, "goroutines per iteration")
}

// options starts from the --config file, or the built-in defaults, and
// applies the flags set on the command line.
func (f *optionFlags) options(cmd *cobra.Command) (pagerank.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	config, err := utils.LoadConfiguration(path)
	if err != nil {
		return pagerank.Options{}, err
	}
	opts := config.PageRank
	if cmd.Flags().Changed("damping") {
		opts.DampingFactor = f.damping
	}
	if cmd.Flags().Changed("iterations") {
		opts.MaxIterations = f.iterations
	}
	if cmd.Flags().Changed("tolerance") {
		opts.Tolerance = f.tolerance
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = f.workers
	}
	return opts, opts.Validate()
}

// override is like options but returns nil when neither --config nor an
// option flag is set, leaving the choice to the server.
func (f *optionFlags) override(cmd *cobra.Command) (*pagerank.Options, error) {
	set := cmd.Flags().Changed("config")
	for _, name := range []string{"damping", "iterations", "tolerance", "workers"} {
		set = set || cmd.Flags().Changed(name)
	}
	if !set {
		return nil, nil
	}
	opts, err := f.options(cmd)
	if err != nil {
		return nil, err
	}
	return &opts, nil
}
