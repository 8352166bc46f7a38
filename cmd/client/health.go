package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lioia/pagerank/pkg/health"
)

func newHealthCmd() *cobra.Command {
	var (
		address string
		service string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query the gRPC health service of a ranking server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			status, err := health.Check(ctx, address, service)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("%s is %s", address, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "addr", "127.0.0.1:50051", "health server address")
	cmd.Flags().StringVar(&service, "service", "", "service name, empty for the whole server")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}
