package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lioia/pagerank/pkg/api"
	"github.com/lioia/pagerank/pkg/health"
	"github.com/lioia/pagerank/pkg/logging"
	"github.com/lioia/pagerank/pkg/metrics"
	"github.com/lioia/pagerank/pkg/utils"
	"github.com/lioia/pagerank/pkg/worker"
)

func main() {
	// Read environment variables
	env, err := utils.ReadEnvVars()
	utils.FailOnError("Invalid environment", err)

	id, err := gonanoid.New()
	utils.FailOnError("Could not generate instance id", err)
	logger := logging.New(os.Stderr, env.LogLevel, env.LogFormat).With(slog.String("instance", id))
	slog.SetDefault(logger)

	config, err := utils.LoadConfiguration(env.ConfigFile)
	utils.FailOnError("Invalid configuration file %q", err, env.ConfigFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, env, config, id, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, env utils.EnvVars, config utils.Config, id string, logger *slog.Logger) error {
	reg := metrics.NewRegistry()

	// Queue worker, set up first so a bad broker fails fast
	var w *worker.Worker
	if env.RabbitHost != "" {
		conn, ch, err := utils.DialQueue(env.RabbitURL())
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()
		if _, err := utils.DeclareQueue(env.WorkQueue, ch); err != nil {
			return fmt.Errorf("failed to declare %q queue: %w", env.WorkQueue, err)
		}
		if _, err := utils.DeclareQueue(env.ResultQueue, ch); err != nil {
			return fmt.Errorf("failed to declare %q queue: %w", env.ResultQueue, err)
		}
		w = worker.New(ch, worker.Queues{
			Work:     env.WorkQueue,
			Result:   env.ResultQueue,
			Consumer: "pagerank-" + id,
		}, config, reg, logger)
	} else {
		logger.Info("RABBIT_HOST not set, queue worker disabled")
	}

	lis, err := net.Listen("tcp", env.HealthAddress())
	if err != nil {
		return fmt.Errorf("failed to listen for health server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// gRPC health service
	hs := health.NewServer(logger)
	g.Go(func() error { return hs.Serve(ctx, lis) })

	// HTTP API
	server := api.NewServer(config, reg, logger)
	hs.SetServing(health.ServiceAPI, true)
	g.Go(func() error {
		defer hs.SetServing(health.ServiceAPI, false)
		return server.Start(ctx, env.Address())
	})

	if w != nil {
		hs.SetServing(health.ServiceWorker, true)
		g.Go(func() error {
			defer hs.SetServing(health.ServiceWorker, false)
			return w.Run(ctx)
		})
	}
	return g.Wait()
}
