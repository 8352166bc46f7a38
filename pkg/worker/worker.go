// Package worker ranks graphs received over a RabbitMQ work queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lioia/pagerank/pkg/logging"
	"github.com/lioia/pagerank/pkg/metrics"
	"github.com/lioia/pagerank/pkg/pagerank"
	"github.com/lioia/pagerank/pkg/utils"
)

// Job outcomes
const (
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
	StatusRequeued = "requeued"
)

// ErrDeliveriesClosed is returned when the broker closes the consumer.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// ErrGraphTooLarge is reported for jobs above the configured node cap.
var ErrGraphTooLarge = pagerank.ErrGraphTooLarge

// Channel is the part of *amqp.Channel the worker uses.
type Channel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Queues names the queues a worker reads from and answers on.
type Queues struct {
	Work     string
	Result   string
	// Consumer tags the subscription; empty lets the broker pick one.
	Consumer string
}

type Worker struct {
	ch      Channel
	queues  Queues
	config  utils.Config
	metrics *metrics.Registry
	logger  *slog.Logger
}

// New creates a worker. reg and logger may be nil.
func New(ch Channel, queues Queues, config utils.Config, reg *metrics.Registry, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		ch:      ch,
		queues:  queues,
		config:  config,
		metrics: reg,
		logger:  logging.Component(logger, "worker"),
	}
}

// Run consumes the work queue until ctx is done or the broker closes the
// delivery channel.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.ch.Consume(
		w.queues.Work,     // queue
		w.queues.Consumer, // consumer
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("could not register a consumer: %w", err)
	}

	w.logger.Info("waiting for jobs", slog.String("queue", w.queues.Work))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return ErrDeliveriesClosed
			}
			if err := w.Handle(ctx, d); err != nil {
				w.logger.Error("could not handle job", slog.String("correlation_id", d.CorrelationId), slog.Any("error", err))
			}
		}
	}
}

// Handle processes one delivery. Malformed messages are dropped, failed
// publishes are requeued, and everything else is acked, including jobs the
// engine rejected.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) error {
	job, err := DecodeJob(d.Body, w.config.PageRank)
	if err != nil {
		w.metrics.RecordJob(StatusRejected)
		w.logger.Warn("dropping malformed job", slog.Any("error", err))
		return d.Nack(false, false)
	}

	logger := w.logger.With(slog.String("job", job.ID))
	result := w.process(logging.WithLogger(ctx, logger), job)

	body, err := EncodeResult(result)
	if err != nil {
		w.metrics.RecordJob(StatusRejected)
		return errors.Join(err, d.Nack(false, false))
	}

	key := d.ReplyTo
	if key == "" {
		key = w.queues.Result
	}
	correlationID := d.CorrelationId
	if correlationID == "" {
		correlationID = job.ID
	}
	err = w.ch.PublishWithContext(ctx,
		"",    // exchange
		key,   // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   ContentType,
			CorrelationId: correlationID,
			Body:          body,
		})
	if err != nil {
		// Message will be re-added to the queue
		w.metrics.RecordJob(StatusRequeued)
		return errors.Join(fmt.Errorf("could not publish result: %w", err), d.Nack(false, true))
	}

	if result.Error != "" {
		w.metrics.RecordJob(StatusFailed)
		logger.Warn("job failed", slog.String("error", result.Error))
	} else {
		w.metrics.RecordJob(StatusDone)
		logger.Info("job completed", slog.Int("iterations", result.Iterations), slog.Bool("converged", result.Converged))
	}
	return d.Ack(false)
}

func (w *Worker) process(ctx context.Context, job Job) JobResult {
	start := time.Now()
	res, err := w.compute(ctx, job)
	if err != nil {
		w.metrics.RecordComputation(metrics.StatusError, time.Since(start), 0, 0)
		return JobResult{ID: job.ID, Error: err.Error()}
	}
	w.metrics.RecordComputation(metrics.ComputationStatus(res.Converged, nil), time.Since(start), res.Iterations, len(res.Scores))

	return JobResult{
		ID:         job.ID,
		Scores:     res.Scores,
		Ranking:    res.Top(job.Top),
		Iterations: res.Iterations,
		Converged:  res.Converged,
		Delta:      res.Delta,
	}
}

func (w *Worker) compute(ctx context.Context, job Job) (*pagerank.Result[int64], error) {
	opts := w.config.PageRank
	if job.Options != nil {
		opts = *job.Options
	}
	ctx, cancel := context.WithTimeout(ctx, w.config.API.Timeout)
	defer cancel()
	res, _, err := pagerank.RankLimited(ctx, job.Nodes, job.Edges, opts, w.config.API.MaxNodes)
	return res, err
}
