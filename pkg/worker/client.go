package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrJobFailed wraps the error a worker reported for a submitted job.
var ErrJobFailed = errors.New("job failed")

// RPCChannel is the part of *amqp.Channel Submit uses.
type RPCChannel interface {
	Channel
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// Submit publishes job on queue and waits for its result on an exclusive
// reply queue. A job without an ID gets a random one.
func Submit(ctx context.Context, ch RPCChannel, queue string, job Job) (*JobResult, error) {
	reply, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("could not declare reply queue: %w", err)
	}
	msgs, err := ch.Consume(
		reply.Name, // queue
		"",         // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return nil, fmt.Errorf("could not register a consumer: %w", err)
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := EncodeJob(job)
	if err != nil {
		return nil, err
	}
	correlationID := uuid.NewString()
	err = ch.PublishWithContext(ctx,
		"",    // exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   ContentType,
			CorrelationId: correlationID,
			ReplyTo:       reply.Name,
			Body:          body,
		})
	if err != nil {
		return nil, fmt.Errorf("could not publish job: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil, ErrDeliveriesClosed
			}
			if d.CorrelationId != correlationID {
				continue
			}
			result, err := DecodeResult(d.Body)
			if err != nil {
				return nil, err
			}
			if result.Error != "" {
				return &result, fmt.Errorf("%w: %s", ErrJobFailed, result.Error)
			}
			return &result, nil
		}
	}
}
