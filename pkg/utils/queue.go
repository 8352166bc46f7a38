package utils

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitURL builds the AMQP connection string from the environment.
func (e EnvVars) RabbitURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", e.RabbitUser, e.RabbitPass, e.RabbitHost, e.RabbitPort)
}

// DialQueue connects to RabbitMQ and opens a channel. The caller closes both.
func DialQueue(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open a channel to RabbitMQ: %w", err)
	}
	return conn, ch, nil
}

func DeclareQueue(name string, ch *amqp.Channel) (queue amqp.Queue, err error) {
	queue, err = ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return
	}
	// One job at a time per worker
	if err = ch.Qos(1, 0, false); err != nil {
		return
	}
	return
}
