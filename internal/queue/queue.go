package queue

import (
	"fmt"
	"time"

	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	// ReloadQueue triggers a reload of the configured dataset in every server.
	ReloadQueue = "reload_queue"
	// UploadQueue carries archived uploads to the worker.
	UploadQueue = "upload_queue"

	// Exchange is the topic exchange events are published on.
	Exchange = "pubsub_exchange"
	// TopicGraphIngested is published after every snapshot swap.
	TopicGraphIngested = "graph.ingested"
)

// Channel is the subset of *amqp091.Channel used for publishing.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Configured reports whether a broker host is set.
func Configured() bool {
	return util.GetEnv("RABBITMQ_HOST") != ""
}

func Dial() (*amqp091.Connection, error) {
	user := util.GetEnvString("RABBITMQ_USER", "guest")
	pass := util.GetEnvString("RABBITMQ_PASSWORD", "guest")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnvString("RABBITMQ_PORT", "5672")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	return amqp091.Dial(connURL)
}

func Init() *amqp091.Connection {
	conn, err := Dial()
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the event exchange and, per queue, the queue itself,
// its dead-letter queue and a retry queue that routes back after 10s.
func SetupQueues(ch Channel, queueNames []string) error {
	err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("exchange declare failed: %w", err)
	}

	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			return fmt.Errorf("queue declare %s failed: %w", name, err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("queue declare %s failed: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("queue declare %s failed: %w", retryName, err)
		}
	}

	return nil
}

func PublishFIFO(ch Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}

func PublishTopic(ch Channel, topic string, data []byte) error {
	err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		false,
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		Exchange,
		topic,
		false,
		false,
		publishing,
	)
}
