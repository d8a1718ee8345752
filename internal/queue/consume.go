package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/netexplorer/internal/metrics"
	"github.com/OFFIS-RIT/netexplorer/internal/util"
	"github.com/OFFIS-RIT/netexplorer/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// MaxRetries is how often a failing message is retried before it is moved
// to the dead-letter queue.
const MaxRetries = 10

// Handler processes one message body.
type Handler func(ctx context.Context, body []byte) error

// Delivery is the subset of amqp091.Delivery a handler result is reported on.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consume runs handler for every message on queueName until ctx is done or
// the delivery channel closes. Messages are acked on success and moved to
// the retry or dead-letter queue on failure.
func Consume(ctx context.Context, ch *amqp091.Channel, queueName string, handler Handler) error {
	msgs, err := ch.Consume(
		queueName,
		fmt.Sprintf("%s_consumer", queueName),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queueName, err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", queueName)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", queueName)
				return nil
			}
			Dispatch(ctx, ch, queueName, msg.Body, msg.Headers, &msg, handler)
		}
	}
}

// Dispatch runs handler on body and settles the message.
func Dispatch(ctx context.Context, ch Channel, queueName string, body []byte, headers amqp091.Table, d Delivery, handler Handler) {
	logger.Debug("[Queue] Received message", "queue", queueName)

	if err := handler(ctx, body); err != nil {
		logger.Error("[Queue] Error processing message", "queue", queueName, "err", err)
		metrics.QueueMessages.WithLabelValues(queueName, metrics.ResultError).Inc()
		HandleProcessingError(ch, queueName, body, headers, d, err)
		return
	}

	metrics.QueueMessages.WithLabelValues(queueName, metrics.ResultOK).Inc()
	if err := d.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "queue", queueName, "err", err)
	}
}

// HandleProcessingError republishes a failed message to the retry queue, or
// to the dead-letter queue once it has been retried MaxRetries times.
// Permanent errors are not worth retrying and go to the dead-letter queue
// directly.
func HandleProcessingError(ch Channel, queueName string, body []byte, headers amqp091.Table, d Delivery, cause error) {
	retries := retryCount(headers)

	var permanent *util.PermanentError
	target := queueName + "_retry"
	if retries >= MaxRetries || errors.As(cause, &permanent) {
		target = queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", target)
	}

	out := amqp091.Table{}
	for k, v := range headers {
		out[k] = v
	}
	out["x-retries"] = int32(retries + 1)

	pubErr := ch.Publish(
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Headers:     out,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", pubErr)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func retryCount(headers amqp091.Table) int {
	switch v := headers["x-retries"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
