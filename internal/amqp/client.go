// Package amqp connects the ledger to RabbitMQ: the server publishes
// transaction sync/delete messages, the export worker consumes them.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionSync enqueues an export request for a newly inserted
// transaction.
func (c *Client) PublishTransactionSync(ctx context.Context, id, version int64) error {
	body, err := encodeMessage(kindSync, NewTransactionSyncMessage(id, version))
	if err != nil {
		return fmt.Errorf("marshal sync message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction sync message",
		"id", id,
		"version", version,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// PublishTransactionDelete enqueues a deletion notice carrying the removed
// record's data.
func (c *Client) PublishTransactionDelete(ctx context.Context, msg *TransactionDeleteMessage) error {
	msg.Timestamp = time.Now()
	body, err := encodeMessage(kindDelete, msg)
	if err != nil {
		return fmt.Errorf("marshal delete message: %w", err)
	}
	if err := c.publish(ctx, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction delete message",
		"id", msg.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

func (c *Client) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Consume delivers queue messages to the matching handler. Malformed
// messages are rejected without requeue; handler failures requeue.
func (c *Client) Consume(ctx context.Context,
	onSync func(context.Context, *TransactionSyncMessage) error,
	onDelete func(context.Context, *TransactionDeleteMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if err := c.dispatch(ctx, delivery.Body, onSync, onDelete); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message", "error", err)
				delivery.Nack(false, !isDecodeError(err))
				continue
			}
			delivery.Ack(false)
		}
	}
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return "decode message: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	_, ok := err.(decodeError)
	return ok
}

func (c *Client) dispatch(ctx context.Context, body []byte,
	onSync func(context.Context, *TransactionSyncMessage) error,
	onDelete func(context.Context, *TransactionDeleteMessage) error,
) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return decodeError{err}
	}

	switch env.Kind {
	case kindSync:
		var msg TransactionSyncMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return decodeError{err}
		}
		return onSync(ctx, &msg)
	case kindDelete:
		var msg TransactionDeleteMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return decodeError{err}
		}
		return onDelete(ctx, &msg)
	default:
		return decodeError{fmt.Errorf("unknown message kind %q", env.Kind)}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
