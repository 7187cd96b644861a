package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventBus adapts Client to ports.EventBus. Unlike declareTopology (which
// wires up the teacher's fixed ride/driver exchanges eagerly at connect
// time), topics here are declared lazily and on demand: each topic name
// becomes its own durable topic exchange, and each consumer group becomes
// its own durable queue bound to that exchange with the catch-all pattern
// "#" so every message published to the topic reaches every group.
type EventBus struct {
	client *Client
}

// NewEventBus wraps an established RabbitMQ client as a ports.EventBus.
func NewEventBus(client *Client) *EventBus {
	return &EventBus{client: client}
}

// Publish ensures the topic exchange exists and publishes payload under key.
func (bus *EventBus) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if err := bus.client.ensureTopicExchange(topic); err != nil {
		return fmt.Errorf("eventbus: ensure exchange %s: %w", topic, err)
	}
	return bus.client.PublishMessage(topic, key, payload)
}

// Consume binds consumerGroup's queue to topic and dispatches deliveries to
// handler, acking on success and dropping (nack, no requeue) on handler
// error, same as the underlying Client.Consume contract.
func (bus *EventBus) Consume(ctx context.Context, topic, consumerGroup string, prefetch int, handler func(ctx context.Context, key string, payload []byte) error) error {
	queue, err := bus.client.ensureTopicQueueBound(topic, consumerGroup)
	if err != nil {
		return fmt.Errorf("eventbus: ensure queue %s/%s: %w", topic, consumerGroup, err)
	}

	return bus.client.Consume(ctx, queue, consumerGroup, prefetch, func(ctx context.Context, d amqp.Delivery) error {
		return handler(ctx, d.RoutingKey, d.Body)
	})
}

// ensureTopicExchange declares (idempotently) a durable topic exchange
// named after the topic, mirroring declareTopology's style but on a
// short-lived channel opened on demand rather than the shared pub channel.
func (client *Client) ensureTopicExchange(topic string) error {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return fmt.Errorf("rabbitmq: connection is not open")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return ch.ExchangeDeclare(topic, "topic", true, false, false, false, nil)
}

// ensureTopicQueueBound declares a durable queue named "<topic>.<group>"
// and binds it to the topic exchange with the catch-all routing pattern,
// returning the queue name for Consume to subscribe to.
func (client *Client) ensureTopicQueueBound(topic, group string) (string, error) {
	if err := client.ensureTopicExchange(topic); err != nil {
		return "", err
	}

	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()
	if conn == nil || conn.IsClosed() {
		return "", fmt.Errorf("rabbitmq: connection is not open")
	}

	ch, err := conn.Channel()
	if err != nil {
		return "", fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	queue := fmt.Sprintf("%s.%s", topic, group)
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, "#", topic, false, nil); err != nil {
		return "", fmt.Errorf("bind queue %s: %w", queue, err)
	}

	return queue, nil
}
