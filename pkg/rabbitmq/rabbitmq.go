package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"campusconnect/internal/models"

	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client publishes order events to a topic exchange.
type Client struct {
	conn     *amqp.Connection
	channel  Channel
	exchange string
	logger   logrus.FieldLogger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
}

// NewClient connects to RabbitMQ and declares the topic exchange.
func NewClient(cfg Config, logger logrus.FieldLogger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := NewClientWithChannel(ch, cfg.Exchange, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	client.conn = conn
	return client, nil
}

// NewClientWithChannel builds a Client on an already open channel.
func NewClientWithChannel(ch Channel, exchange string, logger logrus.FieldLogger) (*Client, error) {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.WithField("exchange", exchange).Info("RabbitMQ client connected")
	return &Client{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// PublishOrderCreated publishes an order.created event.
func (c *Client) PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error {
	return c.publish(ctx, models.EventOrderCreated, event)
}

// PublishStatusChanged publishes an order.status_changed event.
func (c *Client) PublishStatusChanged(ctx context.Context, event models.OrderStatusChangedEvent) error {
	return c.publish(ctx, models.EventOrderStatusChanged, event)
}

func (c *Client) publish(ctx context.Context, routingKey string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         routingKey,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.logger.WithField("routing_key", routingKey).Debug("published order event")
	return nil
}

// ConsumeOrderEvents binds queue to every order routing key and hands each
// delivery to handler. Handled messages are acked, failed ones are requeued
// once and dropped if they fail again.
func (c *Client) ConsumeOrderEvents(queue string, handler func(msg amqp.Delivery) error) error {
	q, err := c.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := c.channel.QueueBind(q.Name, "order.*", c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}

	msgs, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go c.dispatch(msgs, handler)
	return nil
}

func (c *Client) dispatch(msgs <-chan amqp.Delivery, handler func(msg amqp.Delivery) error) {
	for msg := range msgs {
		log := c.logger.WithFields(logrus.Fields{"delivery_tag": msg.DeliveryTag, "routing_key": msg.RoutingKey})
		if err := handler(msg); err != nil {
			log.WithError(err).Warn("failed to process order event")
			if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
				log.WithError(nackErr).Error("failed to nack order event")
			}
			continue
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			log.WithError(ackErr).Error("failed to ack order event")
		}
	}
}

// LogNotifications returns a consumer handler that records each event for
// the notification gateway.
func LogNotifications(logger logrus.FieldLogger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		switch msg.RoutingKey {
		case models.EventOrderCreated:
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				return fmt.Errorf("decode %s: %w", msg.RoutingKey, err)
			}
			logger.WithFields(logrus.Fields{
				"order_id":    event.OrderID,
				"supplier_id": event.SupplierID,
				"total":       event.TotalAmount,
			}).Info("notify supplier of new order")
		case models.EventOrderStatusChanged:
			var event models.OrderStatusChangedEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				return fmt.Errorf("decode %s: %w", msg.RoutingKey, err)
			}
			logger.WithFields(logrus.Fields{
				"order_id": event.OrderID,
				"from":     event.From,
				"to":       event.To,
			}).Info("notify customer of status change")
		default:
			logger.WithField("routing_key", msg.RoutingKey).Debug("ignoring unknown order event")
		}
		return nil
	}
}
