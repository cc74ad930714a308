package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/config"
	"madtown/video-aggregator/pkg/logger"
)

// SummaryPublisher emits run summaries to RabbitMQ so downstream consumers
// (dashboards, alerting) see every run without polling the database.
type SummaryPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *config.RabbitMQConfig
	mu      sync.RWMutex
}

var _ RunPublisher = (*SummaryPublisher)(nil)

// NewSummaryPublisher connects to the broker and declares the run summary
// exchange and queue.
func NewSummaryPublisher(cfg *config.RabbitMQConfig) (*SummaryPublisher, error) {
	sp := &SummaryPublisher{
		config: cfg,
	}

	if err := sp.connect(); err != nil {
		return nil, err
	}

	return sp, nil
}

func (sp *SummaryPublisher) connect() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	connURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		sp.config.User, sp.config.Password, sp.config.Host, sp.config.Port)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Enable publisher confirms
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		sp.config.Exchange, // name
		"topic",            // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		sp.config.Queue, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		amqp.Table{
			"x-message-ttl": 86400000, // 24 hours
			"x-max-length":  10000,
		},
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(
		sp.config.Queue,      // queue name
		sp.config.RoutingKey, // routing key
		sp.config.Exchange,   // exchange
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	sp.conn = conn
	sp.channel = ch

	logger.Log.Info("Connected to RabbitMQ",
		zap.String("exchange", sp.config.Exchange),
		zap.String("queue", sp.config.Queue),
	)

	return nil
}

// PublishRunSummary publishes one summary with broker confirmation.
func (sp *SummaryPublisher) PublishRunSummary(ctx context.Context, summary *RunSummary) error {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	if sp.channel == nil {
		return fmt.Errorf("channel is not initialized")
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	confirms := sp.channel.NotifyPublish(make(chan amqp.Confirmation, 1))

	err = sp.channel.PublishWithContext(
		ctx,
		sp.config.Exchange,   // exchange
		sp.config.RoutingKey, // routing key
		true,                 // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    summary.RunID.String(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return fmt.Errorf("message was not acknowledged by broker")
		}
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for publish confirmation")
	case <-ctx.Done():
		return ctx.Err()
	}

	logger.Log.Debug("Published run summary to RabbitMQ",
		zap.String("runId", summary.RunID.String()),
		zap.String("routingKey", sp.config.RoutingKey),
	)

	return nil
}

// Close shuts down the channel and connection.
func (sp *SummaryPublisher) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	var errs []error
	if sp.channel != nil {
		if err := sp.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sp.conn != nil {
		if err := sp.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}

	logger.Log.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the broker connection is usable.
func (sp *SummaryPublisher) IsHealthy() bool {
	sp.mu.RLock()
	defer sp.mu.RUnlock()

	return sp.conn != nil && !sp.conn.IsClosed() && sp.channel != nil
}
