package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linemk/food-delivery/internal/domain/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusEvent - сообщение о смене статуса заказа
type StatusEvent struct {
	OrderID   string        `json:"order_id"`
	UserID    string        `json:"user_id"`
	OldStatus models.Status `json:"old_status,omitempty"`
	NewStatus models.Status `json:"new_status"`
	ChangedBy string        `json:"changed_by"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher рассылает события о смене статусов
type Publisher interface {
	PublishStatusChange(ctx context.Context, event StatusEvent) error
}

// NopPublisher используется, когда брокер не настроен
type NopPublisher struct{}

func (NopPublisher) PublishStatusChange(context.Context, StatusEvent) error { return nil }

// RabbitMQ публикует события в fanout-exchange
type RabbitMQ struct {
	conn     *amqp.Connection
	mu       sync.Mutex // amqp.Channel нельзя использовать из нескольких горутин одновременно
	channel  *amqp.Channel
	exchange string
	log      *slog.Logger
}

func Connect(url, exchange string, log *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Info("connected to rabbitmq", slog.String("exchange", exchange))
	return &RabbitMQ{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

func (r *RabbitMQ) PublishStatusChange(ctx context.Context, event StatusEvent) error {
	msg, err := NewPublishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.channel.PublishWithContext(ctx,
		r.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	); err != nil {
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	r.log.Debug("status change published",
		slog.String("orderID", event.OrderID),
		slog.String("status", string(event.NewStatus)),
	)
	return nil
}

// NewPublishing собирает persistent JSON-сообщение
func NewPublishing(event StatusEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal status event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    event.Timestamp,
		MessageId:    event.OrderID + ":" + string(event.NewStatus),
	}, nil
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
