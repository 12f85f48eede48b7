package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Nodeflow/internal/telemetry"
)

// publishTimeout ограничивает время одной публикации.
const publishTimeout = 5 * time.Second

// EventPublisher публикует события жизненного цикла workflow в RabbitMQ.
//
// Реализует telemetry.Sink. Публикация fire-and-forget: ошибка доставки
// логируется, но не влияет на выполнение workflow.
type EventPublisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewEventPublisher создаёт новый EventPublisher.
func NewEventPublisher(conn *Connection, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует событие в ExchangeEvents.
//
// Routing key выводится из типа события: "workflow_start" → "workflow.start",
// "node_error" → "node.error". Потребители подписываются по маске
// ("workflow.*", "node.error", "#").
func (p *EventPublisher) Publish(event telemetry.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish event",
			"event", event.Type,
			"workflow_id", event.WorkflowID,
			"execution_id", event.ExecutionID,
			"error", err,
		)
	}
}

func (p *EventPublisher) publish(ctx context.Context, event telemetry.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	routingKey := RoutingKeyFor(event.Type)

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeEvents),
			routingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    uuid.New().String(),
				Timestamp:    event.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", ExchangeEvents, routingKey, err)
		}

		p.logger.Debug("published event",
			"routing_key", routingKey,
			"event", event.Type,
			"execution_id", event.ExecutionID,
		)
		return nil
	})
}

// RoutingKeyFor переводит тип события в routing key.
func RoutingKeyFor(eventType string) string {
	return strings.Replace(eventType, "_", ".", 1)
}
