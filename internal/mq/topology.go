package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// ExchangeEvents — topic exchange для событий жизненного цикла workflow.
const ExchangeEvents Exchange = "nodeflow.events"

// QueueEventsAudit — очередь для аудита всех событий.
const QueueEventsAudit Queue = "events.audit"

// SetupTopology объявляет exchange и очередь аудита.
// Идемпотентно: повторное объявление с теми же параметрами безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeEvents),
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}

		q, err := ch.QueueDeclare(
			string(QueueEventsAudit),
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueEventsAudit, err)
		}

		// Аудит получает все события
		if err := ch.QueueBind(q.Name, "#", string(ExchangeEvents), false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueEventsAudit, err)
		}

		return nil
	})
}
