package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const exchangeName = "hms.events"

// ReservationEvent is the payload published on reservation lifecycle changes.
// Consumers (notification service, reporting) are external to this backend.
type ReservationEvent struct {
	ReservationID uint   `json:"reservation_id,omitempty"`
	SessionRef    string `json:"session_ref,omitempty"`
	RoomNumber    uint   `json:"room_number"`
	ClientID      uint   `json:"client_id,omitempty"`
	AmountCents   int64  `json:"amount_cents,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// Publisher emits domain events to RabbitMQ. A nil Publisher is valid and
// drops every event, so event publishing stays optional in deployments
// without a broker.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher connects to the broker and declares the topic exchange.
// Returns (nil, nil) when url is empty.
func NewPublisher(url string) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish sends an event with the given routing key. Publishing is
// best-effort: a broker failure is logged, never surfaced to the booking
// flow.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event ReservationEvent) {
	if p == nil {
		return
	}
	if event.OccurredAt == "" {
		event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	err = p.ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
	if err != nil {
		log.WithField("routing_key", routingKey).WithError(err).Warn("failed to publish event")
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
