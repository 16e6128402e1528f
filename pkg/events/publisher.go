package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ListingPublished is emitted after a publication commits. Consumers
// (search indexing, notifications) pick it up asynchronously; delivery is
// best-effort and never affects the committed publication.
type ListingPublished struct {
	PropertyID  uint      `json:"id_propiedad"`
	PublisherID uint      `json:"id_usuario_publica"`
	City        string    `json:"ciudad"`
	Price       float64   `json:"precio"`
	ImageCount  int       `json:"imagenes"`
	PublishedAt time.Time `json:"fecha_publicacion"`
}

// Publisher emits listing lifecycle events.
type Publisher interface {
	PublishListing(ctx context.Context, event ListingPublished) error
	Close() error
}

const routingKeyPublished = "listing.published"

// AMQPPublisher sends events to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishListing(ctx context.Context, event ListingPublished) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKeyPublished, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKeyPublished, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishListing(context.Context, ListingPublished) error { return nil }
func (NopPublisher) Close() error                                           { return nil }
