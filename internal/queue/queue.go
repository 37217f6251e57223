package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Client owns one AMQP connection and a single channel. Publishes are
// serialized because amqp channels are not safe for concurrent writes.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	publishMu sync.Mutex
}

func New(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type Exchange struct {
	Name string
	Kind string
}

type Binding struct {
	Exchange   string
	RoutingKey string
}

type Queue struct {
	Name string
	Args amqp.Table
	Bind []Binding
}

// Topology is declared idempotently at startup: exchanges first, then each
// queue followed by its bindings.
type Topology struct {
	Exchanges []Exchange
	Queues    []Queue
}

func (c *Client) Declare(t Topology) error {
	for _, ex := range t.Exchanges {
		kind := ex.Kind
		if kind == "" {
			kind = amqp.ExchangeTopic
		}
		if err := c.ch.ExchangeDeclare(ex.Name, kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}
	for _, q := range t.Queues {
		if _, err := c.ch.QueueDeclare(q.Name, true, false, false, false, q.Args); err != nil {
			return fmt.Errorf("declare queue %s: %w", q.Name, err)
		}
		for _, b := range q.Bind {
			if err := c.ch.QueueBind(q.Name, b.RoutingKey, b.Exchange, false, nil); err != nil {
				return fmt.Errorf("bind %s to %s: %w", q.Name, b.Exchange, err)
			}
		}
	}
	return nil
}

func (c *Client) publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	return c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
}

// PublishJSON sends a persistent JSON message tagged with the routing key as
// its type.
func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Body:         body,
		Timestamp:    time.Now(),
	})
}

// Publisher sends domain events to one exchange. A nil publisher drops
// events so the service runs without a broker.
type Publisher struct {
	Client   *Client
	Exchange string
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if p == nil || p.Client == nil {
		return nil
	}
	return p.Client.PublishJSON(ctx, p.Exchange, routingKey, payload)
}
