package rabbitmq

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// Publisher publishes analyzed claims to a RabbitMQ exchange.
type Publisher struct {
	amqpURL  string
	exchange string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(amqpURL, exchangeName string) (*Publisher, error) {
	p := &Publisher{
		amqpURL:  amqpURL,
		exchange: exchangeName,
	}
	p.mu.Lock()
	err := p.reconnectLocked()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) reconnectLocked() error {
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}

	conn, err := amqp.Dial(p.amqpURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = ch
	return nil
}

// PublishJSON marshals v and publishes it with the given routing key.
// One reconnect attempt is made if the connection has dropped.
func (p *Publisher) PublishJSON(routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.channel == nil {
		if err := p.reconnectLocked(); err != nil {
			return err
		}
	}

	if err := p.channel.Publish(p.exchange, routingKey, false, false, pub); err != nil {
		if rerr := p.reconnectLocked(); rerr != nil {
			return fmt.Errorf("failed to publish: %w", err)
		}
		if err := p.channel.Publish(p.exchange, routingKey, false, false, pub); err != nil {
			return fmt.Errorf("failed to publish after reconnect: %w", err)
		}
	}
	return nil
}

// Close closes the publisher connection and channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			err = channelErr
		}
		p.channel = nil
	}
	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			if err == nil {
				err = connErr
			}
		}
		p.conn = nil
	}
	return err
}
