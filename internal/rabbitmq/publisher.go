package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// KitchenExchange is the topic exchange kitchen displays bind to.
const KitchenExchange = "kitchen_topic"

// Publisher sends JSON messages to the kitchen exchange and redials once
// when the connection has dropped.
type Publisher struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string, log *zap.Logger) (*Publisher, error) {
	p := &Publisher{url: url, log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = p.open(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			wait := time.Duration(i+1) * time.Second
			p.log.Warn("rabbitmq connect failed, retrying", zap.Duration("wait", wait), zap.Error(err))
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("connect rabbitmq after %d attempts: %w", maxRetries, err)
}

func (p *Publisher) open() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if err := ch.ExchangeDeclare(KitchenExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare %s: %w", KitchenExchange, err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// Publish sends v as a persistent JSON message with the given routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal kitchen message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		if err := p.open(); err != nil {
			return fmt.Errorf("reconnect rabbitmq: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(ctx, KitchenExchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
