package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer buffers messages in memory and writes them from one goroutine so
// request handlers never wait on the broker.
type Producer struct {
	w       *kafka.Writer
	log     *zap.Logger
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic string, buf int, log *zap.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log:     log.With(zap.String("topic", topic)),
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start drains the inbox until Close is called. Remaining messages are
// flushed before the writer closes.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			p.write(ctx, m)
		}
		if err := p.w.Close(); err != nil {
			p.log.Warn("kafka writer close", zap.Error(err))
		}
	}()
}

func (p *Producer) write(ctx context.Context, m kafka.Message) {
	wctx := context.Background()
	if ctx.Err() == nil {
		wctx = ctx
	}
	wctx, cancel := context.WithTimeout(wctx, 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(wctx, m); err != nil {
		p.log.Error("kafka write failed", zap.ByteString("key", m.Key), zap.Error(err))
	}
}

// Publish enqueues a message. It drops the message, with a log line, once
// the producer is closed or the buffer is full.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("publish after close", zap.ByteString("key", key))
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
	default:
		p.log.Error("producer buffer full, dropping message", zap.ByteString("key", key))
	}
}

// Close stops accepting messages; the goroutine flushes the rest and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the flush finished.
func (p *Producer) WaitClosed() { <-p.closeCh }
