package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler must return nil only when the message is fully processed and its
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const maxBackoff = 5 * time.Second

type Consumer struct {
	r       reader
	workers int
	backoff time.Duration
	log     *zap.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:       r,
		workers: workers,
		backoff: 200 * time.Millisecond,
		log:     log.With(zap.String("topic", topic), zap.String("group", group)),
	}
}

// Start fetches messages and spreads partitions over `workers` lanes. A
// lane handles its messages one at a time and retries a failed message
// until it succeeds, so a committed offset never skips an unprocessed one.
// It returns nil when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	g, gctx := errgroup.WithContext(ctx)
	lanes := make([]chan kafka.Message, c.workers)
	for i := range lanes {
		lane := make(chan kafka.Message, 64)
		lanes[i] = lane
		g.Go(func() error {
			for m := range lane {
				if err := c.handle(gctx, h, m); err != nil {
					return err
				}
			}
			return nil
		})
	}

	var fetchErr error
fetch:
	for {
		m, err := c.r.FetchMessage(gctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				fetchErr = err
			}
			break
		}
		select {
		case lanes[m.Partition%len(lanes)] <- m:
		case <-gctx.Done():
			break fetch
		}
	}
	for _, lane := range lanes {
		close(lane)
	}
	_ = g.Wait()
	return fetchErr
}

// handle runs h until it succeeds, then commits m.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) error {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		c.log.Error("handler failed, retrying",
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if wait *= 2; wait > maxBackoff {
			wait = maxBackoff
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil {
		c.log.Warn("commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
	}
	return nil
}
