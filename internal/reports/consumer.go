package reports

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-restaurant-pos/internal/kafka"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Deduper remembers processed event ids. *redisx.Dedup satisfies it.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Consumer keeps daily snapshots current from the order event stream.
type Consumer struct {
	Service *Service
	Dedup   Deduper
	Log     *zap.Logger
}

// HandleOrderEvent refreshes the snapshot of the day a paid order was
// created on. Other events are skipped.
func (c *Consumer) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	if t := kafkax.Header(m, "x-event-type"); t != "" && t != orders.EventOrderPaid {
		return nil
	}

	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// a malformed message will never decode; drop it instead of blocking the partition
		c.Log.Warn("undecodable event", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	}

	seen, err := c.Dedup.Seen(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPayload](env.Payload)
	if err != nil {
		c.Log.Warn("undecodable payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	day := p.CreatedAt.In(c.Service.loc).Format(dateLayout)
	d, err := c.Service.Daily(ctx, day)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", day, err)
	}
	if err := c.Dedup.Mark(ctx, env.EventID); err != nil {
		c.Log.Warn("dedup mark failed", zap.String("event_id", env.EventID), zap.Error(err))
	}

	c.Log.Info("daily report refreshed",
		zap.String("date", d.Date),
		zap.String("order_id", p.OrderID),
		zap.String("trace_id", env.TraceID),
		zap.Int("orders", d.TotalOrders))
	return nil
}
