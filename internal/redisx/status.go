package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type OrderStatus struct {
	OrderID       string               `json:"order_id"`
	Status        orders.Status        `json:"status"`
	PaymentStatus orders.PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// StatusCache keeps the latest status of each order for cheap polling.
// It is an orders.Notifier.
type StatusCache struct {
	RDB *redis.Client
	Log *zap.Logger
}

// Notify stores the order's status unless the cache already holds a newer
// one; notifications run after commit and may arrive out of order.
func (c *StatusCache) Notify(ctx context.Context, _ string, o *orders.Order) {
	b, _ := json.Marshal(OrderStatus{
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		UpdatedAt:     o.UpdatedAt,
	})
	key := fmt.Sprintf(KeyOrderStatus, o.ID)
	write := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var cached OrderStatus
			if json.Unmarshal(cur, &cached) == nil && cached.UpdatedAt.After(o.UpdatedAt) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, TTLStatusCache)
			return nil
		})
		return err
	}

	var err error
	for range 3 {
		if err = c.RDB.Watch(ctx, write, key); !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		c.Log.Warn("status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// Status returns the cached status; ok is false on a miss.
func (c *StatusCache) Status(ctx context.Context, orderID string) (OrderStatus, bool, error) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return OrderStatus{}, false, nil
	}
	if err != nil {
		return OrderStatus{}, false, err
	}
	var s OrderStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return OrderStatus{}, false, nil
	}
	return s, true, nil
}
