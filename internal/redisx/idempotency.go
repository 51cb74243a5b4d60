package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// inFlight marks a key whose request has not finished yet.
const inFlight = "-"

// Idempotency remembers which order a create request produced.
type Idempotency struct {
	RDB *redis.Client
}

// Begin claims key. When the key was already claimed it returns the
// stored order id, or "" while the first request is still running.
func (i *Idempotency) Begin(ctx context.Context, key string) (orderID string, fresh bool, err error) {
	k := fmt.Sprintf(KeyIdemOrderCreate, key)
	ok, err := i.RDB.SetNX(ctx, k, inFlight, TTLIdempotency).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return i.Begin(ctx, key)
	}
	if err != nil {
		return "", false, err
	}
	if v == inFlight {
		return "", false, nil
	}
	return v, false, nil
}

func (i *Idempotency) Complete(ctx context.Context, key, orderID string) error {
	return i.RDB.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), orderID, TTLIdempotency).Err()
}

// Abort releases key so the client can retry a failed request.
func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.RDB.Del(ctx, fmt.Sprintf(KeyIdemOrderCreate, key)).Err()
}
