package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dedup records processed event ids per consuming service.
type Dedup struct {
	RDB     *redis.Client
	Service string
}

func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.RDB, fmt.Sprintf(KeyDedup, d.Service, eventID))
}

func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	return d.RDB.Set(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID), "1", TTLDedup).Err()
}
