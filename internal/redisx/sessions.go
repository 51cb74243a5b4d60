package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/redis/go-redis/v9"
)

// Sessions resolves bearer tokens written by the login service.
type Sessions struct {
	RDB *redis.Client
}

func (s *Sessions) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	if token == "" {
		return auth.Principal{}, auth.ErrUnauthenticated
	}
	b, err := s.RDB.Get(ctx, fmt.Sprintf(KeySession, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Principal{}, auth.ErrUnauthenticated
	}
	if err != nil {
		return auth.Principal{}, fmt.Errorf("session lookup: %w", err)
	}
	var p auth.Principal
	if err := json.Unmarshal(b, &p); err != nil || p.UserID == "" || !p.Role.Valid() {
		return auth.Principal{}, auth.ErrUnauthenticated
	}
	return p, nil
}
