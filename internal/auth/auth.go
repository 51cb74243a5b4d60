package auth

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Role string

const (
	RoleClient  Role = "client"
	RoleServer  Role = "server"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleServer, RoleManager:
		return true
	}
	return false
}

type Principal struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

type Capability string

const (
	CreateOrder        Capability = "order:create"
	ViewOwnOrders      Capability = "order:view_own"
	ManageOrders       Capability = "order:manage"
	BookTable          Capability = "reservation:book"
	ManageReservations Capability = "reservation:manage"
	ManageCatalog      Capability = "catalog:manage"
	ManageTables       Capability = "table:manage"
	ManageInventory    Capability = "inventory:manage"
	ViewReports        Capability = "report:view"
)

var grants = map[Role]map[Capability]bool{
	RoleClient: {
		CreateOrder:   true,
		ViewOwnOrders: true,
		BookTable:     true,
	},
	RoleServer: {
		CreateOrder:        true,
		ViewOwnOrders:      true,
		ManageOrders:       true,
		ManageReservations: true,
	},
	RoleManager: {
		CreateOrder:        true,
		ViewOwnOrders:      true,
		ManageOrders:       true,
		ManageReservations: true,
		ManageCatalog:      true,
		ManageTables:       true,
		ManageInventory:    true,
		ViewReports:        true,
	},
}

// Can reports whether role holds capability c.
func Can(role Role, c Capability) bool { return grants[role][c] }

// Authenticator resolves a bearer token to a principal. It returns
// ErrUnauthenticated for unknown tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Static is an in-process token table, used by tests and memory mode.
type Static map[string]Principal

func (s Static) Authenticate(_ context.Context, token string) (Principal, error) {
	p, ok := s[token]
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}
