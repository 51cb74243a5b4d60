package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
)

type Filter struct {
	Statuses      []Status
	TableID       string
	CustomerID    string
	PaymentStatus PaymentStatus
	// CreatedFrom is inclusive, CreatedTo exclusive. Zero means unbounded.
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (f Filter) Match(o *Order) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if o.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.TableID != "" && o.TableID != f.TableID {
		return false
	}
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	if !f.CreatedFrom.IsZero() && o.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !o.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	return true
}

// Repository persists whole order aggregates: the order row, its items
// and its stock ledger.
type Repository interface {
	Get(ctx context.Context, id string) (*Order, error)
	// GetForUpdate loads the aggregate and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
	Create(ctx context.Context, o *Order) error
	Save(ctx context.Context, o *Order) error
}

// Stores groups the repositories a single unit of work can touch.
type Stores interface {
	Orders() Repository
	Menu() catalog.Store
	Stock() inventory.Store
	Tables() tables.Store
}

// UnitOfWork hands out stores. Writes made through the Stores passed to
// fn commit together when fn returns nil and are discarded otherwise.
type UnitOfWork interface {
	Stores() Stores
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
