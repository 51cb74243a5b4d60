package memory

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
)

type orderRepo struct{ v view }

func (r orderRepo) Get(ctx context.Context, id string) (*orders.Order, error) {
	var out *orders.Order
	err := r.v.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return orders.ErrNotFound
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate needs no lock of its own: transactions already hold the
// store lock for their whole duration.
func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*orders.Order, error) {
	return r.Get(ctx, id)
}

func (r orderRepo) List(ctx context.Context, f orders.Filter) ([]*orders.Order, error) {
	var out []*orders.Order
	err := r.v.do(func(st *state) error {
		for _, o := range st.orders {
			if f.Match(o) {
				c := o.Clone()
				c.Consumptions = nil
				out = append(out, c)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return st.orderSeq[a.ID] > st.orderSeq[b.ID]
		})
		return nil
	})
	return out, err
}

func (r orderRepo) Create(ctx context.Context, o *orders.Order) error {
	return r.v.do(func(st *state) error {
		st.orders[o.ID] = o.Clone()
		st.orderSeq[o.ID] = st.next()
		return nil
	})
}

func (r orderRepo) Save(ctx context.Context, o *orders.Order) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.orders[o.ID]; !ok {
			return orders.ErrNotFound
		}
		st.orders[o.ID] = o.Clone()
		return nil
	})
}
