package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stockStore struct{ v view }

func (s stockStore) Get(ctx context.Context, id string) (inventory.Ingredient, error) {
	var out inventory.Ingredient
	err := s.v.do(func(st *state) error {
		in, ok := st.ingredients[id]
		if !ok {
			return inventory.ErrNotFound
		}
		out = in
		return nil
	})
	return out, err
}

func (s stockStore) List(ctx context.Context) ([]inventory.Ingredient, error) {
	return s.list(func(inventory.Ingredient) bool { return true })
}

func (s stockStore) ListBelowThreshold(ctx context.Context) ([]inventory.Ingredient, error) {
	return s.list(inventory.Ingredient.Low)
}

func (s stockStore) list(keep func(inventory.Ingredient) bool) ([]inventory.Ingredient, error) {
	var out []inventory.Ingredient
	err := s.v.do(func(st *state) error {
		for _, in := range st.ingredients {
			if keep(in) {
				out = append(out, in)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func nameTaken(st *state, id, name string) bool {
	for _, other := range st.ingredients {
		if other.ID != id && other.Name == name {
			return true
		}
	}
	return false
}

func (s stockStore) Create(ctx context.Context, in inventory.Ingredient) (inventory.Ingredient, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	in.UpdatedAt = time.Now()
	err := s.v.do(func(st *state) error {
		if nameTaken(st, in.ID, in.Name) {
			return inventory.ErrDuplicateName
		}
		st.ingredients[in.ID] = in
		return nil
	})
	return in, err
}

func (s stockStore) Update(ctx context.Context, in inventory.Ingredient) (inventory.Ingredient, error) {
	err := s.v.do(func(st *state) error {
		cur, ok := st.ingredients[in.ID]
		if !ok {
			return inventory.ErrNotFound
		}
		if nameTaken(st, in.ID, in.Name) {
			return inventory.ErrDuplicateName
		}
		in.StockQuantity = cur.StockQuantity
		in.UpdatedAt = time.Now()
		st.ingredients[in.ID] = in
		return nil
	})
	return in, err
}

func (s stockStore) Delete(ctx context.Context, id string) error {
	return s.v.do(func(st *state) error {
		if _, ok := st.ingredients[id]; !ok {
			return inventory.ErrNotFound
		}
		for _, m := range st.menu {
			for _, r := range m.Ingredients {
				if r.IngredientID == id {
					return inventory.ErrInUse
				}
			}
		}
		for _, o := range st.orders {
			for _, c := range o.Consumptions {
				if c.IngredientID == id {
					return inventory.ErrInUse
				}
			}
		}
		delete(st.ingredients, id)
		return nil
	})
}

func (s stockStore) Consume(ctx context.Context, id string, qty decimal.Decimal) error {
	return s.v.do(func(st *state) error {
		in, ok := st.ingredients[id]
		if !ok {
			return inventory.ErrNotFound
		}
		if in.StockQuantity.LessThan(qty) {
			return &inventory.InsufficientStockError{
				IngredientID: in.ID, Name: in.Name, Unit: in.Unit,
				Required: qty, Available: in.StockQuantity,
			}
		}
		in.StockQuantity = in.StockQuantity.Sub(qty)
		in.UpdatedAt = time.Now()
		st.ingredients[id] = in
		return nil
	})
}

func (s stockStore) Restore(ctx context.Context, id string, qty decimal.Decimal) error {
	return s.v.do(func(st *state) error {
		in, ok := st.ingredients[id]
		if !ok {
			return inventory.ErrNotFound
		}
		in.StockQuantity = in.StockQuantity.Add(qty)
		in.UpdatedAt = time.Now()
		st.ingredients[id] = in
		return nil
	})
}

func (s stockStore) Adjust(ctx context.Context, id string, op inventory.Operation, qty decimal.Decimal) (inventory.Ingredient, error) {
	var out inventory.Ingredient
	err := s.v.do(func(st *state) error {
		in, ok := st.ingredients[id]
		if !ok {
			return inventory.ErrNotFound
		}
		next, err := inventory.Apply(in.StockQuantity, op, qty)
		if err != nil {
			return err
		}
		in.StockQuantity = next
		in.UpdatedAt = time.Now()
		st.ingredients[id] = in
		out = in
		return nil
	})
	return out, err
}
