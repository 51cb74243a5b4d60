package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/google/uuid"
)

type menuStore struct{ v view }

func cloneMenuItem(m catalog.MenuItem) catalog.MenuItem {
	m.Ingredients = append([]catalog.Requirement{}, m.Ingredients...)
	return m
}

func (s menuStore) Get(ctx context.Context, id string) (catalog.MenuItem, error) {
	var out catalog.MenuItem
	err := s.v.do(func(st *state) error {
		m, ok := st.menu[id]
		if !ok {
			return catalog.ErrNotFound
		}
		out = cloneMenuItem(m)
		return nil
	})
	return out, err
}

func (s menuStore) List(ctx context.Context, f catalog.Filter) ([]catalog.MenuItem, error) {
	var out []catalog.MenuItem
	err := s.v.do(func(st *state) error {
		for _, m := range st.menu {
			if f.Match(m) {
				out = append(out, cloneMenuItem(m))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Name != out[j].Name {
				return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

func (s menuStore) Create(ctx context.Context, m catalog.MenuItem) (catalog.MenuItem, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	m = cloneMenuItem(m)
	err := s.v.do(func(st *state) error {
		st.menu[m.ID] = m
		return nil
	})
	return cloneMenuItem(m), err
}

func (s menuStore) Update(ctx context.Context, m catalog.MenuItem) (catalog.MenuItem, error) {
	var out catalog.MenuItem
	err := s.v.do(func(st *state) error {
		cur, ok := st.menu[m.ID]
		if !ok {
			return catalog.ErrNotFound
		}
		m.CreatedAt = cur.CreatedAt
		m.UpdatedAt = time.Now()
		st.menu[m.ID] = cloneMenuItem(m)
		out = cloneMenuItem(m)
		return nil
	})
	return out, err
}

func (s menuStore) SetAvailability(ctx context.Context, id string, available bool) (catalog.MenuItem, error) {
	var out catalog.MenuItem
	err := s.v.do(func(st *state) error {
		m, ok := st.menu[id]
		if !ok {
			return catalog.ErrNotFound
		}
		m = cloneMenuItem(m)
		m.Available = available
		m.UpdatedAt = time.Now()
		st.menu[id] = m
		out = cloneMenuItem(m)
		return nil
	})
	return out, err
}

func (s menuStore) IngredientsRequired(ctx context.Context, id string) ([]catalog.Requirement, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.Ingredients, nil
}

// Delete mirrors the foreign keys of the relational schema: order lines
// block it, snapshots lose their best seller.
func (s menuStore) Delete(ctx context.Context, id string) error {
	return s.v.do(func(st *state) error {
		if _, ok := st.menu[id]; !ok {
			return catalog.ErrNotFound
		}
		for _, o := range st.orders {
			for _, it := range o.Items {
				if it.MenuItemID == id {
					return catalog.ErrInUse
				}
			}
		}
		for date, snap := range st.snapshots {
			if snap.BestSellerID == id {
				snap.BestSellerID = ""
				st.snapshots[date] = snap
			}
		}
		delete(st.menu, id)
		return nil
	})
}

func (s menuStore) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	err := s.v.do(func(st *state) error {
		for _, c := range st.categories {
			out = append(out, c)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (s menuStore) GetCategory(ctx context.Context, id string) (catalog.Category, error) {
	var out catalog.Category
	err := s.v.do(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return catalog.ErrCategoryNotFound
		}
		out = c
		return nil
	})
	return out, err
}

func (s menuStore) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	err := s.v.do(func(st *state) error {
		for _, other := range st.categories {
			if other.Name == c.Name {
				return catalog.ErrDuplicateName
			}
		}
		st.categories[c.ID] = c
		return nil
	})
	return c, err
}

func (s menuStore) UpdateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	err := s.v.do(func(st *state) error {
		cur, ok := st.categories[c.ID]
		if !ok {
			return catalog.ErrCategoryNotFound
		}
		for _, other := range st.categories {
			if other.ID != c.ID && other.Name == c.Name {
				return catalog.ErrDuplicateName
			}
		}
		c.CreatedAt = cur.CreatedAt
		st.categories[c.ID] = c
		return nil
	})
	return c, err
}

func (s menuStore) DeleteCategory(ctx context.Context, id string) error {
	return s.v.do(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return catalog.ErrCategoryNotFound
		}
		for mid, m := range st.menu {
			if m.CategoryID == id {
				m = cloneMenuItem(m)
				m.CategoryID = ""
				st.menu[mid] = m
			}
		}
		delete(st.categories, id)
		return nil
	})
}
