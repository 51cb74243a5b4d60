package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (s *server) catalogRoutes(r chi.Router) {
	r.Get("/menu", s.listMenu)
	r.Get("/menu/{id}", s.getMenuItem)
	r.Get("/categories", s.listCategories)
	r.Get("/categories/{id}", s.getCategory)

	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.ManageCatalog))
		r.Post("/menu", s.createMenuItem)
		r.Put("/menu/{id}", s.updateMenuItem)
		r.Patch("/menu/{id}/availability", s.setMenuAvailability)
		r.Delete("/menu/{id}", s.deleteMenuItem)
		r.Post("/categories", s.createCategory)
		r.Put("/categories/{id}", s.updateCategory)
		r.Delete("/categories/{id}", s.deleteCategory)
	})
}

func (s *server) listMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		CategoryID: q.Get("category_id"),
		Search:     q.Get("search"),
	}
	errs := validation.Errors{}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs.Add("available", "must be true or false")
		}
		f.AvailableOnly = b
	}
	for field, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if v := q.Get(field); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				errs.Add(field, "must be a number")
				continue
			}
			*dst = &d
		}
	}
	if err := errs.Err(); err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.store.Stores().Menu().List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []catalog.MenuItem{}
	}
	ok(w, items)
}

func (s *server) getMenuItem(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Stores().Menu().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, m)
}

// checkReferences verifies the category and every ingredient exist.
func checkReferences(ctx context.Context, st orders.Stores, m catalog.MenuItem) error {
	errs := validation.Errors{}
	if m.CategoryID != "" {
		if _, err := st.Menu().GetCategory(ctx, m.CategoryID); err != nil {
			if !errors.Is(err, catalog.ErrCategoryNotFound) {
				return err
			}
			errs.Add("category_id", "unknown category")
		}
	}
	for _, req := range m.Ingredients {
		if _, err := st.Stock().Get(ctx, req.IngredientID); err != nil {
			if !errors.Is(err, inventory.ErrNotFound) {
				return err
			}
			errs.Add("ingredients", "unknown ingredient "+req.IngredientID)
		}
	}
	return errs.Err()
}

func (s *server) createMenuItem(w http.ResponseWriter, r *http.Request) {
	m := catalog.MenuItem{Available: true}
	if err := decode(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	m.ID = ""
	if err := catalog.Validate(m); err != nil {
		s.writeError(w, r, err)
		return
	}

	var out catalog.MenuItem
	err := s.store.WithinTx(r.Context(), func(ctx context.Context, st orders.Stores) error {
		if err := checkReferences(ctx, st, m); err != nil {
			return err
		}
		var err error
		out, err = st.Menu().Create(ctx, m)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "menu item created", out)
}

func (s *server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var m catalog.MenuItem
	if err := decode(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	m.ID = chi.URLParam(r, "id")
	if err := catalog.Validate(m); err != nil {
		s.writeError(w, r, err)
		return
	}

	var out catalog.MenuItem
	err := s.store.WithinTx(r.Context(), func(ctx context.Context, st orders.Stores) error {
		if err := checkReferences(ctx, st, m); err != nil {
			return err
		}
		var err error
		out, err = st.Menu().Update(ctx, m)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "menu item updated", Data: out})
}

func (s *server) setMenuAvailability(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Available *bool `json:"is_available"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Available == nil {
		s.writeError(w, r, validationErr("is_available", "is required"))
		return
	}
	m, err := s.store.Stores().Menu().SetAvailability(r.Context(), chi.URLParam(r, "id"), *in.Available)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, m)
}

func (s *server) listCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.Stores().Menu().ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cs == nil {
		cs = []catalog.Category{}
	}
	ok(w, cs)
}

func (s *server) createCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := decode(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.ID = ""
	if err := catalog.ValidateCategory(c); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.Stores().Menu().CreateCategory(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "category created", out)
}

func (s *server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Stores().Menu().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "menu item deleted"})
}

func (s *server) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Stores().Menu().GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, c)
}

func (s *server) updateCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := decode(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := catalog.ValidateCategory(c); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.Stores().Menu().UpdateCategory(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "category updated", Data: out})
}

func (s *server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Stores().Menu().DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "category deleted"})
}
