package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (s *server) inventoryRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.ManageInventory))
		r.Get("/ingredients", s.listIngredients)
		r.Get("/ingredients/low-stock", s.lowStock)
		r.Get("/ingredients/{id}", s.getIngredient)
		r.Post("/ingredients", s.createIngredient)
		r.Put("/ingredients/{id}", s.updateIngredient)
		r.Delete("/ingredients/{id}", s.deleteIngredient)
		r.Patch("/ingredients/{id}/stock", s.adjustStock)
	})
}

func (s *server) listIngredients(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.Stores().Stock().List(r.Context())
	s.writeIngredients(w, r, list, err)
}

func (s *server) lowStock(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.Stores().Stock().ListBelowThreshold(r.Context())
	s.writeIngredients(w, r, list, err)
}

func (s *server) writeIngredients(w http.ResponseWriter, r *http.Request, list []inventory.Ingredient, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []inventory.Ingredient{}
	}
	ok(w, list)
}

func (s *server) getIngredient(w http.ResponseWriter, r *http.Request) {
	in, err := s.store.Stores().Stock().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, in)
}

func (s *server) createIngredient(w http.ResponseWriter, r *http.Request) {
	var in inventory.Ingredient
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = ""
	if err := inventory.Validate(in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.Stores().Stock().Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "ingredient created", out)
}

func (s *server) adjustStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Operation inventory.Operation `json:"operation"`
		Quantity  *decimal.Decimal    `json:"quantity"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	errs := validation.Errors{}
	if in.Quantity == nil {
		errs.Add("quantity", "is required")
	} else if in.Quantity.IsNegative() {
		errs.Add("quantity", "must be at least 0")
	}
	if err := errs.Err(); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.Stores().Stock().Adjust(r.Context(), chi.URLParam(r, "id"), in.Operation, *in.Quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "stock updated", Data: out})
}

// updateIngredient edits name, unit and thresholds. Stock moves through
// the stock endpoint only.
func (s *server) updateIngredient(w http.ResponseWriter, r *http.Request) {
	var in inventory.Ingredient
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = chi.URLParam(r, "id")
	in.StockQuantity = decimal.Zero
	if err := inventory.Validate(in); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.Stores().Stock().Update(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ingredient updated", Data: out})
}

func (s *server) deleteIngredient(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Stores().Stock().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ingredient deleted"})
}
