package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/redisx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *server) orderRoutes(r chi.Router) {
	r.With(s.require(auth.CreateOrder)).Post("/orders", s.createOrder)
	r.With(s.require(auth.ViewOwnOrders)).Get("/orders", s.listOrders)
	r.With(s.require(auth.ViewOwnOrders)).Get("/orders/{id}", s.getOrder)
	r.With(s.require(auth.ViewOwnOrders)).Get("/orders/{id}/status", s.orderStatus)

	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.ManageOrders))
		r.Patch("/orders/{id}", s.updateOrderDetails)
		r.Patch("/orders/{id}/status", s.updateOrderStatus)
		r.Post("/orders/{id}/items", s.addOrderItems)
		r.Delete("/orders/{id}/items/{itemID}", s.removeOrderItem)
		r.Post("/orders/{id}/pay", s.payOrder)
		r.Get("/orders/{id}/bill", s.orderBill)
		r.Get("/tables/{id}/orders", s.tableOrders)
	})
}

const idempotencyHeader = "Idempotency-Key"

func (s *server) createOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.CreateInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	p := principal(r)

	key := r.Header.Get(idempotencyHeader)
	if key != "" {
		// keys are per caller
		key = p.UserID + ":" + key
	}
	if key != "" && s.idem != nil {
		existing, fresh, err := s.idem.Begin(ctx, key)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !fresh {
			if existing == "" {
				s.writeError(w, r, errRequestInFlight)
				return
			}
			o, err := s.engine.Get(ctx, existing)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			if !canSee(p, o) {
				s.writeError(w, r, auth.ErrForbidden)
				return
			}
			writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "order already created", Data: o})
			return
		}
	}

	o, err := s.engine.Create(ctx, p, in)
	if key != "" && s.idem != nil {
		s.finishIdempotent(ctx, key, o, err)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "order created", o)
}

func (s *server) finishIdempotent(ctx context.Context, key string, o *orders.Order, err error) {
	if err != nil {
		if aerr := s.idem.Abort(ctx, key); aerr != nil {
			s.log.Warn("idempotency release failed", zap.String("key", key), zap.Error(aerr))
		}
		return
	}
	if cerr := s.idem.Complete(ctx, key, o.ID); cerr != nil {
		s.log.Warn("idempotency store failed", zap.String("key", key), zap.Error(cerr))
	}
}

// listOrders shows staff every order and clients their own.
func (s *server) listOrders(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	var f orders.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			status := orders.Status(strings.TrimSpace(st))
			if !status.Valid() {
				s.writeError(w, r, validationErr("status", "unknown status "+st))
				return
			}
			f.Statuses = append(f.Statuses, status)
		}
	}
	if !auth.Can(p.Role, auth.ManageOrders) {
		f.CustomerID = p.UserID
	} else if v := r.URL.Query().Get("table_id"); v != "" {
		f.TableID = v
	}

	list, err := s.engine.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	ok(w, list)
}

// visibleOrder loads an order the caller may see.
func (s *server) visibleOrder(r *http.Request) (*orders.Order, error) {
	o, err := s.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if !canSee(principal(r), o) {
		return nil, auth.ErrForbidden
	}
	return o, nil
}

func canSee(p auth.Principal, o *orders.Order) bool {
	return auth.Can(p.Role, auth.ManageOrders) || o.CustomerID == p.UserID
}

func (s *server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.visibleOrder(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, o)
}

// orderStatus answers from the status cache when it can.
func (s *server) orderStatus(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	id := chi.URLParam(r, "id")
	if s.status != nil && auth.Can(p.Role, auth.ManageOrders) {
		if st, hit, err := s.status.Status(r.Context(), id); err == nil && hit {
			ok(w, st)
			return
		}
	}
	o, err := s.visibleOrder(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, redisx.OrderStatus{
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		UpdatedAt:     o.UpdatedAt,
	})
}

func (s *server) updateOrderDetails(w http.ResponseWriter, r *http.Request) {
	var in orders.DetailsInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.engine.UpdateDetails(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "order updated", Data: o})
}

func (s *server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status orders.Status `json:"status"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.engine.UpdateStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "order status updated", Data: o})
}

func (s *server) addOrderItems(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items []orders.ItemInput `json:"items"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.engine.AddItems(r.Context(), chi.URLParam(r, "id"), in.Items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "items added", Data: o})
}

func (s *server) removeOrderItem(w http.ResponseWriter, r *http.Request) {
	o, err := s.engine.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "item removed", Data: o})
}

func (s *server) payOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PaymentMethod orders.PaymentMethod `json:"payment_method"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.engine.Pay(r.Context(), chi.URLParam(r, "id"), in.PaymentMethod)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "payment recorded", Data: o})
}

func (s *server) orderBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.Bill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, b)
}

func (s *server) tableOrders(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.TableOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*orders.Order{}
	}
	ok(w, list)
}
