package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
	"github.com/go-chi/chi/v5"
)

func (s *server) tableRoutes(r chi.Router) {
	r.Get("/tables", s.listTables)
	r.Get("/tables/available", s.availableTables)
	r.Get("/tables/{id}", s.getTable)

	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.ManageTables))
		r.Post("/tables", s.createTable)
		r.Put("/tables/{id}", s.updateTable)
		r.Delete("/tables/{id}", s.deleteTable)
	})
}

func (s *server) reservationRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.BookTable))
		r.Post("/reservations", s.bookTable)
		r.Get("/reservations/mine", s.myReservations)
		r.Post("/reservations/{id}/cancel", s.cancelReservation)
	})
	r.Get("/reservations/{id}", s.getReservation)

	r.Group(func(r chi.Router) {
		r.Use(s.require(auth.ManageReservations))
		r.Get("/reservations", s.listReservations)
		r.Patch("/reservations/{id}/status", s.setReservationStatus)
	})
}

func (s *server) listTables(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.Stores().Tables().List(r.Context())
	s.writeTables(w, r, ts, err)
}

func (s *server) availableTables(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.Stores().Tables().ListByStatus(r.Context(), tables.StatusAvailable)
	s.writeTables(w, r, ts, err)
}

func (s *server) writeTables(w http.ResponseWriter, r *http.Request, ts []tables.Table, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ts == nil {
		ts = []tables.Table{}
	}
	ok(w, ts)
}

func (s *server) getTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Stores().Tables().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, t)
}

func (s *server) createTable(w http.ResponseWriter, r *http.Request) {
	var t tables.Table
	if err := decode(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	t.ID = ""
	if t.Status == "" {
		t.Status = tables.StatusAvailable
	}
	if err := tables.Validate(t); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.Stores().Tables().Create(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "table created", out)
}

func (s *server) updateTable(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Number   *int           `json:"number"`
		Capacity *int           `json:"capacity"`
		Location *string        `json:"location"`
		Status   *tables.Status `json:"status"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	var out tables.Table
	err := s.store.WithinTx(r.Context(), func(ctx context.Context, st orders.Stores) error {
		t, err := st.Tables().Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			return err
		}
		if in.Number != nil {
			t.Number = *in.Number
		}
		if in.Capacity != nil {
			t.Capacity = *in.Capacity
		}
		if in.Location != nil {
			t.Location = *in.Location
		}
		if in.Status != nil {
			t.Status = *in.Status
		}
		if err := tables.Validate(t); err != nil {
			return err
		}
		out, err = st.Tables().Update(ctx, t)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "table updated", Data: out})
}

func (s *server) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Stores().Tables().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "table deleted"})
}

func (s *server) bookTable(w http.ResponseWriter, r *http.Request) {
	var req tables.BookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var out tables.Reservation
	err := s.store.WithinTx(r.Context(), func(ctx context.Context, st orders.Stores) error {
		var err error
		out, err = tables.Book(ctx, st.Tables(), principal(r).UserID, req, s.now())
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "reservation created", out)
}

func (s *server) myReservations(w http.ResponseWriter, r *http.Request) {
	s.writeReservations(w, r, tables.ReservationFilter{UserID: principal(r).UserID})
}

func (s *server) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := tables.ReservationFilter{Date: q.Get("date"), Status: tables.ReservationStatus(q.Get("status"))}
	if f.Status != "" && !f.Status.Valid() {
		s.writeError(w, r, validationErr("status", "must be one of pending, confirmed, cancelled, completed"))
		return
	}
	s.writeReservations(w, r, f)
}

func (s *server) writeReservations(w http.ResponseWriter, r *http.Request, f tables.ReservationFilter) {
	rs, err := s.store.Stores().Tables().ListReservations(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rs == nil {
		rs = []tables.Reservation{}
	}
	ok(w, rs)
}

// getReservation lets clients see only their own bookings.
func (s *server) getReservation(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.Stores().Tables().GetReservation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p := principal(r)
	if !auth.Can(p.Role, auth.ManageReservations) && res.UserID != p.UserID {
		s.writeError(w, r, auth.ErrForbidden)
		return
	}
	ok(w, res)
}

func (s *server) cancelReservation(w http.ResponseWriter, r *http.Request) {
	var out tables.Reservation
	err := s.store.WithinTx(r.Context(), func(ctx context.Context, st orders.Stores) error {
		var err error
		out, err = tables.CancelOwn(ctx, st.Tables(), principal(r).UserID, chi.URLParam(r, "id"))
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "reservation cancelled", Data: out})
}

func (s *server) setReservationStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status tables.ReservationStatus `json:"status"`
	}
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !in.Status.Valid() {
		s.writeError(w, r, validationErr("status", "must be one of pending, confirmed, cancelled, completed"))
		return
	}
	res, err := s.store.Stores().Tables().SetReservationStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "reservation updated", Data: res})
}
