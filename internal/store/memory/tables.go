package memory

import (
	"context"
	"sort"

	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
	"github.com/google/uuid"
)

type tableStore struct{ v view }

func (s tableStore) Get(ctx context.Context, id string) (tables.Table, error) {
	var out tables.Table
	err := s.v.do(func(st *state) error {
		t, ok := st.tables[id]
		if !ok {
			return tables.ErrNotFound
		}
		out = t
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: units of work already hold the store lock.
func (s tableStore) GetForUpdate(ctx context.Context, id string) (tables.Table, error) {
	return s.Get(ctx, id)
}

func (s tableStore) List(ctx context.Context) ([]tables.Table, error) {
	return s.ListByStatus(ctx, "")
}

// ListByStatus with an empty status lists every table.
func (s tableStore) ListByStatus(ctx context.Context, status tables.Status) ([]tables.Table, error) {
	var out []tables.Table
	err := s.v.do(func(st *state) error {
		for _, t := range st.tables {
			if status == "" || t.Status == status {
				out = append(out, t)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
		return nil
	})
	return out, err
}

func numberTaken(st *state, id string, number int) bool {
	for _, other := range st.tables {
		if other.ID != id && other.Number == number {
			return true
		}
	}
	return false
}

func (s tableStore) Create(ctx context.Context, t tables.Table) (tables.Table, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = tables.StatusAvailable
	}
	err := s.v.do(func(st *state) error {
		if numberTaken(st, t.ID, t.Number) {
			return tables.ErrDuplicateNumber
		}
		st.tables[t.ID] = t
		return nil
	})
	return t, err
}

func (s tableStore) Update(ctx context.Context, t tables.Table) (tables.Table, error) {
	err := s.v.do(func(st *state) error {
		if _, ok := st.tables[t.ID]; !ok {
			return tables.ErrNotFound
		}
		if numberTaken(st, t.ID, t.Number) {
			return tables.ErrDuplicateNumber
		}
		st.tables[t.ID] = t
		return nil
	})
	return t, err
}

func (s tableStore) Delete(ctx context.Context, id string) error {
	return s.v.do(func(st *state) error {
		if _, ok := st.tables[id]; !ok {
			return tables.ErrNotFound
		}
		for _, o := range st.orders {
			if o.TableID == id {
				return tables.ErrInUse
			}
		}
		for _, r := range st.reservations {
			if r.TableID == id {
				return tables.ErrInUse
			}
		}
		delete(st.tables, id)
		return nil
	})
}

func (s tableStore) CreateReservation(ctx context.Context, r tables.Reservation) (tables.Reservation, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	err := s.v.do(func(st *state) error {
		if _, ok := st.tables[r.TableID]; !ok {
			return tables.ErrNotFound
		}
		if r.Status.Active() && slotTaken(st, r.TableID, r.Date, r.Time) {
			return tables.ErrAlreadyBooked
		}
		st.reservations[r.ID] = r
		return nil
	})
	return r, err
}

func (s tableStore) GetReservation(ctx context.Context, id string) (tables.Reservation, error) {
	var out tables.Reservation
	err := s.v.do(func(st *state) error {
		r, ok := st.reservations[id]
		if !ok {
			return tables.ErrReservationNotFound
		}
		out = r
		return nil
	})
	return out, err
}

func (s tableStore) ListReservations(ctx context.Context, f tables.ReservationFilter) ([]tables.Reservation, error) {
	var out []tables.Reservation
	err := s.v.do(func(st *state) error {
		for _, r := range st.reservations {
			if f.Match(r) {
				out = append(out, r)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Date != out[j].Date {
				return out[i].Date > out[j].Date
			}
			return out[i].Time > out[j].Time
		})
		return nil
	})
	return out, err
}

func (s tableStore) SetReservationStatus(ctx context.Context, id string, status tables.ReservationStatus) (tables.Reservation, error) {
	var out tables.Reservation
	err := s.v.do(func(st *state) error {
		r, ok := st.reservations[id]
		if !ok {
			return tables.ErrReservationNotFound
		}
		if status.Active() && !r.Status.Active() && slotTaken(st, r.TableID, r.Date, r.Time) {
			return tables.ErrAlreadyBooked
		}
		r.Status = status
		st.reservations[id] = r
		out = r
		return nil
	})
	return out, err
}

func (s tableStore) SlotTaken(ctx context.Context, tableID, date, at string) (bool, error) {
	taken := false
	err := s.v.do(func(st *state) error {
		taken = slotTaken(st, tableID, date, at)
		return nil
	})
	return taken, err
}

// slotTaken mirrors the partial unique index on active reservations.
func slotTaken(st *state, tableID, date, at string) bool {
	for _, r := range st.reservations {
		if r.TableID == tableID && r.Date == date && r.Time == at && r.Status.Active() {
			return true
		}
	}
	return false
}
