package tables

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

const tableCols = `id, number, capacity, location, status`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.Location, &t.Status)
	return t, err
}

func (r *Repo) Get(ctx context.Context, id string) (Table, error) {
	return r.get(ctx, `SELECT `+tableCols+` FROM tables WHERE id=$1`, id)
}

func (r *Repo) GetForUpdate(ctx context.Context, id string) (Table, error) {
	return r.get(ctx, `SELECT `+tableCols+` FROM tables WHERE id=$1 FOR UPDATE`, id)
}

func (r *Repo) get(ctx context.Context, sql, id string) (Table, error) {
	t, err := scanTable(r.DB.QueryRow(ctx, sql, id))
	if postgres.IsNoRows(err) {
		return Table{}, ErrNotFound
	}
	return t, err
}

func (r *Repo) List(ctx context.Context) ([]Table, error) {
	return r.list(ctx, `SELECT `+tableCols+` FROM tables ORDER BY number`)
}

func (r *Repo) ListByStatus(ctx context.Context, s Status) ([]Table, error) {
	return r.list(ctx, `SELECT `+tableCols+` FROM tables WHERE status=$1 ORDER BY number`, s)
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]Table, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, t Table) (Table, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusAvailable
	}
	out, err := scanTable(r.DB.QueryRow(ctx, `
		INSERT INTO tables(id, number, capacity, location, status) VALUES ($1,$2,$3,$4,$5)
		RETURNING `+tableCols, t.ID, t.Number, t.Capacity, t.Location, t.Status))
	if postgres.IsUniqueViolation(err) {
		return Table{}, ErrDuplicateNumber
	}
	return out, err
}

func (r *Repo) Update(ctx context.Context, t Table) (Table, error) {
	out, err := scanTable(r.DB.QueryRow(ctx, `
		UPDATE tables SET number=$2, capacity=$3, location=$4, status=$5 WHERE id=$1
		RETURNING `+tableCols, t.ID, t.Number, t.Capacity, t.Location, t.Status))
	switch {
	case postgres.IsNoRows(err):
		return Table{}, ErrNotFound
	case postgres.IsUniqueViolation(err):
		return Table{}, ErrDuplicateNumber
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM tables WHERE id=$1`, id)
	switch {
	case postgres.IsForeignKeyViolation(err):
		return ErrInUse
	case postgres.IsNoRows(err):
		return ErrNotFound
	case err != nil:
		return err
	case ct.RowsAffected() == 0:
		return ErrNotFound
	}
	return nil
}

const reservationCols = `id, user_id, table_id, date, time, guests_count, special_requests, status, created_at`

func scanReservation(row pgx.Row) (Reservation, error) {
	var r Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.TableID, &r.Date, &r.Time, &r.GuestsCount, &r.SpecialRequests, &r.Status, &r.CreatedAt)
	return r, err
}

func (r *Repo) CreateReservation(ctx context.Context, res Reservation) (Reservation, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	out, err := scanReservation(r.DB.QueryRow(ctx, `
		INSERT INTO reservations(id, user_id, table_id, date, time, guests_count, special_requests, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+reservationCols,
		res.ID, res.UserID, res.TableID, res.Date, res.Time, res.GuestsCount, res.SpecialRequests, res.Status, res.CreatedAt))
	if postgres.IsUniqueViolation(err) {
		return Reservation{}, ErrAlreadyBooked
	}
	return out, err
}

func (r *Repo) GetReservation(ctx context.Context, id string) (Reservation, error) {
	res, err := scanReservation(r.DB.QueryRow(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id=$1`, id))
	if postgres.IsNoRows(err) {
		return Reservation{}, ErrReservationNotFound
	}
	return res, err
}

func (r *Repo) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.UserID != "" {
		add("user_id", f.UserID)
	}
	if f.Date != "" {
		add("date", f.Date)
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	sql := `SELECT ` + reservationCols + ` FROM reservations`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY date DESC, time DESC`

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repo) SetReservationStatus(ctx context.Context, id string, s ReservationStatus) (Reservation, error) {
	res, err := scanReservation(r.DB.QueryRow(ctx, `
		UPDATE reservations SET status=$2 WHERE id=$1 RETURNING `+reservationCols, id, s))
	if postgres.IsNoRows(err) {
		return Reservation{}, ErrReservationNotFound
	}
	if postgres.IsUniqueViolation(err) {
		return Reservation{}, ErrAlreadyBooked
	}
	return res, err
}

func (r *Repo) SlotTaken(ctx context.Context, tableID, date, at string) (bool, error) {
	var taken bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			 WHERE table_id=$1 AND date=$2 AND time=$3 AND status IN ('pending','confirmed'))`,
		tableID, date, at).Scan(&taken)
	return taken, err
}
