package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/jackc/pgx/v5"
)

// Repo is the Postgres-backed Repository. Writes touch three tables, so
// DB must be a transaction for Create and Save.
type Repo struct{ DB postgres.DBTX }

const orderCols = `id, customer_id, customer_name, table_id, table_number, server_id, server_name,
	status, payment_method, payment_status, subtotal, tax, total, notes, created_at, updated_at, paid_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.TableID, &o.TableNumber, &o.ServerID, &o.ServerName,
		&o.Status, &o.PaymentMethod, &o.PaymentStatus, &o.Subtotal, &o.Tax, &o.Total, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt)
	if err != nil {
		return nil, err
	}
	o.Items = []OrderItem{}
	return &o, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	return r.get(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
}

func (r *Repo) GetForUpdate(ctx context.Context, id string) (*Order, error) {
	return r.get(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, id)
}

func (r *Repo) get(ctx context.Context, sql, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, sql, id))
	if postgres.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, map[string]*Order{o.ID: o}); err != nil {
		return nil, err
	}
	if err := r.loadConsumptions(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) loadItems(ctx context.Context, byID map[string]*Order) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price, special_notes, status
		  FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice, &it.SpecialNotes, &it.Status); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *Repo) loadConsumptions(ctx context.Context, o *Order) error {
	rows, err := r.DB.Query(ctx, `
		SELECT order_item_id, ingredient_id, quantity
		  FROM stock_consumptions
		 WHERE order_id=$1
		 ORDER BY position`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c Consumption
		if err := rows.Scan(&c.OrderItemID, &c.IngredientID, &c.Quantity); err != nil {
			return err
		}
		o.Consumptions = append(o.Consumptions, c)
	}
	return rows.Err()
}

// List returns matching orders with their items, newest first. The stock
// ledger is not loaded.
func (r *Repo) List(ctx context.Context, f Filter) ([]*Order, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if len(f.Statuses) > 0 {
		ss := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			ss = append(ss, string(s))
		}
		add("status = ANY($%d)", ss)
	}
	if f.TableID != "" {
		add("table_id = $%d", f.TableID)
	}
	if f.CustomerID != "" {
		add("customer_id = $%d", f.CustomerID)
	}
	if f.PaymentStatus != "" {
		add("payment_status = $%d", f.PaymentStatus)
	}
	if !f.CreatedFrom.IsZero() {
		add("created_at >= $%d", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		add("created_at < $%d", f.CreatedTo)
	}
	sql := `SELECT ` + orderCols + ` FROM orders`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	byID := map[string]*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
		byID[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	return out, r.loadItems(ctx, byID)
}

func (r *Repo) Create(ctx context.Context, o *Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, customer_id, customer_name, table_id, table_number, server_id, server_name,
		                   status, payment_method, payment_status, subtotal, tax, total, notes, created_at, updated_at, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		o.ID, o.CustomerID, o.CustomerName, o.TableID, o.TableNumber, o.ServerID, o.ServerName,
		o.Status, o.PaymentMethod, o.PaymentStatus, o.Subtotal, o.Tax, o.Total, o.Notes, o.CreatedAt, o.UpdatedAt, o.PaidAt)
	if err != nil {
		return err
	}
	return r.writeChildren(ctx, o)
}

// Save rewrites the order row, its items and its ledger.
func (r *Repo) Save(ctx context.Context, o *Order) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		   SET server_id=$2, server_name=$3, status=$4, payment_method=$5, payment_status=$6,
		       subtotal=$7, tax=$8, total=$9, notes=$10, updated_at=$11, paid_at=$12
		 WHERE id=$1`,
		o.ID, o.ServerID, o.ServerName, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.Subtotal, o.Tax, o.Total, o.Notes, o.UpdatedAt, o.PaidAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	if _, err := r.DB.Exec(ctx, `DELETE FROM stock_consumptions WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	if _, err := r.DB.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return err
	}
	return r.writeChildren(ctx, o)
}

func (r *Repo) writeChildren(ctx context.Context, o *Order) error {
	for i, it := range o.Items {
		if _, err := r.DB.Exec(ctx, `
			INSERT INTO order_items(id, order_id, menu_item_id, name, quantity, unit_price, special_notes, status, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, o.ID, it.MenuItemID, it.Name, it.Quantity, it.UnitPrice, it.SpecialNotes, it.Status, i); err != nil {
			return err
		}
	}
	for i, c := range o.Consumptions {
		if _, err := r.DB.Exec(ctx, `
			INSERT INTO stock_consumptions(order_id, order_item_id, ingredient_id, quantity, position)
			VALUES ($1,$2,$3,$4,$5)`, o.ID, c.OrderItemID, c.IngredientID, c.Quantity, i); err != nil {
			return err
		}
	}
	return nil
}
