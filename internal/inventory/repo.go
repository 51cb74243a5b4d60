package inventory

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repo is the Postgres-backed Store. DB is a pool or a transaction.
type Repo struct{ DB postgres.DBTX }

const ingredientCols = `id, name, unit, stock_quantity, min_stock, cost_per_unit, updated_at`

func scanIngredient(row pgx.Row) (Ingredient, error) {
	var in Ingredient
	err := row.Scan(&in.ID, &in.Name, &in.Unit, &in.StockQuantity, &in.MinStock, &in.CostPerUnit, &in.UpdatedAt)
	return in, err
}

func (r *Repo) Get(ctx context.Context, id string) (Ingredient, error) {
	in, err := scanIngredient(r.DB.QueryRow(ctx, `SELECT `+ingredientCols+` FROM ingredients WHERE id=$1`, id))
	if postgres.IsNoRows(err) {
		return Ingredient{}, ErrNotFound
	}
	return in, err
}

func (r *Repo) List(ctx context.Context) ([]Ingredient, error) {
	return r.list(ctx, `SELECT `+ingredientCols+` FROM ingredients ORDER BY name`)
}

func (r *Repo) ListBelowThreshold(ctx context.Context) ([]Ingredient, error) {
	return r.list(ctx, `SELECT `+ingredientCols+` FROM ingredients WHERE stock_quantity <= min_stock ORDER BY name`)
}

func (r *Repo) list(ctx context.Context, sql string) ([]Ingredient, error) {
	rows, err := r.DB.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		in, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, in Ingredient) (Ingredient, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	out, err := scanIngredient(r.DB.QueryRow(ctx, `
		INSERT INTO ingredients(id, name, unit, stock_quantity, min_stock, cost_per_unit, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		RETURNING `+ingredientCols,
		in.ID, in.Name, in.Unit, in.StockQuantity, in.MinStock, in.CostPerUnit))
	if postgres.IsUniqueViolation(err) {
		return Ingredient{}, ErrDuplicateName
	}
	return out, err
}

func (r *Repo) Update(ctx context.Context, in Ingredient) (Ingredient, error) {
	out, err := scanIngredient(r.DB.QueryRow(ctx, `
		UPDATE ingredients
		   SET name=$2, unit=$3, min_stock=$4, cost_per_unit=$5, updated_at=now()
		 WHERE id=$1
		RETURNING `+ingredientCols,
		in.ID, in.Name, in.Unit, in.MinStock, in.CostPerUnit))
	switch {
	case postgres.IsNoRows(err):
		return Ingredient{}, ErrNotFound
	case postgres.IsUniqueViolation(err):
		return Ingredient{}, ErrDuplicateName
	}
	return out, err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM ingredients WHERE id=$1`, id)
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

// Consume locks the row (FOR UPDATE) before decrementing so concurrent
// consumers serialise and stock never goes negative.
func (r *Repo) Consume(ctx context.Context, id string, qty decimal.Decimal) error {
	in, err := scanIngredient(r.DB.QueryRow(ctx, `SELECT `+ingredientCols+` FROM ingredients WHERE id=$1 FOR UPDATE`, id))
	if postgres.IsNoRows(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if in.StockQuantity.LessThan(qty) {
		return &InsufficientStockError{
			IngredientID: in.ID, Name: in.Name, Unit: in.Unit,
			Required: qty, Available: in.StockQuantity,
		}
	}
	ct, err := r.DB.Exec(ctx, `UPDATE ingredients SET stock_quantity = stock_quantity - $2, updated_at=now() WHERE id=$1`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("consume %s: %d rows affected", id, ct.RowsAffected())
	}
	return nil
}

func (r *Repo) Restore(ctx context.Context, id string, qty decimal.Decimal) error {
	ct, err := r.DB.Exec(ctx, `UPDATE ingredients SET stock_quantity = stock_quantity + $2, updated_at=now() WHERE id=$1`, id, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Adjust(ctx context.Context, id string, op Operation, qty decimal.Decimal) (Ingredient, error) {
	in, err := scanIngredient(r.DB.QueryRow(ctx, `SELECT `+ingredientCols+` FROM ingredients WHERE id=$1 FOR UPDATE`, id))
	if postgres.IsNoRows(err) {
		return Ingredient{}, ErrNotFound
	}
	if err != nil {
		return Ingredient{}, err
	}
	next, err := Apply(in.StockQuantity, op, qty)
	if err != nil {
		return Ingredient{}, err
	}
	return scanIngredient(r.DB.QueryRow(ctx, `
		UPDATE ingredients SET stock_quantity=$2, updated_at=now() WHERE id=$1
		RETURNING `+ingredientCols, id, next))
}
