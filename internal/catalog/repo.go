package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repo is the Postgres-backed Store. Create and Update write two tables,
// so callers pass a transaction as DB.
type Repo struct{ DB postgres.DBTX }

const menuCols = `id, COALESCE(category_id::text, ''), name, description, price, is_available, preparation_time, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price, &m.Available, &m.PreparationTime, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *Repo) Get(ctx context.Context, id string) (MenuItem, error) {
	m, err := scanMenuItem(r.DB.QueryRow(ctx, `SELECT `+menuCols+` FROM menu_items WHERE id=$1`, id))
	if postgres.IsNoRows(err) {
		return MenuItem{}, ErrNotFound
	}
	if err != nil {
		return MenuItem{}, err
	}
	m.Ingredients, err = r.IngredientsRequired(ctx, id)
	return m, err
}

func (r *Repo) List(ctx context.Context, f Filter) ([]MenuItem, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoryID != "" {
		add("category_id = $%d", f.CategoryID)
	}
	if f.AvailableOnly {
		where = append(where, "is_available")
	}
	if f.MinPrice != nil {
		add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("price <= $%d", *f.MaxPrice)
	}
	if f.Search != "" {
		add("name ILIKE '%%' || $%d || '%%'", f.Search)
	}
	sql := `SELECT ` + menuCols + ` FROM menu_items`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY name`

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		m.Ingredients = []Requirement{}
		index[m.ID] = len(out)
		ids = append(ids, m.ID)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	reqs, err := r.DB.Query(ctx, `
		SELECT menu_item_id, ingredient_id, quantity_needed
		  FROM menu_ingredients
		 WHERE menu_item_id = ANY($1)
		 ORDER BY menu_item_id, position`, ids)
	if err != nil {
		return nil, err
	}
	defer reqs.Close()
	for reqs.Next() {
		var mid string
		var req Requirement
		if err := reqs.Scan(&mid, &req.IngredientID, &req.Quantity); err != nil {
			return nil, err
		}
		i := index[mid]
		out[i].Ingredients = append(out[i].Ingredients, req)
	}
	return out, reqs.Err()
}

func (r *Repo) IngredientsRequired(ctx context.Context, id string) ([]Requirement, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ingredient_id, quantity_needed
		  FROM menu_ingredients
		 WHERE menu_item_id=$1
		 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Requirement{}
	for rows.Next() {
		var req Requirement
		if err := rows.Scan(&req.IngredientID, &req.Quantity); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repo) Create(ctx context.Context, m MenuItem) (MenuItem, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO menu_items(id, category_id, name, description, price, is_available, preparation_time, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())`,
		m.ID, nullable(m.CategoryID), m.Name, m.Description, m.Price, m.Available, m.PreparationTime)
	if err != nil {
		return MenuItem{}, err
	}
	if err := r.writeIngredients(ctx, m.ID, m.Ingredients); err != nil {
		return MenuItem{}, err
	}
	return r.Get(ctx, m.ID)
}

func (r *Repo) Update(ctx context.Context, m MenuItem) (MenuItem, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE menu_items
		   SET category_id=$2, name=$3, description=$4, price=$5, is_available=$6, preparation_time=$7, updated_at=now()
		 WHERE id=$1`,
		m.ID, nullable(m.CategoryID), m.Name, m.Description, m.Price, m.Available, m.PreparationTime)
	if err != nil {
		return MenuItem{}, err
	}
	if ct.RowsAffected() == 0 {
		return MenuItem{}, ErrNotFound
	}
	if _, err := r.DB.Exec(ctx, `DELETE FROM menu_ingredients WHERE menu_item_id=$1`, m.ID); err != nil {
		return MenuItem{}, err
	}
	if err := r.writeIngredients(ctx, m.ID, m.Ingredients); err != nil {
		return MenuItem{}, err
	}
	return r.Get(ctx, m.ID)
}

func (r *Repo) writeIngredients(ctx context.Context, menuItemID string, reqs []Requirement) error {
	for i, req := range reqs {
		if _, err := r.DB.Exec(ctx, `
			INSERT INTO menu_ingredients(menu_item_id, ingredient_id, position, quantity_needed)
			VALUES ($1,$2,$3,$4)`, menuItemID, req.IngredientID, i, req.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) SetAvailability(ctx context.Context, id string, available bool) (MenuItem, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE menu_items SET is_available=$2, updated_at=now() WHERE id=$1`, id, available)
	if err != nil {
		return MenuItem{}, err
	}
	if ct.RowsAffected() == 0 {
		return MenuItem{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
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

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := r.DB.QueryRow(ctx, `SELECT id, name, description, created_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if postgres.IsNoRows(err) {
		return Category{}, ErrCategoryNotFound
	}
	return c, err
}

func (r *Repo) CreateCategory(ctx context.Context, c Category) (Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO categories(id, name, description, created_at) VALUES ($1,$2,$3, now())
		RETURNING created_at`, c.ID, c.Name, c.Description).Scan(&c.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return Category{}, ErrDuplicateName
	}
	return c, err
}

func (r *Repo) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	err := r.DB.QueryRow(ctx, `
		UPDATE categories SET name=$2, description=$3 WHERE id=$1
		RETURNING created_at`, c.ID, c.Name, c.Description).Scan(&c.CreatedAt)
	switch {
	case postgres.IsNoRows(err):
		return Category{}, ErrCategoryNotFound
	case postgres.IsUniqueViolation(err):
		return Category{}, ErrDuplicateName
	}
	return c, err
}

func (r *Repo) DeleteCategory(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if postgres.IsNoRows(err) || (err == nil && ct.RowsAffected() == 0) {
		return ErrCategoryNotFound
	}
	return err
}
