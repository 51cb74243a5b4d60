package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an ingredient is missing so HTTP handlers can respond with 404.
	ErrNotFound          = errors.New("ingredient not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateName     = errors.New("ingredient name already exists")
	ErrInUse             = errors.New("ingredient is used by menu items or orders")
)

type Ingredient struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Low reports whether stock has fallen to or below the threshold.
func (i Ingredient) Low() bool { return i.StockQuantity.LessThanOrEqual(i.MinStock) }

// InsufficientStockError names the ingredient that could not cover a consumption.
type InsufficientStockError struct {
	IngredientID string
	Name         string
	Unit         string
	Required     decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %s %s, available %s %s",
		e.Name, e.Required.StringFixed(2), e.Unit, e.Available.StringFixed(2), e.Unit)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// Operation is a manual stock adjustment kind.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpSet      Operation = "set"
)

// Store holds ingredient rows. Consume and Restore are the only writers of
// stock on the order path; Adjust is the manager's manual override.
type Store interface {
	Get(ctx context.Context, id string) (Ingredient, error)
	List(ctx context.Context) ([]Ingredient, error)
	Create(ctx context.Context, in Ingredient) (Ingredient, error)
	// Update rewrites the descriptive fields. Stock is left untouched.
	Update(ctx context.Context, in Ingredient) (Ingredient, error)
	// Delete fails with ErrInUse while a recipe or a stock ledger refers to it.
	Delete(ctx context.Context, id string) error
	Consume(ctx context.Context, id string, qty decimal.Decimal) error
	Restore(ctx context.Context, id string, qty decimal.Decimal) error
	Adjust(ctx context.Context, id string, op Operation, qty decimal.Decimal) (Ingredient, error)
	ListBelowThreshold(ctx context.Context) ([]Ingredient, error)
}

// Apply computes the stock after a manual adjustment. Subtract clamps at zero.
func Apply(current decimal.Decimal, op Operation, qty decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpAdd:
		return current.Add(qty), nil
	case OpSubtract:
		next := current.Sub(qty)
		if next.IsNegative() {
			return decimal.Zero, nil
		}
		return next, nil
	case OpSet:
		return qty, nil
	default:
		return current, validation.Errors{"operation": "must be one of add, subtract, set"}
	}
}

// Validate checks an ingredient before it is stored.
func Validate(in Ingredient) error {
	errs := validation.Errors{}
	if strings.TrimSpace(in.Name) == "" {
		errs.Add("name", "is required")
	} else if len(in.Name) > 255 {
		errs.Add("name", "must be at most 255 characters")
	}
	if strings.TrimSpace(in.Unit) == "" {
		errs.Add("unit", "is required")
	} else if len(in.Unit) > 50 {
		errs.Add("unit", "must be at most 50 characters")
	}
	if in.StockQuantity.IsNegative() {
		errs.Add("stock_quantity", "must be at least 0")
	}
	if in.MinStock.IsNegative() {
		errs.Add("min_stock", "must be at least 0")
	}
	if in.CostPerUnit.IsNegative() {
		errs.Add("cost_per_unit", "must be at least 0")
	}
	return errs.Err()
}
