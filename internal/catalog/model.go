package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("menu item not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrUnavailable      = errors.New("menu item is not available")
	ErrDuplicateName    = errors.New("category name already exists")
	ErrInUse            = errors.New("menu item is referenced by existing orders")
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Requirement is the quantity of one ingredient used per unit sold.
type Requirement struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity_needed"`
}

type MenuItem struct {
	ID              string          `json:"id"`
	CategoryID      string          `json:"category_id,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Available       bool            `json:"is_available"`
	PreparationTime int             `json:"preparation_time"`
	Ingredients     []Requirement   `json:"ingredients"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Filter narrows List. Zero values mean "no constraint".
type Filter struct {
	CategoryID    string
	AvailableOnly bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Search        string
}

// Match reports whether m passes every constraint in f.
func (f Filter) Match(m MenuItem) bool {
	if f.CategoryID != "" && m.CategoryID != f.CategoryID {
		return false
	}
	if f.AvailableOnly && !m.Available {
		return false
	}
	if f.MinPrice != nil && m.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && m.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

type Store interface {
	Get(ctx context.Context, id string) (MenuItem, error)
	List(ctx context.Context, f Filter) ([]MenuItem, error)
	Create(ctx context.Context, m MenuItem) (MenuItem, error)
	Update(ctx context.Context, m MenuItem) (MenuItem, error)
	SetAvailability(ctx context.Context, id string, available bool) (MenuItem, error)
	IngredientsRequired(ctx context.Context, id string) ([]Requirement, error)
	// Delete fails with ErrInUse while orders still reference the item.
	Delete(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (Category, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) (Category, error)
	// DeleteCategory leaves its menu items uncategorised.
	DeleteCategory(ctx context.Context, id string) error
}

// IsAvailable reports whether the item exists and may be sold right now.
func IsAvailable(ctx context.Context, s Store, id string) (bool, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return m.Available, nil
}

func Validate(m MenuItem) error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Name) == "" {
		errs.Add("name", "is required")
	} else if len(m.Name) > 255 {
		errs.Add("name", "must be at most 255 characters")
	}
	if !m.Price.IsPositive() {
		errs.Add("price", "must be greater than 0")
	} else if !m.Price.Equal(m.Price.Round(2)) {
		errs.Add("price", "must have at most 2 decimals")
	}
	if m.PreparationTime < 0 {
		errs.Add("preparation_time", "must be at least 0")
	}
	seen := map[string]bool{}
	for _, r := range m.Ingredients {
		if r.IngredientID == "" {
			errs.Add("ingredients", "ingredient_id is required")
			continue
		}
		if seen[r.IngredientID] {
			errs.Add("ingredients", "ingredient listed twice: "+r.IngredientID)
		}
		seen[r.IngredientID] = true
		if !r.Quantity.IsPositive() {
			errs.Add("ingredients", "quantity_needed must be greater than 0")
		}
	}
	return errs.Err()
}

func ValidateCategory(c Category) error {
	errs := validation.Errors{}
	if strings.TrimSpace(c.Name) == "" {
		errs.Add("name", "is required")
	} else if len(c.Name) > 255 {
		errs.Add("name", "must be at most 255 characters")
	}
	return errs.Err()
}
