package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	TableID       string          `json:"table_id"`
	TableNumber   int             `json:"table_number"`
	ServerID      string          `json:"server_id,omitempty"`
	ServerName    string          `json:"server_name,omitempty"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	Items         []OrderItem     `json:"items"`

	// Consumptions is the stock ledger: what was taken from inventory for
	// each item while the order was confirmed.
	Consumptions []Consumption `json:"-"`
}

type OrderItem struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	MenuItemID   string          `json:"menu_item_id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SpecialNotes string          `json:"special_notes,omitempty"`
	Status       Status          `json:"status"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Consumption struct {
	OrderItemID  string
	IngredientID string
	Quantity     decimal.Decimal
}

// Clone returns a deep copy safe to mutate independently.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.Consumptions = append([]Consumption(nil), o.Consumptions...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	return &c
}

func (o *Order) item(id string) (int, bool) {
	for i, it := range o.Items {
		if it.ID == id {
			return i, true
		}
	}
	return -1, false
}

// setStatus moves the order and mirrors the status onto every item.
func (o *Order) setStatus(s Status, at time.Time) {
	o.Status = s
	for i := range o.Items {
		o.Items[i].Status = s
	}
	o.UpdatedAt = at
}

// takeConsumptions removes and returns the ledger entries of one item,
// or of every item when itemID is empty.
func (o *Order) takeConsumptions(itemID string) []Consumption {
	var taken, kept []Consumption
	for _, c := range o.Consumptions {
		if itemID == "" || c.OrderItemID == itemID {
			taken = append(taken, c)
		} else {
			kept = append(kept, c)
		}
	}
	o.Consumptions = kept
	return taken
}
