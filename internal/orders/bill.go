package orders

import "github.com/shopspring/decimal"

type BillLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type Bill struct {
	OrderID       string          `json:"order_id"`
	TableNumber   int             `json:"table_number"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	Server        string          `json:"server"`
	Items         []BillLine      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewBill projects an order onto its printable bill. The server line falls
// back to the customer when no server was assigned.
func NewBill(o *Order) Bill {
	b := Bill{
		OrderID:       o.ID,
		TableNumber:   o.TableNumber,
		Date:          o.CreatedAt.Format("2006-01-02"),
		Time:          o.CreatedAt.Format("15:04"),
		Server:        o.ServerName,
		Items:         make([]BillLine, 0, len(o.Items)),
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
	}
	if b.Server == "" {
		b.Server = o.CustomerName
	}
	for _, it := range o.Items {
		b.Items = append(b.Items, BillLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.LineTotal(),
		})
	}
	return b
}
