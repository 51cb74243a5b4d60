package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderItemsChanged  = "OrderItemsChanged"
	EventOrderPaid          = "OrderPaid"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the constants above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g. "pos-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemLine struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	UnitPrice  string `json:"unit_price"`
}

// OrderPayload is the snapshot carried by every order event.
type OrderPayload struct {
	OrderID       string     `json:"order_id"`
	TableNumber   int        `json:"table_number"`
	CustomerID    string     `json:"customer_id,omitempty"`
	Status        Status     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	Total         string     `json:"total"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []ItemLine `json:"items"`
}

func NewPayload(o *Order) OrderPayload {
	p := OrderPayload{
		OrderID:       o.ID,
		TableNumber:   o.TableNumber,
		CustomerID:    o.CustomerID,
		Status:        o.Status,
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		Total:         o.Total.StringFixed(2),
		CreatedAt:     o.CreatedAt,
		Items:         make([]ItemLine, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, ItemLine{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Qty:        it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
		})
	}
	return p
}

// PartitionKey keeps every event of one order on the same partition, in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
