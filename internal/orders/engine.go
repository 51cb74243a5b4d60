package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ItemInput struct {
	MenuItemID   string `json:"menu_item_id"`
	Quantity     int    `json:"quantity"`
	SpecialNotes string `json:"special_notes"`
}

type CreateInput struct {
	TableID string      `json:"table_id"`
	Items   []ItemInput `json:"items"`
	Notes   string      `json:"notes"`
}

type DetailsInput struct {
	Notes      *string `json:"notes"`
	ServerID   *string `json:"server_id"`
	ServerName *string `json:"server_name"`
}

func validateItems(errs validation.Errors, items []ItemInput) {
	if len(items) == 0 {
		errs.Add("items", "at least one item is required")
	}
	for i, it := range items {
		if it.MenuItemID == "" {
			errs.Add(fmt.Sprintf("items.%d.menu_item_id", i), "is required")
		}
		if it.Quantity < 1 {
			errs.Add(fmt.Sprintf("items.%d.quantity", i), "must be at least 1")
		}
		if len(it.SpecialNotes) > 255 {
			errs.Add(fmt.Sprintf("items.%d.special_notes", i), "must be at most 255 characters")
		}
	}
}

func (in CreateInput) validate() error {
	errs := validation.Errors{}
	if in.TableID == "" {
		errs.Add("table_id", "is required")
	}
	validateItems(errs, in.Items)
	if len(in.Notes) > 500 {
		errs.Add("notes", "must be at most 500 characters")
	}
	return errs.Err()
}

// Engine drives orders through their lifecycle. Every operation that
// writes runs in one unit of work; events go out only after commit.
type Engine struct {
	uow    UnitOfWork
	notify Notifier
	log    *zap.Logger
	now    func() time.Time
}

func NewEngine(uow UnitOfWork, notify Notifier, log *zap.Logger) *Engine {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Engine{uow: uow, notify: notify, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Create(ctx context.Context, actor auth.Principal, in CreateInput) (*Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *Order
	err := e.uow.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		t, err := s.Tables().Get(ctx, in.TableID)
		if err != nil {
			return err
		}
		if !t.Bookable() {
			return fmt.Errorf("%w: table %d", ErrTableReserved, t.Number)
		}

		now := e.now()
		o := &Order{
			ID:            uuid.NewString(),
			CustomerID:    actor.UserID,
			CustomerName:  actor.Name,
			TableID:       t.ID,
			TableNumber:   t.Number,
			Status:        StatusPending,
			PaymentStatus: PaymentPending,
			Subtotal:      decimal.Zero,
			Tax:           decimal.Zero,
			Total:         decimal.Zero,
			Notes:         in.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
			Items:         []OrderItem{},
		}
		if actor.Role == auth.RoleServer {
			o.ServerID, o.ServerName = actor.UserID, actor.Name
		}

		items, err := newItems(ctx, s.Menu(), o, in.Items)
		if err != nil {
			return err
		}
		o.Items = items
		o.RecalculateTotals()

		if err := s.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order created",
		zap.String("order_id", created.ID),
		zap.Int("table", created.TableNumber),
		zap.String("total", created.Total.StringFixed(2)))
	e.notify.Notify(ctx, EventOrderCreated, created)
	return created, nil
}

// newItems snapshots the current price of every requested menu item.
// Missing or unavailable items fail the whole batch.
func newItems(ctx context.Context, menu catalog.Store, o *Order, in []ItemInput) ([]OrderItem, error) {
	out := make([]OrderItem, 0, len(in))
	for _, req := range in {
		m, err := menu.Get(ctx, req.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("menu item %s: %w", req.MenuItemID, err)
		}
		if !m.Available {
			return nil, fmt.Errorf("%w: %s", catalog.ErrUnavailable, m.Name)
		}
		out = append(out, OrderItem{
			ID:           uuid.NewString(),
			OrderID:      o.ID,
			MenuItemID:   m.ID,
			Name:         m.Name,
			Quantity:     req.Quantity,
			UnitPrice:    m.Price,
			SpecialNotes: req.SpecialNotes,
			Status:       o.Status,
		})
	}
	return out, nil
}

// consume takes the ingredients of items out of stock and records them in
// the order's ledger. Rows are touched in ingredient id order so two
// transactions sharing ingredients always lock them in the same sequence.
func consume(ctx context.Context, s Stores, o *Order, items []OrderItem) error {
	var plan []Consumption
	for _, item := range items {
		reqs, err := s.Menu().IngredientsRequired(ctx, item.MenuItemID)
		if err != nil {
			return fmt.Errorf("ingredients of %s: %w", item.Name, err)
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		for _, r := range reqs {
			plan = append(plan, Consumption{
				OrderItemID:  item.ID,
				IngredientID: r.IngredientID,
				Quantity:     r.Quantity.Mul(qty),
			})
		}
	}
	sortByIngredient(plan)
	for _, c := range plan {
		if err := s.Stock().Consume(ctx, c.IngredientID, c.Quantity); err != nil {
			return err
		}
	}
	o.Consumptions = append(o.Consumptions, plan...)
	return nil
}

// restore gives back ledger entries to stock, in ingredient id order.
func restore(ctx context.Context, s Stores, cs []Consumption) error {
	cs = append([]Consumption(nil), cs...)
	sortByIngredient(cs)
	for _, c := range cs {
		if err := s.Stock().Restore(ctx, c.IngredientID, c.Quantity); err != nil {
			return fmt.Errorf("restore %s: %w", c.IngredientID, err)
		}
	}
	return nil
}

func sortByIngredient(cs []Consumption) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].IngredientID < cs[j].IngredientID })
}

// mutate loads the order under lock, applies fn and saves the result.
func (e *Engine) mutate(ctx context.Context, id string, fn func(ctx context.Context, s Stores, o *Order) error) (*Order, error) {
	var out *Order
	err := e.uow.WithinTx(ctx, func(ctx context.Context, s Stores) error {
		o, err := s.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, s, o); err != nil {
			return err
		}
		if err := s.Orders().Save(ctx, o); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		out = o
		return nil
	})
	return out, err
}

// AddItems appends lines to an editable order. On a confirmed order the
// new lines consume stock straight away.
func (e *Engine) AddItems(ctx context.Context, id string, items []ItemInput) (*Order, error) {
	errs := validation.Errors{}
	validateItems(errs, items)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	o, err := e.mutate(ctx, id, func(ctx context.Context, s Stores, o *Order) error {
		if !o.IsEditable() {
			return ErrNotEditable
		}
		added, err := newItems(ctx, s.Menu(), o, items)
		if err != nil {
			return err
		}
		if o.Status == StatusConfirmed {
			if err := consume(ctx, s, o, added); err != nil {
				return err
			}
		}
		o.Items = append(o.Items, added...)
		o.RecalculateTotals()
		o.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify.Notify(ctx, EventOrderItemsChanged, o)
	return o, nil
}

// RemoveItem deletes one line from an editable order and gives back any
// stock it consumed.
func (e *Engine) RemoveItem(ctx context.Context, id, itemID string) (*Order, error) {
	o, err := e.mutate(ctx, id, func(ctx context.Context, s Stores, o *Order) error {
		if !o.IsEditable() {
			return ErrNotEditable
		}
		i, ok := o.item(itemID)
		if !ok {
			return ErrItemNotFound
		}
		if err := restore(ctx, s, o.takeConsumptions(itemID)); err != nil {
			return err
		}
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		o.RecalculateTotals()
		o.UpdatedAt = e.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify.Notify(ctx, EventOrderItemsChanged, o)
	return o, nil
}

// UpdateStatus applies one lifecycle transition. Confirming consumes stock
// for every item; cancelling a confirmed order gives it back.
func (e *Engine) UpdateStatus(ctx context.Context, id string, to Status) (*Order, error) {
	if !to.Valid() {
		return nil, validation.Errors{"status": "must be one of pending, confirmed, preparing, ready, served, completed, cancelled"}
	}

	var from Status
	o, err := e.mutate(ctx, id, func(ctx context.Context, s Stores, o *Order) error {
		from = o.Status
		if !CanTransition(from, to) {
			return &TransitionError{From: from, To: to}
		}
		switch {
		case to == StatusConfirmed:
			if err := consume(ctx, s, o, o.Items); err != nil {
				return err
			}
		case from == StatusConfirmed && to == StatusCancelled:
			if err := restore(ctx, s, o.takeConsumptions("")); err != nil {
				return err
			}
		}
		o.setStatus(to, e.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	e.notify.Notify(ctx, EventOrderStatusChanged, o)
	return o, nil
}

// Pay settles a completed order. It never changes the lifecycle status.
func (e *Engine) Pay(ctx context.Context, id string, method PaymentMethod) (*Order, error) {
	if !method.Valid() {
		return nil, validation.Errors{"payment_method": "must be one of cash, card, mobile_money"}
	}

	o, err := e.mutate(ctx, id, func(ctx context.Context, s Stores, o *Order) error {
		if o.PaymentStatus == PaymentPaid {
			return ErrAlreadyPaid
		}
		if o.Status != StatusCompleted {
			return ErrNotPayable
		}
		now := e.now()
		o.PaymentMethod = method
		o.PaymentStatus = PaymentPaid
		o.PaidAt = &now
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("order paid",
		zap.String("order_id", o.ID),
		zap.String("method", string(method)),
		zap.String("total", o.Total.StringFixed(2)))
	e.notify.Notify(ctx, EventOrderPaid, o)
	return o, nil
}

// UpdateDetails edits notes and the assigned server of an editable order.
func (e *Engine) UpdateDetails(ctx context.Context, id string, in DetailsInput) (*Order, error) {
	if in.Notes != nil && len(*in.Notes) > 500 {
		return nil, validation.Errors{"notes": "must be at most 500 characters"}
	}
	return e.mutate(ctx, id, func(ctx context.Context, s Stores, o *Order) error {
		if !o.IsEditable() {
			return ErrNotEditable
		}
		if in.Notes != nil {
			o.Notes = *in.Notes
		}
		if in.ServerID != nil {
			o.ServerID = *in.ServerID
			o.ServerName = ""
			if in.ServerName != nil {
				o.ServerName = *in.ServerName
			}
		}
		o.UpdatedAt = e.now()
		return nil
	})
}

func (e *Engine) Get(ctx context.Context, id string) (*Order, error) {
	return e.uow.Stores().Orders().Get(ctx, id)
}

func (e *Engine) List(ctx context.Context, f Filter) ([]*Order, error) {
	return e.uow.Stores().Orders().List(ctx, f)
}

// TableOrders lists the orders still being served at a table.
func (e *Engine) TableOrders(ctx context.Context, tableID string) ([]*Order, error) {
	s := e.uow.Stores()
	if _, err := s.Tables().Get(ctx, tableID); err != nil {
		return nil, err
	}
	return s.Orders().List(ctx, Filter{TableID: tableID, Statuses: ActiveStatuses})
}

func (e *Engine) Bill(ctx context.Context, id string) (Bill, error) {
	o, err := e.Get(ctx, id)
	if err != nil {
		return Bill{}, err
	}
	return NewBill(o), nil
}
