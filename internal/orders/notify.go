package orders

import (
	"context"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-restaurant-pos/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notifier observes committed order changes. Implementations must not
// fail the caller; the state change already happened.
type Notifier interface {
	Notify(ctx context.Context, event string, o *Order)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, *Order) {}

// Notifiers fans one change out to several observers.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, event string, o *Order) {
	for _, n := range ns {
		n.Notify(ctx, event, o)
	}
}

type traceKey struct{}

// WithTraceID attaches the request id that ends up in event envelopes.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func traceID(ctx context.Context) string {
	s, _ := ctx.Value(traceKey{}).(string)
	return s
}

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// EventPublisher writes every order change to the event stream.
type EventPublisher struct {
	Producer MessagePublisher
	Service  string
}

func (p *EventPublisher) Notify(ctx context.Context, event string, o *Order) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     event,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		TraceID:       traceID(ctx),
		CorrelationID: o.ID,
		Payload:       kafkax.MustMarshal(NewPayload(o)),
	}
	p.Producer.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(event)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}

// TicketPublisher is satisfied by *rabbitmq.Publisher.
type TicketPublisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

type TicketLine struct {
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	SpecialNotes string `json:"special_notes,omitempty"`
}

type KitchenTicket struct {
	OrderID     string       `json:"order_id"`
	TableNumber int          `json:"table_number"`
	Action      string       `json:"action"` // fire | update | void
	Notes       string       `json:"notes,omitempty"`
	Lines       []TicketLine `json:"lines"`
	IssuedAt    time.Time    `json:"issued_at"`
}

// KitchenTickets fires a ticket when an order is confirmed, re-sends it
// when a confirmed order's items change, and voids it on cancellation.
type KitchenTickets struct {
	Publisher TicketPublisher
	Log       *zap.Logger
}

func (k *KitchenTickets) Notify(ctx context.Context, event string, o *Order) {
	action := ""
	switch {
	case event == EventOrderStatusChanged && o.Status == StatusConfirmed:
		action = "fire"
	case event == EventOrderItemsChanged && o.Status == StatusConfirmed:
		action = "update"
	case event == EventOrderStatusChanged && o.Status == StatusCancelled:
		action = "void"
	default:
		return
	}

	t := KitchenTicket{
		OrderID:     o.ID,
		TableNumber: o.TableNumber,
		Action:      action,
		Notes:       o.Notes,
		Lines:       make([]TicketLine, 0, len(o.Items)),
		IssuedAt:    time.Now().UTC(),
	}
	for _, it := range o.Items {
		t.Lines = append(t.Lines, TicketLine{Name: it.Name, Quantity: it.Quantity, SpecialNotes: it.SpecialNotes})
	}
	if err := k.Publisher.Publish(ctx, "kitchen.ticket."+action, t); err != nil {
		k.Log.Error("kitchen ticket not sent",
			zap.String("order_id", o.ID),
			zap.String("action", action),
			zap.Error(err))
	}
}
