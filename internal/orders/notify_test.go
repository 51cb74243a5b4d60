package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkax "github.com/ariefcatur/go-restaurant-pos/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type sentMessage struct {
	key, value []byte
	headers    []kafkago.Header
}

type fakeProducer struct{ sent []sentMessage }

func (p *fakeProducer) Publish(key, value []byte, headers ...kafkago.Header) {
	p.sent = append(p.sent, sentMessage{key, value, headers})
}

type fakeTickets struct {
	keys    []string
	tickets []KitchenTicket
	err     error
}

func (f *fakeTickets) Publish(_ context.Context, key string, v any) error {
	f.keys = append(f.keys, key)
	f.tickets = append(f.tickets, v.(KitchenTicket))
	return f.err
}

func sampleOrder(status Status) *Order {
	o := &Order{
		ID:            "ord-1",
		TableNumber:   3,
		CustomerID:    "u-1",
		Status:        status,
		PaymentStatus: PaymentPending,
		CreatedAt:     time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
		Items: []OrderItem{
			{MenuItemID: "m-1", Name: "Pizza", Quantity: 2, UnitPrice: d("1000")},
			{MenuItemID: "m-2", Name: "Salad", Quantity: 1, UnitPrice: d("500"), SpecialNotes: "no onions"},
		},
	}
	o.RecalculateTotals()
	return o
}

func TestEventPublisherEnvelope(t *testing.T) {
	p := &fakeProducer{}
	pub := &EventPublisher{Producer: p, Service: "pos-api"}
	ctx := WithTraceID(context.Background(), "req-42")

	pub.Notify(ctx, EventOrderCreated, sampleOrder(StatusPending))

	if len(p.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(p.sent))
	}
	m := p.sent[0]
	if string(m.key) != "ord-1" {
		t.Errorf("key = %q, want the order id", m.key)
	}
	msg := kafkago.Message{Headers: m.headers}
	if got := kafkax.Header(msg, "x-event-type"); got != EventOrderCreated {
		t.Errorf("x-event-type = %q", got)
	}
	if got := kafkax.Header(msg, "x-event-version"); got != "1" {
		t.Errorf("x-event-version = %q", got)
	}

	var env Envelope
	if err := json.Unmarshal(m.value, &env); err != nil {
		t.Fatal(err)
	}
	if env.EventID == "" || env.EventType != EventOrderCreated || env.Producer != "pos-api" ||
		env.TraceID != "req-42" || env.CorrelationID != "ord-1" {
		t.Errorf("envelope = %+v", env)
	}
	payload, err := kafkax.UnwrapPayload[OrderPayload](env.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if payload.Total != "2950.00" || len(payload.Items) != 2 || payload.Items[0].UnitPrice != "1000.00" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestKitchenTicketActions(t *testing.T) {
	tests := []struct {
		event  string
		status Status
		key    string
	}{
		{EventOrderStatusChanged, StatusConfirmed, "kitchen.ticket.fire"},
		{EventOrderItemsChanged, StatusConfirmed, "kitchen.ticket.update"},
		{EventOrderStatusChanged, StatusCancelled, "kitchen.ticket.void"},
		{EventOrderCreated, StatusPending, ""},
		{EventOrderItemsChanged, StatusPending, ""},
		{EventOrderStatusChanged, StatusPreparing, ""},
		{EventOrderPaid, StatusCompleted, ""},
	}
	for _, tt := range tests {
		t.Run(tt.event+"/"+string(tt.status), func(t *testing.T) {
			f := &fakeTickets{}
			k := &KitchenTickets{Publisher: f, Log: zap.NewNop()}
			k.Notify(context.Background(), tt.event, sampleOrder(tt.status))

			if tt.key == "" {
				if len(f.keys) != 0 {
					t.Fatalf("unexpected ticket %v", f.keys)
				}
				return
			}
			if len(f.keys) != 1 || f.keys[0] != tt.key {
				t.Fatalf("keys = %v, want %s", f.keys, tt.key)
			}
			ticket := f.tickets[0]
			if ticket.TableNumber != 3 || len(ticket.Lines) != 2 || ticket.Lines[1].SpecialNotes != "no onions" {
				t.Errorf("ticket = %+v", ticket)
			}
		})
	}
}

func TestKitchenTicketFailureDoesNotPanic(t *testing.T) {
	f := &fakeTickets{err: errors.New("broker down")}
	k := &KitchenTickets{Publisher: f, Log: zap.NewNop()}
	k.Notify(context.Background(), EventOrderStatusChanged, sampleOrder(StatusConfirmed))
	if len(f.keys) != 1 {
		t.Fatalf("publish attempts = %d", len(f.keys))
	}
}

func TestNotifiersFanOut(t *testing.T) {
	a, b := &fakeProducer{}, &fakeProducer{}
	ns := Notifiers{NopNotifier{}, &EventPublisher{Producer: a}, &EventPublisher{Producer: b}}
	ns.Notify(context.Background(), EventOrderPaid, sampleOrder(StatusCompleted))
	if len(a.sent) != 1 || len(b.sent) != 1 {
		t.Errorf("fan out sent %d/%d", len(a.sent), len(b.sent))
	}
}

func TestNewBillServerFallback(t *testing.T) {
	o := sampleOrder(StatusServed)
	o.CustomerName = "Awa"
	if b := NewBill(o); b.Server != "Awa" {
		t.Errorf("server = %q, want customer name", b.Server)
	}
	o.ServerName = "Moussa"
	b := NewBill(o)
	if b.Server != "Moussa" {
		t.Errorf("server = %q", b.Server)
	}
	if b.Date != "2026-03-14" || b.Time != "19:30" || !b.Items[0].Total.Equal(d("2000")) {
		t.Errorf("bill = %+v", b)
	}
}
