// Package reports derives sales statistics from completed, paid orders.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// MaxPeriodDays bounds a period report.
const MaxPeriodDays = 366

var ErrSnapshotNotFound = errors.New("report snapshot not found")

type BestSeller struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

type PaymentBreakdown struct {
	Cash        decimal.Decimal `json:"cash"`
	Card        decimal.Decimal `json:"card"`
	MobileMoney decimal.Decimal `json:"mobile_money"`
}

// Summary holds the aggregates shared by daily and period reports.
type Summary struct {
	TotalOrders       int              `json:"total_orders"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	TotalCustomers    int              `json:"total_customers"`
	AverageOrderValue decimal.Decimal  `json:"average_order_value"`
	BestSeller        *BestSeller      `json:"best_seller"`
	PaymentBreakdown  PaymentBreakdown `json:"payment_breakdown"`
}

type Daily struct {
	Date string `json:"date"`
	Summary
}

type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
	Summary
	Days []Daily `json:"days"`
}

// Snapshot is the stored form of a daily report.
type Snapshot struct {
	Date           string          `json:"date"`
	TotalOrders    int             `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCustomers int             `json:"total_customers"`
	BestSellerID   string          `json:"best_seller_id,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type SnapshotStore interface {
	Upsert(ctx context.Context, s Snapshot) error
	Get(ctx context.Context, date string) (Snapshot, error)
}

// Summarize aggregates orders. Callers pass only completed, paid orders.
func Summarize(list []*orders.Order) Summary {
	s := Summary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		PaymentBreakdown: PaymentBreakdown{
			Cash:        decimal.Zero,
			Card:        decimal.Zero,
			MobileMoney: decimal.Zero,
		},
	}
	customers := map[string]bool{}
	sold := map[string]*BestSeller{}
	for _, o := range list {
		s.TotalOrders++
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)
		if o.CustomerID != "" {
			customers[o.CustomerID] = true
		}
		switch o.PaymentMethod {
		case orders.PaymentCash:
			s.PaymentBreakdown.Cash = s.PaymentBreakdown.Cash.Add(o.Total)
		case orders.PaymentCard:
			s.PaymentBreakdown.Card = s.PaymentBreakdown.Card.Add(o.Total)
		case orders.PaymentMobileMoney:
			s.PaymentBreakdown.MobileMoney = s.PaymentBreakdown.MobileMoney.Add(o.Total)
		}
		for _, it := range o.Items {
			b, ok := sold[it.MenuItemID]
			if !ok {
				b = &BestSeller{MenuItemID: it.MenuItemID, Name: it.Name}
				sold[it.MenuItemID] = b
			}
			b.Quantity += it.Quantity
		}
	}
	s.TotalCustomers = len(customers)
	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalRevenue.Div(decimal.NewFromInt(int64(s.TotalOrders))).Round(2)
	}

	// ties go to the lowest menu item id so reruns agree
	for _, b := range sold {
		if s.BestSeller == nil || b.Quantity > s.BestSeller.Quantity ||
			(b.Quantity == s.BestSeller.Quantity && b.MenuItemID < s.BestSeller.MenuItemID) {
			c := *b
			s.BestSeller = &c
		}
	}
	return s
}

type Service struct {
	orders    orders.Repository
	snapshots SnapshotStore
	log       *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

func NewService(repo orders.Repository, snapshots SnapshotStore, log *zap.Logger) *Service {
	return &Service{orders: repo, snapshots: snapshots, log: log, loc: time.UTC, now: time.Now}
}

// WithLocation sets the time zone days are cut in. The default is UTC.
func (s *Service) WithLocation(loc *time.Location) *Service {
	s.loc = loc
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) parseDay(field, v string) (time.Time, error) {
	if v == "" {
		n := s.now().In(s.loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc), nil
	}
	d, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, validation.Errors{field: "must be formatted YYYY-MM-DD"}
	}
	return d, nil
}

// settled lists the completed, paid orders created in [from, to).
func (s *Service) settled(ctx context.Context, from, to time.Time) ([]*orders.Order, error) {
	return s.orders.List(ctx, orders.Filter{
		Statuses:      []orders.Status{orders.StatusCompleted},
		PaymentStatus: orders.PaymentPaid,
		CreatedFrom:   from,
		CreatedTo:     to,
	})
}

// Daily computes the report of one day (today when date is empty) and
// stores its snapshot.
func (s *Service) Daily(ctx context.Context, date string) (Daily, error) {
	day, err := s.parseDay("date", date)
	if err != nil {
		return Daily{}, err
	}
	paid, err := s.settled(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return Daily{}, err
	}
	d := Daily{Date: day.Format(dateLayout), Summary: Summarize(paid)}

	snap := Snapshot{
		Date:           d.Date,
		TotalOrders:    d.TotalOrders,
		TotalRevenue:   d.TotalRevenue,
		TotalCustomers: d.TotalCustomers,
		UpdatedAt:      s.now(),
	}
	if d.BestSeller != nil {
		snap.BestSellerID = d.BestSeller.MenuItemID
	}
	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return Daily{}, err
	}
	s.log.Debug("daily snapshot stored",
		zap.String("date", d.Date),
		zap.Int("orders", d.TotalOrders),
		zap.String("revenue", d.TotalRevenue.StringFixed(2)))
	return d, nil
}

// Period aggregates the inclusive range [from, to] with one row per day.
func (s *Service) Period(ctx context.Context, from, to string) (Period, error) {
	errs := validation.Errors{}
	if from == "" {
		errs.Add("from", "is required")
	}
	if to == "" {
		errs.Add("to", "is required")
	}
	if err := errs.Err(); err != nil {
		return Period{}, err
	}
	start, err := s.parseDay("from", from)
	if err != nil {
		return Period{}, err
	}
	end, err := s.parseDay("to", to)
	if err != nil {
		return Period{}, err
	}
	if end.Before(start) {
		return Period{}, validation.Errors{"to": "must not be before from"}
	}
	if end.Sub(start) > MaxPeriodDays*24*time.Hour {
		return Period{}, validation.Errors{"to": "period is limited to 366 days"}
	}

	paid, err := s.settled(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		return Period{}, err
	}
	byDay := map[string][]*orders.Order{}
	for _, o := range paid {
		k := o.CreatedAt.In(s.loc).Format(dateLayout)
		byDay[k] = append(byDay[k], o)
	}

	p := Period{From: start.Format(dateLayout), To: end.Format(dateLayout), Summary: Summarize(paid)}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		k := d.Format(dateLayout)
		p.Days = append(p.Days, Daily{Date: k, Summary: Summarize(byDay[k])})
	}
	return p, nil
}

// Snapshot returns the stored report of a day.
func (s *Service) Snapshot(ctx context.Context, date string) (Snapshot, error) {
	day, err := s.parseDay("date", date)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshots.Get(ctx, day.Format(dateLayout))
}
