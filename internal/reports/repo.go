package reports

import (
	"context"

	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
)

// Repo stores snapshots in daily_reports.
type Repo struct{ DB postgres.DBTX }

func (r *Repo) Upsert(ctx context.Context, s Snapshot) error {
	var best any
	if s.BestSellerID != "" {
		best = s.BestSellerID
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO daily_reports(date, total_orders, total_revenue, total_customers, best_seller_id, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (date) DO UPDATE
		   SET total_orders=EXCLUDED.total_orders,
		       total_revenue=EXCLUDED.total_revenue,
		       total_customers=EXCLUDED.total_customers,
		       best_seller_id=EXCLUDED.best_seller_id,
		       updated_at=EXCLUDED.updated_at`,
		s.Date, s.TotalOrders, s.TotalRevenue, s.TotalCustomers, best, s.UpdatedAt)
	return err
}

func (r *Repo) Get(ctx context.Context, date string) (Snapshot, error) {
	var s Snapshot
	err := r.DB.QueryRow(ctx, `
		SELECT date, total_orders, total_revenue, total_customers, COALESCE(best_seller_id::text, ''), updated_at
		  FROM daily_reports WHERE date=$1`, date).
		Scan(&s.Date, &s.TotalOrders, &s.TotalRevenue, &s.TotalCustomers, &s.BestSellerID, &s.UpdatedAt)
	if postgres.IsNoRows(err) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return s, err
}
