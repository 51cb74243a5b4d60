package store_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-restaurant-pos/internal/auth"
	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/ariefcatur/go-restaurant-pos/internal/store"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// These tests need a scratch database and run only when POSTGRES_DSN is set.
func testDB(t *testing.T) *store.Postgres {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatal(err)
	}
	return &store.Postgres{Pool: pool}
}

type seeded struct {
	a, b   inventory.Ingredient
	ab, ba catalog.MenuItem
	table  tables.Table
}

// seedShared creates two dishes using the same ingredients listed in
// opposite order.
func seedShared(t *testing.T, db *store.Postgres) seeded {
	t.Helper()
	ctx := context.Background()
	s := db.Stores()
	sfx := uuid.NewString()[:8]
	var (
		out seeded
		err error
	)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	out.a, err = s.Stock().Create(ctx, inventory.Ingredient{Name: "onion-" + sfx, Unit: "kg", StockQuantity: decimal.NewFromInt(100)})
	must(err)
	out.b, err = s.Stock().Create(ctx, inventory.Ingredient{Name: "rice-" + sfx, Unit: "kg", StockQuantity: decimal.NewFromInt(100)})
	must(err)
	out.ab, err = s.Menu().Create(ctx, catalog.MenuItem{Name: "Thieb " + sfx, Price: decimal.NewFromInt(1500), Available: true,
		Ingredients: []catalog.Requirement{{IngredientID: out.a.ID, Quantity: decimal.NewFromInt(1)}, {IngredientID: out.b.ID, Quantity: decimal.NewFromInt(1)}}})
	must(err)
	out.ba, err = s.Menu().Create(ctx, catalog.MenuItem{Name: "Yassa " + sfx, Price: decimal.NewFromInt(1200), Available: true,
		Ingredients: []catalog.Requirement{{IngredientID: out.b.ID, Quantity: decimal.NewFromInt(1)}, {IngredientID: out.a.ID, Quantity: decimal.NewFromInt(1)}}})
	must(err)
	out.table, err = s.Tables().Create(ctx, tables.Table{Number: 1000 + rand.IntN(1<<30), Capacity: 4})
	must(err)
	return out
}

func TestConcurrentConfirmsWithSharedIngredients(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sd := seedShared(t, db)
	engine := orders.NewEngine(db, nil, zap.NewNop())
	actor := auth.Principal{UserID: "u-server", Name: "Moussa", Role: auth.RoleServer}

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		item := sd.ab
		if i%2 == 1 {
			item = sd.ba
		}
		o, err := engine.Create(ctx, actor, orders.CreateInput{
			TableID: sd.table.ID,
			Items:   []orders.ItemInput{{MenuItemID: item.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = o.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = engine.UpdateStatus(ctx, id, orders.StatusConfirmed)
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("confirm %d: %v", i, err)
		}
	}
	for _, in := range []inventory.Ingredient{sd.a, sd.b} {
		got, err := db.Stores().Stock().Get(ctx, in.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.StockQuantity.Equal(decimal.NewFromInt(100 - n)) {
			t.Errorf("%s stock = %s, want %d", in.Name, got.StockQuantity, 100-n)
		}
	}
}

func TestConcurrentBookingsOfOneSlot(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sd := seedShared(t, db)
	now := time.Now()
	date := now.AddDate(0, 0, 2).Format("2006-01-02")

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		at := "9:05"
		if i%2 == 1 {
			at = "09:05"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = db.WithinTx(ctx, func(ctx context.Context, s orders.Stores) error {
				_, err := tables.Book(ctx, s.Tables(), "u-client", tables.BookingRequest{
					TableID: sd.table.ID, Date: date, Time: at, GuestsCount: 2,
				}, now)
				return err
			})
		}()
	}
	wg.Wait()

	booked := 0
	for _, err := range errs {
		switch {
		case err == nil:
			booked++
		case !errors.Is(err, tables.ErrAlreadyBooked):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if booked != 1 {
		t.Errorf("%d bookings of one slot succeeded, want 1", booked)
	}
}

func TestDeleteReferencedRows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	sd := seedShared(t, db)
	s := db.Stores()

	engine := orders.NewEngine(db, nil, zap.NewNop())
	if _, err := engine.Create(ctx, auth.Principal{UserID: "u-client", Role: auth.RoleClient}, orders.CreateInput{
		TableID: sd.table.ID,
		Items:   []orders.ItemInput{{MenuItemID: sd.ab.ID, Quantity: 1}},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Menu().Delete(ctx, sd.ab.ID); !errors.Is(err, catalog.ErrInUse) {
		t.Errorf("delete ordered item: %v", err)
	}
	if err := s.Stock().Delete(ctx, sd.a.ID); !errors.Is(err, inventory.ErrInUse) {
		t.Errorf("delete ingredient in a recipe: %v", err)
	}
	if err := s.Tables().Delete(ctx, sd.table.ID); !errors.Is(err, tables.ErrInUse) {
		t.Errorf("delete table with an order: %v", err)
	}
	if err := s.Menu().Delete(ctx, sd.ba.ID); err != nil {
		t.Errorf("delete unused item: %v", err)
	}
	if err := s.Menu().Delete(ctx, sd.ba.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}
