// Package memory keeps every store in process memory. A unit of work runs
// against a private copy of the data which replaces the live copy only when
// the work succeeds, so a failed protocol leaves nothing behind.
package memory

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
)

type state struct {
	seq int

	orders   map[string]*orders.Order
	orderSeq map[string]int

	menu       map[string]catalog.MenuItem
	categories map[string]catalog.Category

	ingredients map[string]inventory.Ingredient

	tables       map[string]tables.Table
	reservations map[string]tables.Reservation

	snapshots map[string]reports.Snapshot
}

func newState() *state {
	return &state{
		orders:       map[string]*orders.Order{},
		orderSeq:     map[string]int{},
		menu:         map[string]catalog.MenuItem{},
		categories:   map[string]catalog.Category{},
		ingredients:  map[string]inventory.Ingredient{},
		tables:       map[string]tables.Table{},
		reservations: map[string]tables.Reservation{},
		snapshots:    map[string]reports.Snapshot{},
	}
}

func (s *state) next() int {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, o := range s.orders {
		c.orders[k] = o.Clone()
	}
	for k, v := range s.orderSeq {
		c.orderSeq[k] = v
	}
	for k, m := range s.menu {
		c.menu[k] = cloneMenuItem(m)
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.ingredients {
		c.ingredients[k] = v
	}
	for k, v := range s.tables {
		c.tables[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	return c
}

// Store implements orders.UnitOfWork and reports.SnapshotStore.
type Store struct {
	mu   sync.Mutex
	live *state
}

func New() *Store {
	return &Store{live: newState()}
}

// view runs every call either against a transaction's private copy or,
// outside a transaction, against the live data under the store lock.
type view struct {
	s  *Store
	tx *state
}

func (v view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.live)
}

func (v view) Orders() orders.Repository { return orderRepo{v} }
func (v view) Menu() catalog.Store       { return menuStore{v} }
func (v view) Stock() inventory.Store    { return stockStore{v} }
func (v view) Tables() tables.Store      { return tableStore{v} }

func (s *Store) Stores() orders.Stores { return view{s: s} }

// WithinTx serialises units of work. fn sees its own writes; they become
// visible to others only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st orders.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.live.clone()
	if err := fn(ctx, view{s: s, tx: work}); err != nil {
		return err
	}
	s.live = work
	return nil
}

// Snapshots returns the daily report snapshot store.
func (s *Store) Snapshots() reports.SnapshotStore { return snapshotStore{view{s: s}} }
