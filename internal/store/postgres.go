// Package store wires the pgx repositories into a unit of work.
package store

import (
	"context"

	"github.com/ariefcatur/go-restaurant-pos/internal/catalog"
	"github.com/ariefcatur/go-restaurant-pos/internal/inventory"
	"github.com/ariefcatur/go-restaurant-pos/internal/orders"
	"github.com/ariefcatur/go-restaurant-pos/internal/postgres"
	"github.com/ariefcatur/go-restaurant-pos/internal/reports"
	"github.com/ariefcatur/go-restaurant-pos/internal/tables"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repos struct{ db postgres.DBTX }

func (r repos) Orders() orders.Repository { return &orders.Repo{DB: r.db} }
func (r repos) Menu() catalog.Store       { return &catalog.Repo{DB: r.db} }
func (r repos) Stock() inventory.Store    { return &inventory.Repo{DB: r.db} }
func (r repos) Tables() tables.Store      { return &tables.Repo{DB: r.db} }

// Postgres implements orders.UnitOfWork over a pgx pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

func (p *Postgres) Stores() orders.Stores { return repos{db: p.Pool} }

func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, s orders.Stores) error) error {
	return postgres.WithTx(ctx, p.Pool, func(tx pgx.Tx) error {
		return fn(ctx, repos{db: tx})
	})
}

func (p *Postgres) Snapshots() reports.SnapshotStore { return &reports.Repo{DB: p.Pool} }
