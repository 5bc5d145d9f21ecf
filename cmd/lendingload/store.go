package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // driver import for sql.db and sqlx.db adapters
	"github.com/spf13/viper"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
	"github.com/AarushGaikwad/LibraryManagementSystem/lending/lendingengine"
	"github.com/AarushGaikwad/LibraryManagementSystem/lending/postgresengine"
)

var errUnknownAdapter = errors.New("unknown adapter type, expected pgx.pool, sql.db or sqlx.db")

// lendingDB bundles the lending store with raw statement execution on the
// same connection, used for schema setup and data seeding.
type lendingDB struct {
	store postgresengine.LendingStore
	exec  func(ctx context.Context, sqlStatement string) error
	close func()
}

// openLendingDB connects to Postgres with the configured adapter.
func openLendingDB(ctx context.Context, logger lending.Logger) (*lendingDB, error) {
	dsn := viper.GetString("dsn")
	storeOptions := []postgresengine.Option{postgresengine.WithLogger(logger)}

	switch strings.ToLower(viper.GetString("adapter")) {
	case "pgx.pool":
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting pgx pool: %w", err)
		}

		store, err := postgresengine.NewLendingStoreFromPGXPool(pool, storeOptions...)
		if err != nil {
			pool.Close()
			return nil, err
		}

		return &lendingDB{
			store: store,
			exec: func(ctx context.Context, sqlStatement string) error {
				_, execErr := pool.Exec(ctx, sqlStatement)
				return execErr
			},
			close: pool.Close,
		}, nil

	case "sql.db":
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sql.DB: %w", err)
		}

		store, err := postgresengine.NewLendingStoreFromSQLDB(db, storeOptions...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &lendingDB{
			store: store,
			exec: func(ctx context.Context, sqlStatement string) error {
				_, execErr := db.ExecContext(ctx, sqlStatement)
				return execErr
			},
			close: func() { _ = db.Close() },
		}, nil

	case "sqlx.db":
		db, err := sqlx.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlx.DB: %w", err)
		}

		store, err := postgresengine.NewLendingStoreFromSQLX(db, storeOptions...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &lendingDB{
			store: store,
			exec: func(ctx context.Context, sqlStatement string) error {
				_, execErr := db.ExecContext(ctx, sqlStatement)
				return execErr
			},
			close: func() { _ = db.Close() },
		}, nil

	default:
		return nil, errUnknownAdapter
	}
}

// newEngine builds a lending engine on the store with the configured borrow
// window and fine rate.
func newEngine(db *lendingDB, logger lending.Logger, clock func() time.Time) (lendingengine.Engine, error) {
	return lendingengine.NewEngine(db.store, db.store, db.store,
		lendingengine.WithClock(clock),
		lendingengine.WithBorrowDays(viper.GetInt("borrow-days")),
		lendingengine.WithFinePerDay(viper.GetFloat64("fine-per-day")),
		lendingengine.WithLogger(logger),
		lendingengine.WithAuditLog(db.store),
	)
}
