// Package postgresengine provides the Postgres-backed storage for the lending
// kernel: the inventory store, the transaction ledger, the borrower directory
// and the audit log, implemented on a single store type.
//
// Concurrency discipline: every mutating operation is one conditional SQL
// statement whose effect is verified through the rows-affected count. The
// availability flag flips only through a compare-and-set UPDATE, the active
// transaction closes only while its return_date is still NULL, and closing
// plus releasing execute as a single data-modifying CTE statement - partial
// application is never observable.
//
// Three database access libraries are supported through internal adapters:
//
//	pool, _ := pgxpool.NewWithConfig(ctx, cfg)
//	store, err := postgresengine.NewLendingStoreFromPGXPool(pool)
//
//	db, _ := sql.Open("postgres", dsn)
//	store, err := postgresengine.NewLendingStoreFromSQLDB(db)
//
//	dbx, _ := sqlx.Connect("postgres", dsn)
//	store, err := postgresengine.NewLendingStoreFromSQLX(dbx)
package postgresengine
