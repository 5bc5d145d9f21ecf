// Package adapters provides database driver adapters for the Postgres lending
// store.
//
// This internal package abstracts the differences between the supported
// database access libraries (pgx pool, database/sql, sqlx) behind a minimal
// common interface so the store itself stays driver-agnostic.
package adapters
