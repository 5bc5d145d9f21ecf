// Package postgreswrapper abstracts over the supported database access
// libraries for integration tests, selected with the ADAPTER_TYPE environment
// variable (pgx.pool, sql.db or sqlx.db; defaults to pgx.pool).
package postgreswrapper
