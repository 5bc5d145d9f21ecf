package config

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq" // driver import
)

// PostgresSQLDBTestConfig creates a sql.DB for the test database.
func PostgresSQLDBTestConfig() *sql.DB {
	const defaultMaxOpenConns = 50
	const defaultMaxIdleConns = 5
	const defaultConnMaxLifetime = time.Hour

	db, err := sql.Open("postgres", PostgresTestDSN())
	if err != nil {
		log.Fatal("Failed to open sql.DB, error: ", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	return db
}
