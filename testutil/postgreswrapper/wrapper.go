package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending/postgresengine"
	"github.com/AarushGaikwad/LibraryManagementSystem/testutil/config"
)

// Adapter type constants.
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper interface to abstract over the different adapter types.
type Wrapper interface {
	GetLendingStore() postgresengine.LendingStore
	Exec(ctx context.Context, sqlStatement string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store postgresengine.LendingStore
}

// GetLendingStore returns the store under test.
func (w *PGXPoolWrapper) GetLendingStore() postgresengine.LendingStore {
	return w.store
}

// Exec runs a raw SQL statement, for schema setup and cleanup.
func (w *PGXPoolWrapper) Exec(ctx context.Context, sqlStatement string) error {
	_, err := w.pool.Exec(ctx, sqlStatement)
	return err
}

// Close closes the underlying pool.
func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store postgresengine.LendingStore
}

// GetLendingStore returns the store under test.
func (w *SQLDBWrapper) GetLendingStore() postgresengine.LendingStore {
	return w.store
}

// Exec runs a raw SQL statement, for schema setup and cleanup.
func (w *SQLDBWrapper) Exec(ctx context.Context, sqlStatement string) error {
	_, err := w.db.ExecContext(ctx, sqlStatement)
	return err
}

// Close closes the underlying connection.
func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db    *sqlx.DB
	store postgresengine.LendingStore
}

// GetLendingStore returns the store under test.
func (w *SQLXWrapper) GetLendingStore() postgresengine.LendingStore {
	return w.store
}

// Exec runs a raw SQL statement, for schema setup and cleanup.
func (w *SQLXWrapper) Exec(ctx context.Context, sqlStatement string) error {
	_, err := w.db.ExecContext(ctx, sqlStatement)
	return err
}

// Close closes the underlying connection.
func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the
// ADAPTER_TYPE environment variable.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
		require.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := postgresengine.NewLendingStoreFromPGXPool(connPool, options...)
		require.NoError(t, err, "error creating lending store")

		return &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()

		store, err := postgresengine.NewLendingStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating lending store")

		return &SQLDBWrapper{db: db, store: store}

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()

		store, err := postgresengine.NewLendingStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating lending store")

		return &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}
