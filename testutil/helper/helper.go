package helper

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AarushGaikwad/LibraryManagementSystem/testutil/postgreswrapper"
)

// The lending schema. The items and borrowers tables are owned by the catalog
// and user management collaborators in production; tests create and seed them
// directly. The partial unique index on active transactions backs both the
// fast FindActive lookup and the at-most-one-active invariant.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS items (
	item_id   uuid PRIMARY KEY,
	title     text NOT NULL DEFAULT '',
	available boolean NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS borrowers (
	borrower_id uuid PRIMARY KEY,
	name        text NOT NULL DEFAULT '',
	role        text NOT NULL DEFAULT 'STUDENT'
);

CREATE TABLE IF NOT EXISTS transactions (
	transaction_id uuid PRIMARY KEY,
	borrower_id    uuid NOT NULL,
	item_id        uuid NOT NULL,
	borrow_date    date NOT NULL,
	due_date       date NOT NULL,
	return_date    date,
	fine           double precision
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_one_active_per_item
	ON transactions (item_id) WHERE return_date IS NULL;

CREATE INDEX IF NOT EXISTS idx_transactions_active_lookup
	ON transactions (borrower_id, item_id) WHERE return_date IS NULL;

CREATE TABLE IF NOT EXISTS lending_audit (
	sequence_number bigserial PRIMARY KEY,
	event_type      text NOT NULL,
	occurred_at     timestamp with time zone NOT NULL,
	payload         jsonb NOT NULL
);
`

const truncateTablesSQL = `TRUNCATE TABLE items, borrowers, transactions, lending_audit`

// CreateSchema creates the lending tables and indexes if they do not exist yet.
func CreateSchema(t testing.TB, wrapper postgreswrapper.Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), createSchemaSQL)
	require.NoError(t, err, "error creating lending schema in test setup")
}

// CleanUp empties all lending tables.
func CleanUp(t testing.TB, wrapper postgreswrapper.Wrapper) {
	t.Helper()

	err := wrapper.Exec(context.Background(), truncateTablesSQL)
	require.NoError(t, err, "error cleaning up lending tables")
}

// GivenUniqueID supplies a fresh identifier.
func GivenUniqueID(t testing.TB) uuid.UUID {
	t.Helper()

	return uuid.New()
}

// GivenItemInCirculation seeds one available item.
func GivenItemInCirculation(t testing.TB, wrapper postgreswrapper.Wrapper, itemID uuid.UUID) {
	t.Helper()

	statement := fmt.Sprintf(
		`INSERT INTO items (item_id, title, available) VALUES ('%s', 'test item', TRUE)`,
		itemID.String(),
	)

	err := wrapper.Exec(context.Background(), statement)
	require.NoError(t, err, "error seeding item in test setup")
}

// GivenRegisteredBorrower seeds one registered borrower.
func GivenRegisteredBorrower(t testing.TB, wrapper postgreswrapper.Wrapper, borrowerID uuid.UUID, role string) {
	t.Helper()

	statement := fmt.Sprintf(
		`INSERT INTO borrowers (borrower_id, name, role) VALUES ('%s', 'test borrower', '%s')`,
		borrowerID.String(),
		role,
	)

	err := wrapper.Exec(context.Background(), statement)
	require.NoError(t, err, "error seeding borrower in test setup")
}
