package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const setupTimeout = 30 * time.Second

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

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the lending tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), setupTimeout)
			defer cancel()

			logger := newLogger(viper.GetBool("verbose"))

			db, err := openLendingDB(ctx, logger)
			if err != nil {
				return err
			}
			defer db.close()

			if err := db.exec(ctx, createSchemaSQL); err != nil {
				return err
			}

			logger.Info("lending schema is ready")

			return nil
		},
	}
}
