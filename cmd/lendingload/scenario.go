package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

const scenarioTimeout = 30 * time.Second

// newScenarioCmd walks one complete lifecycle: borrow, a rejected second
// borrow, a late return with a fine, and a re-borrow of the released item.
// The return runs on a clock set past the due date so the fine is visible
// without waiting.
func newScenarioCmd() *cobra.Command {
	var daysLate int

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run one full borrow/return lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), scenarioTimeout)
			defer cancel()

			return runScenario(ctx, daysLate)
		},
	}

	cmd.Flags().IntVar(&daysLate, "days-late", 2, "days past the due date for the simulated return")

	return cmd
}

func runScenario(ctx context.Context, daysLate int) error {
	logger := newLogger(viper.GetBool("verbose"))

	db, err := openLendingDB(ctx, logger)
	if err != nil {
		return err
	}
	defer db.close()

	itemID := uuid.New()
	first := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	second := lending.BuildIdentity(uuid.New(), lending.RoleTeacher)

	if err = seedScenarioData(ctx, db, itemID, first, second); err != nil {
		return err
	}

	borrowedOn := lending.ToLendingDate(time.Now())

	engine, err := newEngine(db, logger, func() time.Time { return borrowedOn })
	if err != nil {
		return err
	}

	transaction, err := engine.Borrow(ctx, first, itemID)
	if err != nil {
		return fmt.Errorf("borrow failed: %w", err)
	}
	logger.Info("item borrowed", "due_date", transaction.DueDate.Format(time.DateOnly))

	if _, err = engine.Borrow(ctx, second, itemID); !errors.Is(err, lending.ErrItemUnavailable) {
		return fmt.Errorf("expected the second borrow to be rejected, got: %v", err)
	}
	logger.Info("concurrent borrow rejected while the item is out")

	returnedOn := transaction.DueDate.AddDate(0, 0, daysLate)

	lateEngine, err := newEngine(db, logger, func() time.Time { return returnedOn })
	if err != nil {
		return err
	}

	closed, err := lateEngine.Return(ctx, first, itemID)
	if err != nil {
		return fmt.Errorf("return failed: %w", err)
	}
	logger.Info("item returned",
		"return_date", closed.ReturnDate.Format(time.DateOnly),
		"fine", *closed.Fine,
	)

	if _, err = lateEngine.Borrow(ctx, second, itemID); err != nil {
		return fmt.Errorf("re-borrow of the released item failed: %w", err)
	}
	logger.Info("released item borrowed again")

	return nil
}

func seedScenarioData(ctx context.Context, db *lendingDB, itemID uuid.UUID, identities ...lending.Identity) error {
	itemStmt := fmt.Sprintf(
		`INSERT INTO items (item_id, title, available) VALUES ('%s', 'scenario item', TRUE)`,
		itemID.String(),
	)
	if err := db.exec(ctx, itemStmt); err != nil {
		return fmt.Errorf("seeding item: %w", err)
	}

	for _, identity := range identities {
		borrowerStmt := fmt.Sprintf(
			`INSERT INTO borrowers (borrower_id, name, role) VALUES ('%s', 'scenario borrower', '%s')`,
			identity.BorrowerID.String(),
			identity.Role,
		)
		if err := db.exec(ctx, borrowerStmt); err != nil {
			return fmt.Errorf("seeding borrower: %w", err)
		}
	}

	return nil
}
