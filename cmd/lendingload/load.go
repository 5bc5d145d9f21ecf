package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

const loadTimeout = 5 * time.Minute

// loadCounters aggregates outcomes across all workers.
type loadCounters struct {
	borrows     atomic.Int64
	returns     atomic.Int64
	unavailable atomic.Int64
	noActive    atomic.Int64
	failures    atomic.Int64
}

// newLoadCmd drives many workers through borrow/return cycles over a small
// set of shared items. Contention on the items makes the conflict paths
// visible: most attempts lose the reservation race and are rejected, while
// availability stays consistent with the active transactions.
func newLoadCmd() *cobra.Command {
	var workers int
	var rounds int
	var items int

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run concurrent borrow/return load against shared items",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
			defer cancel()

			return runLoad(ctx, workers, rounds, items)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 8, "number of concurrent workers")
	cmd.Flags().IntVar(&rounds, "rounds", 50, "borrow/return rounds per worker")
	cmd.Flags().IntVar(&items, "items", 2, "number of shared items to contend on")

	return cmd
}

func runLoad(ctx context.Context, workers int, rounds int, items int) error {
	logger := newLogger(viper.GetBool("verbose"))

	db, err := openLendingDB(ctx, logger)
	if err != nil {
		return err
	}
	defer db.close()

	itemIDs := make([]uuid.UUID, items)
	for i := range itemIDs {
		itemIDs[i] = uuid.New()

		itemStmt := fmt.Sprintf(
			`INSERT INTO items (item_id, title, available) VALUES ('%s', 'load item %d', TRUE)`,
			itemIDs[i].String(), i,
		)
		if err = db.exec(ctx, itemStmt); err != nil {
			return fmt.Errorf("seeding item: %w", err)
		}
	}

	identities := make([]lending.Identity, workers)
	for i := range identities {
		identities[i] = lending.BuildIdentity(uuid.New(), lending.RoleStudent)

		borrowerStmt := fmt.Sprintf(
			`INSERT INTO borrowers (borrower_id, name, role) VALUES ('%s', 'load worker %d', 'STUDENT')`,
			identities[i].BorrowerID.String(), i,
		)
		if err = db.exec(ctx, borrowerStmt); err != nil {
			return fmt.Errorf("seeding borrower: %w", err)
		}
	}

	engine, err := newEngine(db, logger, time.Now)
	if err != nil {
		return err
	}

	counters := &loadCounters{}
	start := time.Now()

	var wg sync.WaitGroup
	for workerIdx := 0; workerIdx < workers; workerIdx++ {
		wg.Add(1)

		go func(identity lending.Identity, offset int) {
			defer wg.Done()

			for round := 0; round < rounds; round++ {
				itemID := itemIDs[(offset+round)%len(itemIDs)]
				runLoadRound(ctx, engine, identity, itemID, counters)
			}
		}(identities[workerIdx], workerIdx)
	}

	wg.Wait()

	logger.Info("load run finished",
		"duration", time.Since(start).String(),
		"borrows", counters.borrows.Load(),
		"returns", counters.returns.Load(),
		"rejected_unavailable", counters.unavailable.Load(),
		"rejected_no_active", counters.noActive.Load(),
		"failures", counters.failures.Load(),
	)

	if counters.failures.Load() > 0 {
		return fmt.Errorf("%d operations failed unexpectedly", counters.failures.Load())
	}

	return nil
}

// runLoadRound is one borrow/return cycle of one worker on one item.
// Losing the reservation race or racing another return are expected outcomes
// under contention, everything else counts as a failure.
func runLoadRound(
	ctx context.Context,
	engine loadEngine,
	identity lending.Identity,
	itemID uuid.UUID,
	counters *loadCounters,
) {

	_, err := engine.Borrow(ctx, identity, itemID)

	switch {
	case err == nil:
		counters.borrows.Add(1)
	case errors.Is(err, lending.ErrItemUnavailable):
		counters.unavailable.Add(1)
		return
	default:
		counters.failures.Add(1)
		return
	}

	_, err = engine.Return(ctx, identity, itemID)

	switch {
	case err == nil:
		counters.returns.Add(1)
	case errors.Is(err, lending.ErrNoActiveBorrow):
		counters.noActive.Add(1)
	default:
		counters.failures.Add(1)
	}
}

// loadEngine is the slice of the engine the load loop needs.
type loadEngine interface {
	Borrow(ctx context.Context, identity lending.Identity, itemID uuid.UUID) (lending.Transaction, error)
	Return(ctx context.Context, identity lending.Identity, itemID uuid.UUID) (lending.Transaction, error)
}
