package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

const listTimeout = 30 * time.Second

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all lending transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), listTimeout)
			defer cancel()

			logger := newLogger(viper.GetBool("verbose"))

			db, err := openLendingDB(ctx, logger)
			if err != nil {
				return err
			}
			defer db.close()

			transactions, err := db.store.ListAll(ctx)
			if err != nil {
				return err
			}

			for _, transaction := range transactions {
				fmt.Println(formatTransaction(transaction))
			}

			fmt.Printf("%d transaction(s)\n", len(transactions))

			return nil
		},
	}
}

func formatTransaction(transaction lending.Transaction) string {
	status := "active"
	fine := "-"

	if !transaction.IsActive() {
		status = "returned " + transaction.ReturnDate.Format(time.DateOnly)
	}

	if transaction.Fine != nil {
		fine = fmt.Sprintf("%.2f", *transaction.Fine)
	}

	return fmt.Sprintf("%s  item=%s borrower=%s borrowed=%s due=%s status=%s fine=%s",
		transaction.ID,
		transaction.ItemID,
		transaction.BorrowerID,
		transaction.BorrowDate.Format(time.DateOnly),
		transaction.DueDate.Format(time.DateOnly),
		status,
		fine,
	)
}
