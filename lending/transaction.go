package lending

import (
	"time"

	"github.com/google/uuid"
)

// Transactions is an alias type for a slice of Transaction.
type Transactions = []Transaction

// Transaction is a borrow record for one item and one borrower.
//
// A transaction is created by a successful borrow with ReturnDate unset
// ("active") and is mutated exactly once, on return, when ReturnDate and Fine
// are set together. Records are never deleted. The lending engine is the sole
// writer; references to the item and borrower are by identifier only.
type Transaction struct {
	ID         uuid.UUID
	BorrowerID uuid.UUID
	ItemID     uuid.UUID
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Fine       *float64
}

// BuildActiveTransaction creates a new active transaction for a successful
// borrow. The due date is the borrow date plus the borrow window.
func BuildActiveTransaction(
	id uuid.UUID,
	borrowerID uuid.UUID,
	itemID uuid.UUID,
	borrowDate time.Time,
	borrowDays int,
) Transaction {

	borrowedOn := ToLendingDate(borrowDate)

	return Transaction{
		ID:         id,
		BorrowerID: borrowerID,
		ItemID:     itemID,
		BorrowDate: borrowedOn,
		DueDate:    borrowedOn.AddDate(0, 0, borrowDays),
	}
}

// IsActive reports whether the transaction has not been returned yet.
func (t Transaction) IsActive() bool {
	return t.ReturnDate == nil
}

// Closed returns a copy of the transaction with the return date and fine set.
func (t Transaction) Closed(returnDate time.Time, fine float64) Transaction {
	returnedOn := ToLendingDate(returnDate)

	closed := t
	closed.ReturnDate = &returnedOn
	closed.Fine = &fine

	return closed
}

// ToLendingDate normalizes a point in time to a calendar date: midnight UTC.
// All borrow, due and return dates carry date-level granularity.
func ToLendingDate(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
