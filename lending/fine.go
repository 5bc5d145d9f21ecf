package lending

import (
	"time"
)

// DefaultFinePerDay is the daily late-return penalty rate.
const DefaultFinePerDay = 10.0

// DefaultBorrowDays is the fixed borrow window from borrow date to due date.
const DefaultBorrowDays = 14

// FineForReturn computes the late-return penalty from the due date, the
// return date and a daily rate.
//
// Returned on or before the due date: zero. Otherwise the fine is the number
// of whole calendar days between the due date and the return date times the
// rate - exact date subtraction, no partial-day rounding.
//
// Pure and deterministic: no I/O, no clock, no hidden state.
func FineForReturn(dueDate time.Time, returnDate time.Time, ratePerDay float64) float64 {
	due := ToLendingDate(dueDate)
	returned := ToLendingDate(returnDate)

	if !returned.After(due) {
		return 0
	}

	return float64(WholeDaysBetween(due, returned)) * ratePerDay
}

// WholeDaysBetween returns the number of whole calendar days from one date to
// a later date. Both arguments are normalized to midnight UTC first, so the
// division is exact.
func WholeDaysBetween(from time.Time, to time.Time) int {
	return int(ToLendingDate(to).Sub(ToLendingDate(from)) / (24 * time.Hour))
}
