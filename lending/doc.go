// Package lending provides the core abstractions and types for the library
// lending kernel: the transaction record, the fine calculation, the typed
// error taxonomy, and the retry discipline for optimistic concurrency
// conflicts.
//
// This package defines the contracts shared by the lending engine and the
// storage implementations. It holds no mutable state and performs no I/O.
//
// Key types:
//   - Transaction: A borrow record; active while ReturnDate is unset
//   - Identity: The authenticated caller (borrower id plus role) supplied by
//     the authorization boundary before the engine is invoked
//   - AuditEvent: Append-only record of lending activity
//
// Common usage pattern:
//
//	identity := lending.BuildIdentity(borrowerID, lending.RoleStudent)
//
//	tx, err := engine.Borrow(ctx, identity, itemID)
//	switch {
//	case errors.Is(err, lending.ErrItemUnavailable):
//		// business rejection, surface to the caller
//	case errors.Is(err, lending.ErrConcurrentModification):
//		// retries exhausted, the caller may try again
//	}
package lending
