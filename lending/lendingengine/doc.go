// Package lendingengine implements the lending transaction engine: borrow and
// return as race-free operations over an inventory store and a transaction
// ledger, plus read-only reporting pass-throughs.
//
// The engine is stateless between calls - all shared mutable state lives in
// the stores. Mutual exclusion on reservation is carried by the store's atomic
// compare-and-set; the engine adds the orchestration around it:
//
//   - borrow: reserve the item (CAS gate), record the active transaction,
//     releasing the reservation again if recording fails so inventory never
//     leaks
//   - return: locate the single active transaction, compute the fine, then
//     close the record and release the item in one indivisible store update
//
// Detected concurrent modifications are retried internally with bounded
// exponential backoff; business rejections fail fast and are surfaced as the
// typed errors of the lending package.
package lendingengine
