package lendingengine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
	"github.com/AarushGaikwad/LibraryManagementSystem/lending/lendingengine"
)

// fakeLendingStore is an in-memory implementation of the engine's store
// interfaces with the same atomicity guarantees as the Postgres engine:
// every method is one indivisible step under a single mutex.
type fakeLendingStore struct {
	mu           sync.Mutex
	items        map[uuid.UUID]bool // item id -> available
	borrowers    map[uuid.UUID]bool
	transactions map[uuid.UUID]lending.Transaction
	auditEvents  lending.AuditEvents

	failCreateActive error // injected CreateActive failure, for compensation tests
}

func newFakeLendingStore() *fakeLendingStore {
	return &fakeLendingStore{
		items:        make(map[uuid.UUID]bool),
		borrowers:    make(map[uuid.UUID]bool),
		transactions: make(map[uuid.UUID]lending.Transaction),
	}
}

func (s *fakeLendingStore) addItem(itemID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[itemID] = true
}

func (s *fakeLendingStore) addBorrower(borrowerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.borrowers[borrowerID] = true
}

func (s *fakeLendingStore) isAvailable(itemID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.items[itemID]
}

func (s *fakeLendingStore) activeTransactionCount(itemID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, transaction := range s.transactions {
		if transaction.ItemID == itemID && transaction.IsActive() {
			count++
		}
	}

	return count
}

func (s *fakeLendingStore) TryReserve(_ context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	available, exists := s.items[itemID]
	if !exists {
		return lending.ErrItemNotFound
	}

	if !available {
		return lending.ErrItemUnavailable
	}

	s.items[itemID] = false

	return nil
}

func (s *fakeLendingStore) Release(_ context.Context, itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[itemID]; !exists {
		return lending.ErrItemNotFound
	}

	s.items[itemID] = true

	return nil
}

func (s *fakeLendingStore) CreateActive(_ context.Context, transaction lending.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreateActive != nil {
		return s.failCreateActive
	}

	for _, existing := range s.transactions {
		if existing.ItemID == transaction.ItemID && existing.IsActive() {
			return lending.ErrConcurrentModification
		}
	}

	s.transactions[transaction.ID] = transaction

	return nil
}

func (s *fakeLendingStore) FindActive(_ context.Context, borrowerID uuid.UUID, itemID uuid.UUID) (lending.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches lending.Transactions
	for _, transaction := range s.transactions {
		if transaction.BorrowerID == borrowerID && transaction.ItemID == itemID && transaction.IsActive() {
			matches = append(matches, transaction)
		}
	}

	switch len(matches) {
	case 0:
		return lending.Transaction{}, lending.ErrNoActiveBorrow
	case 1:
		return matches[0], nil
	default:
		return lending.Transaction{}, lending.ErrIntegrityViolation
	}
}

func (s *fakeLendingStore) CloseActiveAndRelease(_ context.Context, transactionID uuid.UUID, returnDate time.Time, fine float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, exists := s.transactions[transactionID]
	if !exists || !transaction.IsActive() {
		return lending.ErrConcurrentModification
	}

	s.transactions[transactionID] = transaction.Closed(returnDate, fine)
	s.items[transaction.ItemID] = true

	return nil
}

func (s *fakeLendingStore) FindByID(_ context.Context, transactionID uuid.UUID) (lending.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transaction, exists := s.transactions[transactionID]
	if !exists {
		return lending.Transaction{}, lending.ErrTransactionNotFound
	}

	return transaction, nil
}

func (s *fakeLendingStore) ListAll(_ context.Context) (lending.Transactions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(lending.Transactions, 0, len(s.transactions))
	for _, transaction := range s.transactions {
		all = append(all, transaction)
	}

	return all, nil
}

func (s *fakeLendingStore) HasBorrower(_ context.Context, borrowerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.borrowers[borrowerID], nil
}

func (s *fakeLendingStore) AppendAuditEvent(_ context.Context, event lending.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditEvents = append(s.auditEvents, event)

	return nil
}

/*** Test setup helpers ***/

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func engineWithClock(t *testing.T, store *fakeLendingStore, at time.Time, options ...lendingengine.Option) lendingengine.Engine {
	t.Helper()

	options = append(options,
		lendingengine.WithClock(fixedClock(at)),
		lendingengine.WithAuditLog(store),
	)

	engine, err := lendingengine.NewEngine(store, store, store, options...)
	require.NoError(t, err)

	return engine
}

func givenBorrowedItem(
	t *testing.T,
	store *fakeLendingStore,
	engine lendingengine.Engine,
	identity lending.Identity,
) uuid.UUID {

	t.Helper()

	itemID := uuid.New()
	store.addItem(itemID)

	_, err := engine.Borrow(context.Background(), identity, itemID)
	require.NoError(t, err)

	return itemID
}

var borrowedOn = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

/*** Borrow ***/

func Test_Borrow_Success(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := uuid.New()
	store.addItem(itemID)

	transaction, err := engine.Borrow(context.Background(), identity, itemID)

	require.NoError(t, err)
	assert.Equal(t, identity.BorrowerID, transaction.BorrowerID)
	assert.Equal(t, itemID, transaction.ItemID)
	assert.Equal(t, lending.ToLendingDate(borrowedOn), transaction.BorrowDate)
	assert.Equal(t, lending.ToLendingDate(borrowedOn).AddDate(0, 0, 14), transaction.DueDate)
	assert.True(t, transaction.IsActive())
	assert.False(t, store.isAvailable(itemID))
}

func Test_Borrow_ItemUnavailable(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	first := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	second := lending.BuildIdentity(uuid.New(), lending.RoleTeacher)
	store.addBorrower(first.BorrowerID)
	store.addBorrower(second.BorrowerID)
	itemID := givenBorrowedItem(t, store, engine, first)

	_, err := engine.Borrow(context.Background(), second, itemID)

	assert.ErrorIs(t, err, lending.ErrItemUnavailable)
	assert.Equal(t, 1, store.activeTransactionCount(itemID))
}

func Test_Borrow_ItemNotFound(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)

	_, err := engine.Borrow(context.Background(), identity, uuid.New())

	assert.ErrorIs(t, err, lending.ErrItemNotFound)
}

func Test_Borrow_BorrowerNotFound(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	itemID := uuid.New()
	store.addItem(itemID)

	_, err := engine.Borrow(context.Background(), identity, itemID)

	assert.ErrorIs(t, err, lending.ErrBorrowerNotFound)
	assert.True(t, store.isAvailable(itemID), "item must stay available when the borrower is unknown")
}

func Test_Borrow_CompensatesReservationWhenRecordingFails(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := uuid.New()
	store.addItem(itemID)

	recordingFailure := errors.New("ledger write failed")
	store.failCreateActive = recordingFailure

	_, err := engine.Borrow(context.Background(), identity, itemID)

	assert.ErrorIs(t, err, recordingFailure)
	assert.True(t, store.isAvailable(itemID), "reservation must be rolled back")
	assert.Equal(t, 0, store.activeTransactionCount(itemID))
}

func Test_Borrow_Concurrent_ExactlyOneSucceeds(t *testing.T) {
	const attempts = 32

	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	itemID := uuid.New()
	store.addItem(itemID)

	identities := make([]lending.Identity, attempts)
	for i := range identities {
		identities[i] = lending.BuildIdentity(uuid.New(), lending.RoleStudent)
		store.addBorrower(identities[i].BorrowerID)
	}

	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = engine.Borrow(context.Background(), identities[idx], itemID)
		}(i)
	}

	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, lending.ErrItemUnavailable)
		}
	}

	assert.Equal(t, 1, successes, "exactly one concurrent borrow must win")
	assert.Equal(t, 1, store.activeTransactionCount(itemID))
	assert.False(t, store.isAvailable(itemID))
}

/*** Return ***/

func Test_Return_OnTime_NoFine(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := givenBorrowedItem(t, store, engine, identity)

	// Return on the due date itself.
	returnEngine := engineWithClock(t, store, borrowedOn.AddDate(0, 0, 14))

	closed, err := returnEngine.Return(context.Background(), identity, itemID)

	require.NoError(t, err)
	require.NotNil(t, closed.Fine)
	assert.InDelta(t, 0.0, *closed.Fine, 0.0001)
	assert.False(t, closed.IsActive())
	assert.True(t, store.isAvailable(itemID))
}

func Test_Return_Late_AssessesFine(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := givenBorrowedItem(t, store, engine, identity)

	// Two days past the 14 day window.
	returnEngine := engineWithClock(t, store, borrowedOn.AddDate(0, 0, 16))

	closed, err := returnEngine.Return(context.Background(), identity, itemID)

	require.NoError(t, err)
	require.NotNil(t, closed.Fine)
	assert.InDelta(t, 20.0, *closed.Fine, 0.0001)
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, lending.ToLendingDate(borrowedOn).AddDate(0, 0, 16), *closed.ReturnDate)
	assert.True(t, store.isAvailable(itemID))
}

func Test_Return_CustomFineRateAndWindow(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn,
		lendingengine.WithBorrowDays(7),
		lendingengine.WithFinePerDay(2.5),
	)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleTeacher)
	store.addBorrower(identity.BorrowerID)
	itemID := givenBorrowedItem(t, store, engine, identity)

	// Three days past the 7 day window.
	returnEngine := engineWithClock(t, store, borrowedOn.AddDate(0, 0, 10),
		lendingengine.WithBorrowDays(7),
		lendingengine.WithFinePerDay(2.5),
	)

	closed, err := returnEngine.Return(context.Background(), identity, itemID)

	require.NoError(t, err)
	require.NotNil(t, closed.Fine)
	assert.InDelta(t, 7.5, *closed.Fine, 0.0001)
}

func Test_Return_NoActiveBorrow(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := uuid.New()
	store.addItem(itemID)

	_, err := engine.Return(context.Background(), identity, itemID)

	assert.ErrorIs(t, err, lending.ErrNoActiveBorrow)
	assert.True(t, store.isAvailable(itemID))
}

func Test_Return_SecondReturnChangesNothing(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := givenBorrowedItem(t, store, engine, identity)

	first, err := engine.Return(context.Background(), identity, itemID)
	require.NoError(t, err)

	_, err = engine.Return(context.Background(), identity, itemID)

	assert.ErrorIs(t, err, lending.ErrNoActiveBorrow)

	// The record keeps the outcome of the first return.
	recorded, err := engine.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	require.NotNil(t, recorded.ReturnDate)
	assert.Equal(t, *first.ReturnDate, *recorded.ReturnDate)
}

func Test_Return_IntegrityViolationIsSurfaced(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := uuid.New()
	store.addItem(itemID)

	// Two active records for the same pair, seeded behind the engine's back.
	first := lending.BuildActiveTransaction(uuid.New(), identity.BorrowerID, itemID, borrowedOn, 14)
	second := lending.BuildActiveTransaction(uuid.New(), identity.BorrowerID, itemID, borrowedOn, 14)
	store.transactions[first.ID] = first
	store.transactions[second.ID] = second

	_, err := engine.Return(context.Background(), identity, itemID)

	assert.ErrorIs(t, err, lending.ErrIntegrityViolation)
}

/*** Lifecycle and invariants ***/

func Test_BorrowReturnReborrow_Lifecycle(t *testing.T) {
	store := newFakeLendingStore()
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	other := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	store.addBorrower(other.BorrowerID)
	itemID := uuid.New()
	store.addItem(itemID)

	ctx := context.Background()

	// Day 0: borrow, due in 14 days.
	engine := engineWithClock(t, store, borrowedOn)
	transaction, err := engine.Borrow(ctx, identity, itemID)
	require.NoError(t, err)
	assert.Equal(t, lending.ToLendingDate(borrowedOn).AddDate(0, 0, 14), transaction.DueDate)

	// A second borrower is rejected while the item is out.
	_, err = engine.Borrow(ctx, other, itemID)
	assert.ErrorIs(t, err, lending.ErrItemUnavailable)

	// Day 16: return two days late, fine 2 * 10.
	lateEngine := engineWithClock(t, store, borrowedOn.AddDate(0, 0, 16))
	closed, err := lateEngine.Return(ctx, identity, itemID)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, *closed.Fine, 0.0001)

	// The item is immediately borrowable again.
	_, err = lateEngine.Borrow(ctx, other, itemID)
	require.NoError(t, err)

	all, err := lateEngine.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func Test_AvailabilityMatchesActiveTransactions_UnderConcurrentLifecycles(t *testing.T) {
	const rounds = 20

	store := newFakeLendingStore()
	itemID := uuid.New()
	store.addItem(itemID)

	identities := make([]lending.Identity, 4)
	for i := range identities {
		identities[i] = lending.BuildIdentity(uuid.New(), lending.RoleStudent)
		store.addBorrower(identities[i].BorrowerID)
	}

	engine := engineWithClock(t, store, borrowedOn)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, identity := range identities {
		wg.Add(1)
		go func(id lending.Identity) {
			defer wg.Done()
			for round := 0; round < rounds; round++ {
				if _, err := engine.Borrow(ctx, id, itemID); err == nil {
					_, _ = engine.Return(ctx, id, itemID)
				}
			}
		}(identity)
	}

	wg.Wait()

	// Available exactly when no active transaction exists.
	activeCount := store.activeTransactionCount(itemID)
	assert.LessOrEqual(t, activeCount, 1)
	assert.Equal(t, activeCount == 0, store.isAvailable(itemID))
}

/*** Reads and audit ***/

func Test_FindByID_NotFound(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)

	_, err := engine.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, lending.ErrTransactionNotFound)
}

func Test_AuditEventsAreAppendedForCommittedOperations(t *testing.T) {
	store := newFakeLendingStore()
	engine := engineWithClock(t, store, borrowedOn)
	identity := lending.BuildIdentity(uuid.New(), lending.RoleStudent)
	store.addBorrower(identity.BorrowerID)
	itemID := givenBorrowedItem(t, store, engine, identity)

	_, err := engine.Return(context.Background(), identity, itemID)
	require.NoError(t, err)

	require.Len(t, store.auditEvents, 2)
	assert.Equal(t, lending.ItemBorrowedEventType, store.auditEvents[0].IsEventType())
	assert.Equal(t, lending.ItemReturnedEventType, store.auditEvents[1].IsEventType())
}

/*** Construction ***/

func Test_NewEngine_Validation(t *testing.T) {
	store := newFakeLendingStore()

	_, err := lendingengine.NewEngine(nil, store, store)
	assert.ErrorIs(t, err, lendingengine.ErrNilInventory)

	_, err = lendingengine.NewEngine(store, nil, store)
	assert.ErrorIs(t, err, lendingengine.ErrNilLedger)

	_, err = lendingengine.NewEngine(store, store, nil)
	assert.ErrorIs(t, err, lendingengine.ErrNilBorrowerDirectory)

	_, err = lendingengine.NewEngine(store, store, store, lendingengine.WithBorrowDays(0))
	assert.ErrorIs(t, err, lendingengine.ErrInvalidBorrowDays)

	_, err = lendingengine.NewEngine(store, store, store, lendingengine.WithFinePerDay(-1))
	assert.ErrorIs(t, err, lendingengine.ErrNegativeFinePerDay)
}
