package lending

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// ErrMarshalingAuditEventFailed is returned when audit event serialization fails.
var ErrMarshalingAuditEventFailed = errors.New("marshaling audit event failed")

var auditJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// ItemBorrowedEventType is the audit event type identifier for a successful borrow.
const ItemBorrowedEventType = "ItemBorrowed"

// ItemReturnedEventType is the audit event type identifier for a successful return.
const ItemReturnedEventType = "ItemReturned"

// AuditEvent is a record of completed lending activity, serialized into the
// append-only audit trail. It is reporting data, not system of record: the
// ledger alone holds transaction identity.
type AuditEvent interface {
	IsEventType() string
	HasOccurredAt() time.Time
}

// AuditEvents is an alias type for a slice of AuditEvent.
type AuditEvents = []AuditEvent

// ItemBorrowed represents a committed borrow of an item.
type ItemBorrowed struct {
	EventType     string
	TransactionID string
	BorrowerID    string
	ItemID        string
	Role          string
	DueDate       string
	OccurredAt    time.Time
}

// BuildItemBorrowed creates an ItemBorrowed audit event from a committed transaction.
func BuildItemBorrowed(transaction Transaction, identity Identity) ItemBorrowed {
	return ItemBorrowed{
		EventType:     ItemBorrowedEventType,
		TransactionID: transaction.ID.String(),
		BorrowerID:    transaction.BorrowerID.String(),
		ItemID:        transaction.ItemID.String(),
		Role:          string(identity.Role),
		DueDate:       transaction.DueDate.Format(time.DateOnly),
		OccurredAt:    transaction.BorrowDate,
	}
}

// IsEventType returns the event type identifier.
func (e ItemBorrowed) IsEventType() string {
	return ItemBorrowedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ItemBorrowed) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// ItemReturned represents a committed return of an item, with the fine that was assessed.
type ItemReturned struct {
	EventType     string
	TransactionID string
	BorrowerID    string
	ItemID        string
	Role          string
	Fine          float64
	DaysLate      int
	OccurredAt    time.Time
}

// BuildItemReturned creates an ItemReturned audit event from a closed transaction.
func BuildItemReturned(transaction Transaction, identity Identity) ItemReturned {
	event := ItemReturned{
		EventType:     ItemReturnedEventType,
		TransactionID: transaction.ID.String(),
		BorrowerID:    transaction.BorrowerID.String(),
		ItemID:        transaction.ItemID.String(),
		Role:          string(identity.Role),
	}

	if transaction.Fine != nil {
		event.Fine = *transaction.Fine
	}

	if transaction.ReturnDate != nil {
		event.OccurredAt = *transaction.ReturnDate

		if transaction.ReturnDate.After(transaction.DueDate) {
			event.DaysLate = WholeDaysBetween(transaction.DueDate, *transaction.ReturnDate)
		}
	}

	return event
}

// IsEventType returns the event type identifier.
func (e ItemReturned) IsEventType() string {
	return ItemReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e ItemReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// MarshalAuditEvent serializes an audit event payload to JSON.
func MarshalAuditEvent(event AuditEvent) ([]byte, error) {
	payload, err := auditJSON.Marshal(event)
	if err != nil {
		return nil, errors.Join(ErrMarshalingAuditEventFailed, err)
	}

	return payload, nil
}
