package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// AppendAuditEvent appends one lending audit event to the append-only audit
// table, with the event payload serialized as JSON.
func (s LendingStore) AppendAuditEvent(ctx context.Context, event lending.AuditEvent) error {
	payload, marshalErr := lending.MarshalAuditEvent(event)
	if marshalErr != nil {
		return marshalErr
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.auditTable).
		Cols(colEventType, colOccurredAt, colPayload).
		Vals(goqu.Vals{
			event.IsEventType(),
			event.HasOccurredAt(),
			goqu.L(castJsonb, string(payload)),
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	if _, execErr := s.executeStatement(ctx, sqlQuery, logActionAppendAudit); execErr != nil {
		return execErr
	}

	s.logOperation(logActionAppendAudit, "audit_event_type", event.IsEventType())

	return nil
}
