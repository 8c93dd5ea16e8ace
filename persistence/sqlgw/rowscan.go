package sqlgw

import (
	"database/sql"
	"time"

	core "ordersaga/data/db"
	"ordersaga/domain"
)

const sagaExecutionColumns = `id, order_id, current_step_index, status, failed_step_index, failure_reason,
	trace_id, started_at, completed_at, compensation_started_at, compensation_completed_at,
	version, created_at, updated_at`

// scanner is the subset of core.IRow/core.IRows both satisfy.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrderRow(row scanner) (*domain.Order, error) {
	var (
		o         domain.Order
		status    string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.TotalAmountInMinorUnits, &status, &o.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	var err error
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanSagaExecutionRow(row scanner) (*domain.SagaExecution, error) {
	return scanSagaExecution(row)
}

func scanSagaExecutionRows(rows core.IRows) (*domain.SagaExecution, error) {
	return scanSagaExecution(rows)
}

func scanSagaExecution(row scanner) (*domain.SagaExecution, error) {
	var (
		e                         domain.SagaExecution
		status                    string
		failedStepIndex           sql.NullInt64
		failureReason             sql.NullString
		traceID                   sql.NullString
		startedAt                 string
		completedAt               sql.NullString
		compensationStartedAt     sql.NullString
		compensationCompletedAt   sql.NullString
		createdAt, updatedAt      string
	)
	if err := row.Scan(&e.ID, &e.OrderID, &e.CurrentStepIndex, &status, &failedStepIndex, &failureReason,
		&traceID, &startedAt, &completedAt, &compensationStartedAt, &compensationCompletedAt,
		&e.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.Status = domain.SagaExecutionStatus(status)
	if failedStepIndex.Valid {
		idx := int(failedStepIndex.Int64)
		e.FailedStepIndex = &idx
	}
	if failureReason.Valid {
		e.FailureReason = &failureReason.String
	}
	if traceID.Valid {
		e.TraceID = &traceID.String
	}

	var err error
	if e.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if e.CompletedAt, err = nullTimePtr(completedAt); err != nil {
		return nil, err
	}
	if e.CompensationStartedAt, err = nullTimePtr(compensationStartedAt); err != nil {
		return nil, err
	}
	if e.CompensationCompletedAt, err = nullTimePtr(compensationCompletedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanStepExecutionRows(rows core.IRows) (*domain.StepExecution, error) {
	var (
		s                    domain.StepExecution
		status               string
		startedAt            sql.NullString
		completedAt          sql.NullString
		compensatedAt        sql.NullString
		errorCode            sql.NullString
		errorMessage         sql.NullString
		createdAt, updatedAt string
	)
	if err := rows.Scan(&s.ID, &s.SagaExecutionID, &s.StepName, &s.StepIndex, &status,
		&startedAt, &completedAt, &compensatedAt, &errorCode, &errorMessage, &s.ResultPayload,
		&s.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.Status = domain.StepExecutionStatus(status)
	if errorCode.Valid {
		s.ErrorCode = &errorCode.String
	}
	if errorMessage.Valid {
		s.ErrorMessage = &errorMessage.String
	}

	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if s.StartedAt, err = nullTimePtr(startedAt); err != nil {
		return nil, err
	}
	if s.CompletedAt, err = nullTimePtr(completedAt); err != nil {
		return nil, err
	}
	if s.CompensatedAt, err = nullTimePtr(compensatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanOrderEventRows(rows core.IRows) (*domain.OrderEvent, error) {
	var (
		e                    domain.OrderEvent
		sagaExecutionID      sql.NullString
		eventType            string
		stepName             sql.NullString
		outcome              string
		errorInfoRaw         []byte
		recordedAt           string
		createdAt, updatedAt string
	)
	if err := rows.Scan(&e.ID, &e.OrderID, &sagaExecutionID, &eventType, &stepName, &outcome,
		&e.Details, &errorInfoRaw, &recordedAt, &e.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.EventType = domain.EventType(eventType)
	e.Outcome = domain.Outcome(outcome)
	if sagaExecutionID.Valid {
		e.SagaExecutionID = &sagaExecutionID.String
	}
	if stepName.Valid {
		e.StepName = &stepName.String
	}

	info, err := unmarshalErrorInfo(errorInfoRaw)
	if err != nil {
		return nil, err
	}
	e.ErrorInfo = info

	if e.RecordedAt, err = parseTime(recordedAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanRetryAttemptRow(row scanner) (*domain.RetryAttempt, error) {
	var (
		a                    domain.RetryAttempt
		retryExecutionID     sql.NullString
		resumedFromStepName  sql.NullString
		skippedStepNames     sql.NullString
		outcome              sql.NullString
		failureReason        sql.NullString
		initiatedAt          string
		completedAt          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&a.ID, &a.OrderID, &a.OriginalExecutionID, &retryExecutionID, &a.AttemptNumber,
		&resumedFromStepName, &skippedStepNames, &outcome, &failureReason,
		&initiatedAt, &completedAt, &a.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if retryExecutionID.Valid {
		a.RetryExecutionID = &retryExecutionID.String
	}
	if resumedFromStepName.Valid {
		a.ResumedFromStepName = &resumedFromStepName.String
	}
	if outcome.Valid {
		o := domain.RetryOutcome(outcome.String)
		a.Outcome = &o
	}
	if failureReason.Valid {
		a.FailureReason = &failureReason.String
	}

	var skippedPtr *string
	if skippedStepNames.Valid {
		skippedPtr = &skippedStepNames.String
	}
	names, err := unmarshalStringSlice(skippedPtr)
	if err != nil {
		return nil, err
	}
	a.SkippedStepNames = names

	if a.InitiatedAt, err = parseTime(initiatedAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if a.CompletedAt, err = nullTimePtr(completedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func nullTimePtr(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
