// Package sqlgw is the relational Persistence Gateway implementation: raw
// SQL over ordersaga/data/db, using modernc.org/sqlite as the default
// driver. Placeholders are the driver-agnostic `?` form (data/db/dialect
// rebinds it for Postgres); writes that must be atomic go through a single
// database transaction; TransitionExecution implements optimistic
// concurrency as an `UPDATE ... WHERE status = ?`.
package sqlgw

import (
	"context"
	"database/sql"
	"fmt"

	core "ordersaga/data/db"
	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/errorsx"
	"ordersaga/persistence"
)

// Gateway is the sqlite/postgres-backed persistence.Gateway implementation.
type Gateway struct {
	db    core.IDatabase
	clock clock.Clock
}

// New wraps an already-open core.IDatabase. Callers run Migrate once before
// first use. clk timestamps rows this gateway, rather than the caller,
// writes without an explicit time (CompleteRetryAttempt's completed_at).
func New(database core.IDatabase, clk clock.Clock) *Gateway {
	return &Gateway{db: database, clock: clk}
}

func (g *Gateway) InsertOrderAndItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	tx, err := g.db.Begin(ctx)
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "begin insert order")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(ctx, `INSERT INTO orders
		(id, customer_id, total_amount_in_minor_units, status, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerID, order.TotalAmountInMinorUnits, string(order.Status),
		order.Version, formatTime(order.CreatedAt), formatTime(order.UpdatedAt))
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "insert order")
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `INSERT INTO order_items
			(id, order_id, product_id, product_name, quantity, unit_price_in_minor_units, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPriceInMinorUnits,
			item.Version, formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
		if err != nil {
			return errorsx.WrapDatabaseError(ctx, err, "insert order item")
		}
	}

	if err := tx.Commit(); err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "commit insert order")
	}
	order.MarkPersisted()
	for _, item := range items {
		item.MarkPersisted()
	}
	return nil
}

func (g *Gateway) InsertExecution(ctx context.Context, exec *domain.SagaExecution) error {
	active, err := g.HasActiveExecution(ctx, exec.OrderID)
	if err != nil {
		return err
	}
	if active {
		return persistence.ErrExecutionInProgress
	}

	_, err = g.db.Exec(ctx, `INSERT INTO saga_executions
		(id, order_id, current_step_index, status, failed_step_index, failure_reason, trace_id,
		 started_at, completed_at, compensation_started_at, compensation_completed_at,
		 version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.OrderID, exec.CurrentStepIndex, string(exec.Status),
		nullableIntArg(exec.FailedStepIndex), nullableStringArg(exec.FailureReason), nullableStringArg(exec.TraceID),
		formatTime(exec.StartedAt), nullableTimeArg(exec.CompletedAt),
		nullableTimeArg(exec.CompensationStartedAt), nullableTimeArg(exec.CompensationCompletedAt),
		exec.Version, formatTime(exec.CreatedAt), formatTime(exec.UpdatedAt))
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "insert saga execution")
	}
	exec.MarkPersisted()
	return nil
}

func (g *Gateway) RecordStepStart(ctx context.Context, step *domain.StepExecution) error {
	_, err := g.db.Exec(ctx, `INSERT INTO step_executions
		(id, saga_execution_id, step_name, step_index, status, started_at, completed_at,
		 compensated_at, error_code, error_message, result_payload, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID, step.SagaExecutionID, step.StepName, step.StepIndex, string(step.Status),
		nullableTimeArg(step.StartedAt), nullableTimeArg(step.CompletedAt), nullableTimeArg(step.CompensatedAt),
		nullableStringArg(step.ErrorCode), nullableStringArg(step.ErrorMessage), step.ResultPayload,
		step.Version, formatTime(step.CreatedAt), formatTime(step.UpdatedAt))
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "insert step execution")
	}
	step.MarkPersisted()
	return nil
}

func (g *Gateway) RecordStepCompletion(ctx context.Context, step *domain.StepExecution, exec *domain.SagaExecution) error {
	return g.withTx(ctx, func(tx core.ITransaction) error {
		if err := updateStepExecution(ctx, tx, step); err != nil {
			return err
		}
		return updateSagaExecution(ctx, tx, exec)
	})
}

func (g *Gateway) RecordStepFailure(ctx context.Context, step *domain.StepExecution, exec *domain.SagaExecution) error {
	return g.withTx(ctx, func(tx core.ITransaction) error {
		if err := updateStepExecution(ctx, tx, step); err != nil {
			return err
		}
		return updateSagaExecution(ctx, tx, exec)
	})
}

func (g *Gateway) RecordStepCompensated(ctx context.Context, step *domain.StepExecution) error {
	return g.withTx(ctx, func(tx core.ITransaction) error {
		return updateStepExecution(ctx, tx, step)
	})
}

func (g *Gateway) TransitionExecution(ctx context.Context, exec *domain.SagaExecution, fromStatus domain.SagaExecutionStatus) error {
	result, err := g.db.Exec(ctx, `UPDATE saga_executions SET
		status = ?, current_step_index = ?, failed_step_index = ?, failure_reason = ?,
		completed_at = ?, compensation_started_at = ?, compensation_completed_at = ?,
		version = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(exec.Status), exec.CurrentStepIndex, nullableIntArg(exec.FailedStepIndex), nullableStringArg(exec.FailureReason),
		nullableTimeArg(exec.CompletedAt), nullableTimeArg(exec.CompensationStartedAt), nullableTimeArg(exec.CompensationCompletedAt),
		exec.Version, formatTime(exec.UpdatedAt),
		exec.ID, string(fromStatus))
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "transition saga execution")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "transition saga execution rows affected")
	}
	if rows == 0 {
		return persistence.ErrVersionConflict
	}
	return nil
}

func (g *Gateway) AppendEvent(ctx context.Context, event *domain.OrderEvent) error {
	errInfo, err := marshalErrorInfo(event.ErrorInfo)
	if err != nil {
		return errorsx.Wrap(ctx, err, errorsx.ErrCodeValidationFailed, "marshal error info")
	}

	_, err = g.db.Exec(ctx, `INSERT INTO order_events
		(id, order_id, saga_execution_id, event_type, step_name, outcome, details, error_info,
		 recorded_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.OrderID, nullableStringArg(event.SagaExecutionID), string(event.EventType),
		nullableStringArg(event.StepName), string(event.Outcome), event.Details, errInfo,
		formatTime(event.RecordedAt), event.Version, formatTime(event.CreatedAt), formatTime(event.UpdatedAt))
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "append order event")
	}
	event.MarkPersisted()
	return nil
}

func (g *Gateway) LoadExecutionForResume(ctx context.Context, orderID string) (*domain.SagaExecution, []*domain.StepExecution, error) {
	row := g.db.QueryRow(ctx, `SELECT `+sagaExecutionColumns+` FROM saga_executions
		WHERE order_id = ? ORDER BY started_at DESC, id DESC LIMIT 1`, orderID)
	exec, err := scanSagaExecutionRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, persistence.ErrNotFound
		}
		return nil, nil, errorsx.WrapDatabaseError(ctx, err, "load execution for resume")
	}

	steps, err := g.ListStepExecutions(ctx, exec.ID)
	if err != nil {
		return nil, nil, err
	}
	return exec, steps, nil
}

func (g *Gateway) InsertRetryAttempt(ctx context.Context, attempt *domain.RetryAttempt) error {
	skipped, err := marshalStringSlice(attempt.SkippedStepNames)
	if err != nil {
		return errorsx.Wrap(ctx, err, errorsx.ErrCodeValidationFailed, "marshal skipped step names")
	}

	var outcome any
	if attempt.Outcome != nil {
		outcome = string(*attempt.Outcome)
	}

	_, err = g.db.Exec(ctx, `INSERT INTO retry_attempts
		(id, order_id, original_execution_id, retry_execution_id, attempt_number,
		 resumed_from_step_name, skipped_step_names, outcome, failure_reason,
		 initiated_at, completed_at, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.OrderID, attempt.OriginalExecutionID, nullableStringArg(attempt.RetryExecutionID),
		attempt.AttemptNumber, nullableStringArg(attempt.ResumedFromStepName), nullableStringArg(skipped),
		outcome, nullableStringArg(attempt.FailureReason),
		formatTime(attempt.InitiatedAt), nullableTimeArg(attempt.CompletedAt),
		attempt.Version, formatTime(attempt.CreatedAt), formatTime(attempt.UpdatedAt))
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "insert retry attempt")
	}
	attempt.MarkPersisted()
	return nil
}

func (g *Gateway) CompleteRetryAttempt(ctx context.Context, attemptID string, outcome domain.RetryOutcome, reason string) error {
	var reasonArg any
	if reason != "" {
		reasonArg = reason
	}
	result, err := g.db.Exec(ctx, `UPDATE retry_attempts SET outcome = ?, failure_reason = ?, completed_at = ?
		WHERE id = ?`, string(outcome), reasonArg, formatTime(g.clock.Now()), attemptID)
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "complete retry attempt")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "complete retry attempt rows affected")
	}
	if rows == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (g *Gateway) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	row := g.db.QueryRow(ctx, `SELECT id, customer_id, total_amount_in_minor_units, status, version, created_at, updated_at
		FROM orders WHERE id = ?`, orderID)
	order, err := scanOrderRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, persistence.ErrNotFound
		}
		return nil, errorsx.WrapDatabaseError(ctx, err, "get order")
	}
	return order, nil
}

func (g *Gateway) UpdateOrderStatus(ctx context.Context, order *domain.Order) error {
	_, err := g.db.Exec(ctx, `UPDATE orders SET status = ?, version = ?, updated_at = ? WHERE id = ?`,
		string(order.Status), order.Version, formatTime(order.UpdatedAt), order.ID)
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "update order status")
	}
	return nil
}

func (g *Gateway) ListEventsForOrder(ctx context.Context, orderID string) ([]*domain.OrderEvent, error) {
	rows, err := g.db.Query(ctx, `SELECT id, order_id, saga_execution_id, event_type, step_name, outcome,
		details, error_info, recorded_at, version, created_at, updated_at
		FROM order_events WHERE order_id = ? ORDER BY recorded_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, errorsx.WrapDatabaseError(ctx, err, "list events for order")
	}
	defer rows.Close()

	var out []*domain.OrderEvent
	for rows.Next() {
		event, err := scanOrderEventRows(rows)
		if err != nil {
			return nil, errorsx.WrapDatabaseError(ctx, err, "scan order event")
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (g *Gateway) ListExecutionsForOrder(ctx context.Context, orderID string) ([]*domain.SagaExecution, error) {
	rows, err := g.db.Query(ctx, `SELECT `+sagaExecutionColumns+` FROM saga_executions
		WHERE order_id = ? ORDER BY started_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, errorsx.WrapDatabaseError(ctx, err, "list executions for order")
	}
	defer rows.Close()

	var out []*domain.SagaExecution
	for rows.Next() {
		exec, err := scanSagaExecutionRows(rows)
		if err != nil {
			return nil, errorsx.WrapDatabaseError(ctx, err, "scan saga execution")
		}
		out = append(out, exec)
	}
	return out, rows.Err()
}

func (g *Gateway) ListStepExecutions(ctx context.Context, sagaExecutionID string) ([]*domain.StepExecution, error) {
	rows, err := g.db.Query(ctx, `SELECT id, saga_execution_id, step_name, step_index, status,
		started_at, completed_at, compensated_at, error_code, error_message, result_payload,
		version, created_at, updated_at
		FROM step_executions WHERE saga_execution_id = ? ORDER BY step_index ASC`, sagaExecutionID)
	if err != nil {
		return nil, errorsx.WrapDatabaseError(ctx, err, "list step executions")
	}
	defer rows.Close()

	var out []*domain.StepExecution
	for rows.Next() {
		step, err := scanStepExecutionRows(rows)
		if err != nil {
			return nil, errorsx.WrapDatabaseError(ctx, err, "scan step execution")
		}
		out = append(out, step)
	}
	return out, rows.Err()
}

func (g *Gateway) LatestRetryAttempt(ctx context.Context, orderID string) (*domain.RetryAttempt, error) {
	row := g.db.QueryRow(ctx, `SELECT id, order_id, original_execution_id, retry_execution_id, attempt_number,
		resumed_from_step_name, skipped_step_names, outcome, failure_reason, initiated_at, completed_at,
		version, created_at, updated_at
		FROM retry_attempts WHERE order_id = ? ORDER BY attempt_number DESC LIMIT 1`, orderID)
	attempt, err := scanRetryAttemptRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errorsx.WrapDatabaseError(ctx, err, "latest retry attempt")
	}
	return attempt, nil
}

func (g *Gateway) CountRetryAttempts(ctx context.Context, orderID string) (int, error) {
	row := g.db.QueryRow(ctx, `SELECT COUNT(*) FROM retry_attempts
		WHERE order_id = ? AND (outcome IS NULL OR outcome <> ?)`, orderID, string(domain.RetryOutcomeCancelled))
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, errorsx.WrapDatabaseError(ctx, err, "count retry attempts")
	}
	return count, nil
}

func (g *Gateway) HasActiveExecution(ctx context.Context, orderID string) (bool, error) {
	row := g.db.QueryRow(ctx, `SELECT COUNT(*) FROM saga_executions
		WHERE order_id = ? AND status IN (?, ?)`, orderID,
		string(domain.SagaExecutionInProgress), string(domain.SagaExecutionCompensating))
	var count int
	if err := row.Scan(&count); err != nil {
		return false, errorsx.WrapDatabaseError(ctx, err, "has active execution")
	}
	return count > 0, nil
}

func (g *Gateway) withTx(ctx context.Context, fn func(tx core.ITransaction) error) error {
	tx, err := g.db.Begin(ctx)
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "commit transaction")
	}
	return nil
}

func updateStepExecution(ctx context.Context, tx core.ITransaction, step *domain.StepExecution) error {
	_, err := tx.Exec(ctx, `UPDATE step_executions SET status = ?, started_at = ?, completed_at = ?,
		compensated_at = ?, error_code = ?, error_message = ?, result_payload = ?, version = ?, updated_at = ?
		WHERE id = ?`,
		string(step.Status), nullableTimeArg(step.StartedAt), nullableTimeArg(step.CompletedAt),
		nullableTimeArg(step.CompensatedAt), nullableStringArg(step.ErrorCode), nullableStringArg(step.ErrorMessage),
		step.ResultPayload, step.Version, formatTime(step.UpdatedAt), step.ID)
	if err != nil {
		return errorsx.WrapDatabaseError(ctx, err, "update step execution")
	}
	return nil
}

func updateSagaExecution(ctx context.Context, tx core.ITransaction, exec *domain.SagaExecution) error {
	_, err := tx.Exec(ctx, `UPDATE saga_executions SET current_step_index = ?, status = ?,
		failed_step_index = ?, failure_reason = ?, completed_at = ?, version = ?, updated_at = ?
		WHERE id = ?`,
		exec.CurrentStepIndex, string(exec.Status), nullableIntArg(exec.FailedStepIndex), nullableStringArg(exec.FailureReason),
		nullableTimeArg(exec.CompletedAt), exec.Version, formatTime(exec.UpdatedAt), exec.ID)
	if err != nil {
		return fmt.Errorf("update saga execution: %w", err)
	}
	return nil
}

var _ persistence.Gateway = (*Gateway)(nil)
