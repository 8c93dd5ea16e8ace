// Package persistence defines the Persistence Gateway contract (spec §4.4):
// transactional read/write of orders, saga executions, step executions,
// order events, and retry attempts, with optimistic concurrency on
// SagaExecution state transitions.
//
// Two implementations are provided: sqlgw (relational, modernc.org/sqlite
// through data/db) and memgw (in-process, for tests).
package persistence

import (
	"context"

	"ordersaga/domain"
)

// Gateway is the full Persistence Gateway contract. Every method that the
// spec marks transactional commits atomically; callers never need to wrap
// gateway calls in their own transaction.
type Gateway interface {
	// InsertOrderAndItems atomically persists a new order and its items.
	InsertOrderAndItems(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error

	// InsertExecution persists a new SagaExecution. It fails with
	// ErrExecutionInProgress if orderId already has an IN_PROGRESS
	// execution.
	InsertExecution(ctx context.Context, exec *domain.SagaExecution) error

	// RecordStepStart persists a new StepExecution in IN_PROGRESS status.
	RecordStepStart(ctx context.Context, step *domain.StepExecution) error

	// RecordStepCompletion persists step as COMPLETED and bumps the owning
	// execution's CurrentStepIndex, in one transaction.
	RecordStepCompletion(ctx context.Context, step *domain.StepExecution, exec *domain.SagaExecution) error

	// RecordStepFailure persists step as FAILED and the owning execution as
	// FAILED with FailedStepIndex set, in one transaction.
	RecordStepFailure(ctx context.Context, step *domain.StepExecution, exec *domain.SagaExecution) error

	// RecordStepCompensated persists step's COMPENSATED or
	// compensation-failed-but-still-FAILED outcome.
	RecordStepCompensated(ctx context.Context, step *domain.StepExecution) error

	// TransitionExecution moves exec from fromStatus to exec.Status using a
	// WHERE status = fromStatus predicate (optimistic concurrency). Returns
	// ErrVersionConflict if fromStatus no longer matches the persisted row.
	TransitionExecution(ctx context.Context, exec *domain.SagaExecution, fromStatus domain.SagaExecutionStatus) error

	// AppendEvent appends an order event. Never updates or deletes.
	AppendEvent(ctx context.Context, event *domain.OrderEvent) error

	// LoadExecutionForResume returns the latest SagaExecution for orderId
	// together with its step executions in index order.
	LoadExecutionForResume(ctx context.Context, orderID string) (*domain.SagaExecution, []*domain.StepExecution, error)

	// InsertRetryAttempt persists a new retry attempt row.
	InsertRetryAttempt(ctx context.Context, attempt *domain.RetryAttempt) error

	// CompleteRetryAttempt records the terminal outcome of a retry attempt.
	CompleteRetryAttempt(ctx context.Context, attemptID string, outcome domain.RetryOutcome, reason string) error

	// GetOrder loads an order by id.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// UpdateOrderStatus persists a new Order.Status.
	UpdateOrderStatus(ctx context.Context, order *domain.Order) error

	// ListEventsForOrder returns the full ordered event log for an order,
	// by (RecordedAt, ID).
	ListEventsForOrder(ctx context.Context, orderID string) ([]*domain.OrderEvent, error)

	// ListExecutionsForOrder returns every SagaExecution ever created for an
	// order, oldest first.
	ListExecutionsForOrder(ctx context.Context, orderID string) ([]*domain.SagaExecution, error)

	// ListStepExecutions returns the step executions of one saga execution,
	// in step-index order.
	ListStepExecutions(ctx context.Context, sagaExecutionID string) ([]*domain.StepExecution, error)

	// LatestRetryAttempt returns the most recent retry attempt for an
	// order, or nil if none exists.
	LatestRetryAttempt(ctx context.Context, orderID string) (*domain.RetryAttempt, error)

	// CountRetryAttempts returns the number of non-CANCELLED retry attempts
	// recorded for an order.
	CountRetryAttempts(ctx context.Context, orderID string) (int, error)

	// HasActiveExecution reports whether any SagaExecution for orderId is
	// currently IN_PROGRESS or COMPENSATING.
	HasActiveExecution(ctx context.Context, orderID string) (bool, error)
}
