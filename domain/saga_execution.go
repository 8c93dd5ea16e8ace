package domain

import "time"

// SagaExecutionStatus is the state of one SagaExecution, following the
// engine's state machine: PENDING -> IN_PROGRESS -> COMPLETED, or
// IN_PROGRESS -> FAILED -> COMPENSATING -> COMPENSATED.
type SagaExecutionStatus string

const (
	SagaExecutionPending      SagaExecutionStatus = "PENDING"
	SagaExecutionInProgress   SagaExecutionStatus = "IN_PROGRESS"
	SagaExecutionCompleted    SagaExecutionStatus = "COMPLETED"
	SagaExecutionFailed       SagaExecutionStatus = "FAILED"
	SagaExecutionCompensating SagaExecutionStatus = "COMPENSATING"
	SagaExecutionCompensated  SagaExecutionStatus = "COMPENSATED"
)

// IsTerminal reports whether the execution has reached a final state.
func (s SagaExecutionStatus) IsTerminal() bool {
	return s == SagaExecutionCompleted || s == SagaExecutionCompensated
}

// SagaExecution is one attempt to run a saga end to end for a given order.
// A retry creates a new SagaExecution referencing the same OrderID; it is
// never mutated into referencing a different order, and it is never
// deleted once created.
type SagaExecution struct {
	Base

	OrderID                 string              `json:"orderId"`
	CurrentStepIndex        int                 `json:"currentStepIndex"`
	Status                  SagaExecutionStatus `json:"status"`
	FailedStepIndex         *int                `json:"failedStepIndex,omitempty"`
	FailureReason           *string             `json:"failureReason,omitempty"`
	TraceID                 *string             `json:"traceId,omitempty"`
	StartedAt               time.Time           `json:"startedAt"`
	CompletedAt             *time.Time          `json:"completedAt,omitempty"`
	CompensationStartedAt   *time.Time          `json:"compensationStartedAt,omitempty"`
	CompensationCompletedAt *time.Time          `json:"compensationCompletedAt,omitempty"`
}

// NewSagaExecution constructs a new, not-yet-persisted execution in PENDING
// status for orderID.
func NewSagaExecution(id, orderID string, now NowFunc) *SagaExecution {
	n := now()
	return &SagaExecution{
		Base:             NewBase(id, n),
		OrderID:          orderID,
		CurrentStepIndex: 0,
		Status:           SagaExecutionPending,
		StartedAt:        n,
	}
}

// MarkInProgress transitions PENDING -> IN_PROGRESS.
func (e *SagaExecution) MarkInProgress(now time.Time) {
	e.Status = SagaExecutionInProgress
	e.Touch(now)
}

// AdvanceStep records the successful completion of step i and advances
// CurrentStepIndex to i+1.
func (e *SagaExecution) AdvanceStep(now time.Time) {
	e.CurrentStepIndex++
	e.Touch(now)
}

// MarkFailed transitions to FAILED with the index and reason of the step
// that failed.
func (e *SagaExecution) MarkFailed(stepIndex int, reason string, now time.Time) {
	e.Status = SagaExecutionFailed
	e.FailedStepIndex = &stepIndex
	e.FailureReason = &reason
	e.Touch(now)
}

// MarkCompensating transitions FAILED -> COMPENSATING.
func (e *SagaExecution) MarkCompensating(now time.Time) {
	e.Status = SagaExecutionCompensating
	e.CompensationStartedAt = &now
	e.Touch(now)
}

// MarkCompensated transitions COMPENSATING -> COMPENSATED (terminal).
func (e *SagaExecution) MarkCompensated(now time.Time) {
	e.Status = SagaExecutionCompensated
	e.CompensationCompletedAt = &now
	e.Touch(now)
}

// MarkCompleted transitions IN_PROGRESS -> COMPLETED (terminal, happy path).
func (e *SagaExecution) MarkCompleted(now time.Time) {
	e.Status = SagaExecutionCompleted
	e.CompletedAt = &now
	e.Touch(now)
}
