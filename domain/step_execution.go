package domain

import "time"

// StepExecutionStatus is the per-step state machine:
//
//	PENDING -> IN_PROGRESS -> COMPLETED -> COMPENSATING -> COMPENSATED
//	                       -> FAILED                    -> FAILED (compensation failed)
//	PENDING -> SKIPPED  (retry only; compensated like COMPLETED)
type StepExecutionStatus string

const (
	StepExecutionPending      StepExecutionStatus = "PENDING"
	StepExecutionInProgress   StepExecutionStatus = "IN_PROGRESS"
	StepExecutionCompleted    StepExecutionStatus = "COMPLETED"
	StepExecutionFailed       StepExecutionStatus = "FAILED"
	StepExecutionCompensating StepExecutionStatus = "COMPENSATING"
	StepExecutionCompensated  StepExecutionStatus = "COMPENSATED"
	StepExecutionSkipped      StepExecutionStatus = "SKIPPED"
)

// StepExecution is one step's record within a SagaExecution. The pair
// (SagaExecutionID, StepIndex) is unique.
type StepExecution struct {
	Base

	SagaExecutionID string              `json:"sagaExecutionId"`
	StepName        string              `json:"stepName"`
	StepIndex       int                 `json:"stepIndex"`
	Status          StepExecutionStatus `json:"status"`
	StartedAt       *time.Time          `json:"startedAt,omitempty"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	CompensatedAt   *time.Time          `json:"compensatedAt,omitempty"`
	ErrorCode       *string             `json:"errorCode,omitempty"`
	ErrorMessage    *string             `json:"errorMessage,omitempty"`

	// ResultPayload is the opaque, JSON-encoded context data the step's
	// forward action produced. Used to reconstruct the saga context on
	// crash recovery and to seed a retry execution.
	ResultPayload []byte `json:"resultPayload,omitempty"`
}

// NewStepExecution constructs a new, not-yet-persisted step execution in
// PENDING status.
func NewStepExecution(id, sagaExecutionID, stepName string, stepIndex int, now NowFunc) *StepExecution {
	return &StepExecution{
		Base:            NewBase(id, now()),
		SagaExecutionID: sagaExecutionID,
		StepName:        stepName,
		StepIndex:       stepIndex,
		Status:          StepExecutionPending,
	}
}

// MarkStarted transitions PENDING -> IN_PROGRESS.
func (s *StepExecution) MarkStarted(now time.Time) {
	s.Status = StepExecutionInProgress
	s.StartedAt = &now
	s.Touch(now)
}

// MarkCompleted transitions IN_PROGRESS -> COMPLETED, recording the
// forward action's result payload.
func (s *StepExecution) MarkCompleted(resultPayload []byte, now time.Time) {
	s.Status = StepExecutionCompleted
	s.CompletedAt = &now
	s.ResultPayload = resultPayload
	s.Touch(now)
}

// MarkFailed transitions to FAILED with the classifying error.
func (s *StepExecution) MarkFailed(errorCode, errorMessage string, now time.Time) {
	s.Status = StepExecutionFailed
	s.ErrorCode = &errorCode
	s.ErrorMessage = &errorMessage
	s.Touch(now)
}

// MarkCompensating transitions COMPLETED (or SKIPPED) -> COMPENSATING, ahead of invoking
// the step's compensating action.
func (s *StepExecution) MarkCompensating(now time.Time) {
	s.Status = StepExecutionCompensating
	s.Touch(now)
}

// MarkCompensated transitions COMPENSATING -> COMPENSATED.
func (s *StepExecution) MarkCompensated(now time.Time) {
	s.Status = StepExecutionCompensated
	s.CompensatedAt = &now
	s.Touch(now)
}

// MarkCompensationFailed records a failed compensation attempt. The step
// moves from COMPENSATING to FAILED (not COMPENSATED); the Saga Engine still proceeds to
// compensate earlier steps (best-effort continuation) and surfaces this as
// a COMPENSATION_FAILED anomaly in the event log.
func (s *StepExecution) MarkCompensationFailed(errorMessage string, now time.Time) {
	s.Status = StepExecutionFailed
	s.ErrorMessage = &errorMessage
	s.Touch(now)
}

// MarkSkipped transitions PENDING -> SKIPPED. Only the Retry Coordinator
// assigns this status, for steps whose prior effect checkValidity confirmed
// is still usable.
func (s *StepExecution) MarkSkipped(resultPayload []byte, now time.Time) {
	s.Status = StepExecutionSkipped
	s.ResultPayload = resultPayload
	s.Touch(now)
}
