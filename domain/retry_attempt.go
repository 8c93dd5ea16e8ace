package domain

import "time"

// RetryOutcome is the terminal outcome of one retry attempt.
type RetryOutcome string

const (
	RetryOutcomeSuccess   RetryOutcome = "SUCCESS"
	RetryOutcomeFailed    RetryOutcome = "FAILED"
	RetryOutcomeCancelled RetryOutcome = "CANCELLED"
)

// RetryAttempt records one retry request for an order. AttemptNumber is
// 1-based and unique (and consecutive) per OrderID.
type RetryAttempt struct {
	Base

	OrderID              string        `json:"orderId"`
	OriginalExecutionID  string        `json:"originalExecutionId"`
	RetryExecutionID     *string       `json:"retryExecutionId,omitempty"`
	AttemptNumber        int           `json:"attemptNumber"`
	ResumedFromStepName  *string       `json:"resumedFromStepName,omitempty"`
	SkippedStepNames     []string      `json:"skippedStepNames,omitempty"`
	Outcome              *RetryOutcome `json:"outcome,omitempty"`
	FailureReason        *string       `json:"failureReason,omitempty"`
	InitiatedAt          time.Time     `json:"initiatedAt"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
}

// NewRetryAttempt constructs a new, not-yet-persisted retry attempt.
func NewRetryAttempt(id, orderID, originalExecutionID string, attemptNumber int, now NowFunc) *RetryAttempt {
	n := now()
	return &RetryAttempt{
		Base:                NewBase(id, n),
		OrderID:             orderID,
		OriginalExecutionID: originalExecutionID,
		AttemptNumber:       attemptNumber,
		InitiatedAt:         n,
	}
}

// AttachExecution records the retry execution this attempt produced and the
// resume/skip plan the Retry Coordinator built.
func (r *RetryAttempt) AttachExecution(retryExecutionID string, resumedFromStepName string, skippedStepNames []string) {
	r.RetryExecutionID = &retryExecutionID
	if resumedFromStepName != "" {
		r.ResumedFromStepName = &resumedFromStepName
	}
	r.SkippedStepNames = skippedStepNames
}

// Complete records the attempt's terminal outcome.
func (r *RetryAttempt) Complete(outcome RetryOutcome, failureReason string, now time.Time) {
	r.Outcome = &outcome
	if failureReason != "" {
		r.FailureReason = &failureReason
	}
	r.CompletedAt = &now
	r.Touch(now)
}
