// Package events is the Event Recorder (spec §4.5): the only writer of
// OrderEvent rows. It knows the lifecycle event catalogue and how to shape
// an event for each occasion; it never decides when an event should be
// written — that is the Saga Engine's and Retry Coordinator's call.
package events

import (
	"context"
	"encoding/json"

	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/errorsx"
	"ordersaga/persistence"
)

// Recorder appends lifecycle events to the Persistence Gateway's event log.
type Recorder struct {
	gateway persistence.Gateway
	clock   clock.Clock
}

// New builds a Recorder over gateway.
func New(gateway persistence.Gateway, clk clock.Clock) *Recorder {
	return &Recorder{gateway: gateway, clock: clk}
}

func (r *Recorder) newEvent(orderID string, eventType domain.EventType, outcome domain.Outcome) *domain.OrderEvent {
	return domain.NewOrderEvent(r.clock.NewID(), orderID, eventType, outcome, r.clock.Now)
}

func (r *Recorder) append(ctx context.Context, event *domain.OrderEvent) error {
	if err := r.gateway.AppendEvent(ctx, event); err != nil {
		return errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "append event")
	}
	return nil
}

// OrderCreated records ORDER_CREATED.
func (r *Recorder) OrderCreated(ctx context.Context, orderID string) error {
	return r.append(ctx, r.newEvent(orderID, domain.EventOrderCreated, domain.OutcomeNeutral))
}

// SagaStarted records SAGA_STARTED.
func (r *Recorder) SagaStarted(ctx context.Context, orderID, sagaExecutionID string) error {
	event := r.newEvent(orderID, domain.EventSagaStarted, domain.OutcomeNeutral).WithSagaExecution(sagaExecutionID)
	return r.append(ctx, event)
}

// StepStarted records STEP_STARTED.
func (r *Recorder) StepStarted(ctx context.Context, orderID, sagaExecutionID, stepName string) error {
	event := r.newEvent(orderID, domain.EventStepStarted, domain.OutcomeNeutral).
		WithSagaExecution(sagaExecutionID).WithStep(stepName)
	return r.append(ctx, event)
}

// StepCompleted records STEP_COMPLETED with the step's result data as details.
func (r *Recorder) StepCompleted(ctx context.Context, orderID, sagaExecutionID, stepName string, data map[string]any) error {
	details, err := encodeDetails(data)
	if err != nil {
		return errorsx.Wrap(ctx, err, errorsx.ErrCodeValidationFailed, "encode step completion details")
	}
	event := r.newEvent(orderID, domain.EventStepCompleted, domain.OutcomeSuccess).
		WithSagaExecution(sagaExecutionID).WithStep(stepName).WithDetails(details)
	return r.append(ctx, event)
}

// StepFailed records STEP_FAILED with the classifying ErrorInfo.
func (r *Recorder) StepFailed(ctx context.Context, orderID, sagaExecutionID, stepName string, info *domain.ErrorInfo) error {
	event := r.newEvent(orderID, domain.EventStepFailed, domain.OutcomeFailed).
		WithSagaExecution(sagaExecutionID).WithStep(stepName).WithErrorInfo(info)
	return r.append(ctx, event)
}

// CompensationStarted records COMPENSATION_STARTED.
func (r *Recorder) CompensationStarted(ctx context.Context, orderID, sagaExecutionID string) error {
	event := r.newEvent(orderID, domain.EventCompensationStarted, domain.OutcomeNeutral).WithSagaExecution(sagaExecutionID)
	return r.append(ctx, event)
}

// StepCompensated records STEP_COMPENSATED on success, or the same event
// type with outcome FAILED and a COMPENSATION_FAILED ErrorInfo when the
// compensating action itself failed (§4.6 step 3c: the anomaly is recorded,
// compensation still proceeds).
func (r *Recorder) StepCompensated(ctx context.Context, orderID, sagaExecutionID, stepName string, failure *domain.ErrorInfo) error {
	outcome := domain.OutcomeCompensated
	if failure != nil {
		outcome = domain.OutcomeFailed
	}
	event := r.newEvent(orderID, domain.EventStepCompensated, outcome).
		WithSagaExecution(sagaExecutionID).WithStep(stepName)
	if failure != nil {
		event = event.WithErrorInfo(failure)
	}
	return r.append(ctx, event)
}

// SagaCompleted records SAGA_COMPLETED.
func (r *Recorder) SagaCompleted(ctx context.Context, orderID, sagaExecutionID string) error {
	event := r.newEvent(orderID, domain.EventSagaCompleted, domain.OutcomeSuccess).WithSagaExecution(sagaExecutionID)
	return r.append(ctx, event)
}

// SagaFailed records SAGA_FAILED.
func (r *Recorder) SagaFailed(ctx context.Context, orderID, sagaExecutionID string, info *domain.ErrorInfo) error {
	event := r.newEvent(orderID, domain.EventSagaFailed, domain.OutcomeFailed).
		WithSagaExecution(sagaExecutionID).WithErrorInfo(info)
	return r.append(ctx, event)
}

// SagaCompensated records SAGA_COMPENSATED.
func (r *Recorder) SagaCompensated(ctx context.Context, orderID, sagaExecutionID string) error {
	event := r.newEvent(orderID, domain.EventSagaCompensated, domain.OutcomeCompensated).WithSagaExecution(sagaExecutionID)
	return r.append(ctx, event)
}

// RetryInitiated records RETRY_INITIATED with the resume/skip plan as details.
func (r *Recorder) RetryInitiated(ctx context.Context, orderID, sagaExecutionID string, attemptNumber int, resumedFromStepName string, skippedStepNames []string) error {
	details, err := encodeDetails(map[string]any{
		"attemptNumber":       attemptNumber,
		"resumedFromStepName": resumedFromStepName,
		"skippedStepNames":    skippedStepNames,
	})
	if err != nil {
		return errorsx.Wrap(ctx, err, errorsx.ErrCodeValidationFailed, "encode retry initiated details")
	}
	event := r.newEvent(orderID, domain.EventRetryInitiated, domain.OutcomeNeutral).
		WithSagaExecution(sagaExecutionID).WithDetails(details)
	return r.append(ctx, event)
}

// OrderCompleted records ORDER_COMPLETED.
func (r *Recorder) OrderCompleted(ctx context.Context, orderID string) error {
	return r.append(ctx, r.newEvent(orderID, domain.EventOrderCompleted, domain.OutcomeSuccess))
}

// OrderCancelled records ORDER_CANCELLED.
func (r *Recorder) OrderCancelled(ctx context.Context, orderID string) error {
	return r.append(ctx, r.newEvent(orderID, domain.EventOrderCancelled, domain.OutcomeCompensated))
}

func encodeDetails(data map[string]any) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return json.Marshal(data)
}
