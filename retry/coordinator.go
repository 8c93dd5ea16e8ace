package retry

import (
	"context"
	"encoding/json"
	"time"

	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/errorsx"
	"ordersaga/events"
	"ordersaga/persistence"
	"ordersaga/sagactx"
	"ordersaga/sagaengine"
	"ordersaga/step"
)

// engine is the narrow slice of sagaengine.Engine the coordinator drives a
// retry execution through, kept as an interface so coordinator tests can
// substitute a scripted double without standing up a full Engine.
type engine interface {
	RunExecution(ctx context.Context, exec *domain.SagaExecution, sctx *sagactx.Context) error
}

// Coordinator implements the Retry Coordinator (spec §4.7): eligibility
// evaluation plus retry execution construction and handoff.
type Coordinator struct {
	gateway     persistence.Gateway
	recorder    *events.Recorder
	registry    *sagaengine.Registry
	engine      engine
	clock       clock.Clock
	maxAttempts int
	cooldown    time.Duration
}

// New builds a Coordinator. maxAttempts and cooldown come from config
// (spec §6, "Environment inputs").
func New(
	gateway persistence.Gateway,
	recorder *events.Recorder,
	registry *sagaengine.Registry,
	eng *sagaengine.Engine,
	clk clock.Clock,
	maxAttempts int,
	cooldown time.Duration,
) *Coordinator {
	return &Coordinator{
		gateway:     gateway,
		recorder:    recorder,
		registry:    registry,
		engine:      eng,
		clock:       clk,
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
	}
}

// Retry evaluates req against orderId and, if eligible, constructs and runs
// a new SagaExecution (spec §4.7, "Retry execution construction"). The
// returned Eligibility always reflects the decision; attempt is non-nil
// only when Status == StatusEligible.
func (c *Coordinator) Retry(ctx context.Context, orderID string, req Request) (Eligibility, *domain.RetryAttempt, error) {
	eligibility, err := c.Evaluate(ctx, orderID, req)
	if err != nil {
		return Eligibility{}, nil, err
	}
	if !eligibility.Eligible() {
		return eligibility, nil, nil
	}

	attempt, exec, sctx, err := c.construct(ctx, orderID)
	if err != nil {
		return Eligibility{}, nil, err
	}

	runErr := c.engine.RunExecution(ctx, exec, sctx)
	outcome, reason := outcomeFor(exec, runErr)
	if completeErr := c.gateway.CompleteRetryAttempt(ctx, attempt.ID, outcome, reason); completeErr != nil {
		return Eligibility{}, nil, errorsx.Wrap(ctx, completeErr, errorsx.ErrCodeDatabase, "complete retry attempt")
	}

	return eligibility, attempt, runErr
}

// construct builds the retry SagaExecution per spec §4.7 steps 1-5: insert
// the RetryAttempt, create a new PENDING execution, replay the original
// execution's steps deciding skip vs. re-execution via CheckValidity, and
// record RETRY_INITIATED. The returned Context is seeded with the order's
// core fields plus every skipped step's restored result, so RunExecution
// picks up exactly where the replay left off.
func (c *Coordinator) construct(ctx context.Context, orderID string) (*domain.RetryAttempt, *domain.SagaExecution, *sagactx.Context, error) {
	order, err := c.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "load order")
	}
	original, steps, err := c.gateway.LoadExecutionForResume(ctx, orderID)
	if err != nil {
		return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "load original execution")
	}
	lastAttempt, err := c.gateway.LatestRetryAttempt(ctx, orderID)
	if err != nil {
		return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "load latest retry attempt")
	}
	attemptNumber := 1
	if lastAttempt != nil {
		attemptNumber = lastAttempt.AttemptNumber + 1
	}

	newExec := domain.NewSagaExecution(c.clock.NewID(), orderID, c.clock.Now)
	sctx := sagactx.New()
	sctx.PutValue("orderId", order.ID)
	sctx.PutValue("customerId", order.CustomerID)
	sctx.PutValue("totalAmountInMinorUnits", order.TotalAmountInMinorUnits)

	var (
		resumedFromStepName string
		skippedStepNames    []string
		skippedExecs        []*domain.StepExecution
	)
	resumeIndex := len(steps)

	for i, s := range steps {
		def, ok := c.registry.ByName(s.StepName)
		if !ok {
			err := errorsx.New(errorsx.ErrCodeUnexpected, "unknown step in retry replay: "+s.StepName)
			return nil, nil, nil, err
		}

		// "Previously COMPLETED" (spec §4.7) means completed before the
		// original failure, not its current post-compensation status:
		// compensate() flips every such step to StepExecutionCompensated
		// before the execution reaches a retry-eligible terminal state, so
		// checking s.Status here would never see StepExecutionCompleted on
		// the normal compensate-then-retry path. original.FailedStepIndex
		// is set once by MarkFailed and never cleared by compensation, so
		// it still marks the boundary.
		if original.FailedStepIndex == nil || s.StepIndex >= *original.FailedStepIndex {
			resumeIndex = i
			resumedFromStepName = s.StepName
			break
		}

		if len(s.ResultPayload) > 0 {
			var snapshot map[string]any
			if err := json.Unmarshal(s.ResultPayload, &snapshot); err != nil {
				return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeUnexpected, "decode step result payload")
			}
			sctx.Restore(snapshot)
		}

		validity := def.CheckValidity(sctx)
		if validity.Validity != step.ValidityValid {
			resumeIndex = i
			resumedFromStepName = s.StepName
			break
		}

		skippedStepNames = append(skippedStepNames, s.StepName)
		skipped := domain.NewStepExecution(c.clock.NewID(), newExec.ID, s.StepName, i, c.clock.Now)
		skipped.MarkSkipped(s.ResultPayload, c.clock.Now())
		skippedExecs = append(skippedExecs, skipped)
		newExec.CurrentStepIndex = i + 1
	}
	if resumedFromStepName != "" {
		newExec.CurrentStepIndex = resumeIndex
	}

	attempt := domain.NewRetryAttempt(c.clock.NewID(), orderID, original.ID, attemptNumber, c.clock.Now)
	attempt.AttachExecution(newExec.ID, resumedFromStepName, skippedStepNames)

	if err := c.gateway.InsertExecution(ctx, newExec); err != nil {
		return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "insert retry execution")
	}
	if err := c.gateway.InsertRetryAttempt(ctx, attempt); err != nil {
		return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "insert retry attempt")
	}
	for _, skipped := range skippedExecs {
		if err := c.gateway.RecordStepStart(ctx, skipped); err != nil {
			return nil, nil, nil, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "persist skipped step")
		}
	}
	if err := c.recorder.RetryInitiated(ctx, orderID, newExec.ID, attemptNumber, resumedFromStepName, skippedStepNames); err != nil {
		return nil, nil, nil, err
	}

	return attempt, newExec, sctx, nil
}

// outcomeFor classifies a finished (or aborted) retry execution into the
// RetryAttempt's terminal outcome.
func outcomeFor(exec *domain.SagaExecution, runErr error) (domain.RetryOutcome, string) {
	if runErr != nil {
		if runErr == context.Canceled {
			return domain.RetryOutcomeCancelled, "context cancelled"
		}
		return domain.RetryOutcomeFailed, runErr.Error()
	}
	switch exec.Status {
	case domain.SagaExecutionCompleted:
		return domain.RetryOutcomeSuccess, ""
	case domain.SagaExecutionCompensated:
		reason := "retry execution compensated"
		if exec.FailureReason != nil {
			reason = *exec.FailureReason
		}
		return domain.RetryOutcomeFailed, reason
	default:
		return domain.RetryOutcomeFailed, "retry execution did not reach a terminal state"
	}
}
