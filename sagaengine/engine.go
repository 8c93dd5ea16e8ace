// Package sagaengine is the orchestrator proper (spec §4.6): the Step
// Registry, the Step Runtime, and the Engine state machine that drives one
// SagaExecution through forward steps, failure handling, compensation, and
// completion, persisting progress transactionally after every transition.
//
// The per-execution Saga Context type lives in ordersaga/sagactx rather
// than here: step.Definition's methods take *sagactx.Context, and
// sagaengine depends on step, so folding Context into this package would
// create sagaengine -> step -> sagaengine import cycle.
package sagaengine

import (
	"context"
	"encoding/json"
	"errors"

	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/events"
	"ordersaga/logging"
	"ordersaga/persistence"
	"ordersaga/sagactx"
	"ordersaga/step"
)

// StatusPublisher receives every committed execution transition (spec
// §4.9). Engine depends only on this narrow interface so the Status Stream
// package can stay a leaf consumer rather than a dependency of the engine.
type StatusPublisher interface {
	Publish(orderID string, exec *domain.SagaExecution, event *domain.OrderEvent)
}

// noopPublisher is used when Engine is built without a publisher.
type noopPublisher struct{}

func (noopPublisher) Publish(string, *domain.SagaExecution, *domain.OrderEvent) {}

// Engine drives SagaExecutions through the state machine of spec §4.6.
type Engine struct {
	registry  *Registry
	runtime   *Runtime
	gateway   persistence.Gateway
	recorder  *events.Recorder
	clock     clock.Clock
	publisher StatusPublisher
	logger    logging.ILogger
}

// Option customizes an Engine built by New.
type Option func(*Engine)

// WithPublisher attaches a StatusPublisher; every committed transition is
// announced to it.
func WithPublisher(p StatusPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithLogger overrides the engine's logger. Defaults to a component logger
// scoped to "sagaengine".
func WithLogger(logger logging.ILogger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New builds an Engine over registry, backed by gateway for persistence and
// recorder for the event log.
func New(registry *Registry, runtime *Runtime, gateway persistence.Gateway, recorder *events.Recorder, clk clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		runtime:   runtime,
		gateway:   gateway,
		recorder:  recorder,
		clock:     clk,
		publisher: noopPublisher{},
		logger:    logging.ComponentLogger("sagaengine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a brand-new execution for order from step 0 with a freshly
// built Saga Context, seeded with the order fields the collaborator
// contract (spec §6) names as forward inputs: orderId, customerId, and
// totalAmountInMinorUnits. Collaborator-specific inputs outside the core
// domain model (paymentMethodId, shippingAddress, items) are the
// out-of-scope API layer's responsibility to seed via PutValue before
// Start is called, if a deployment needs them.
func (e *Engine) Start(ctx context.Context, order *domain.Order) (*domain.SagaExecution, error) {
	exec := domain.NewSagaExecution(e.clock.NewID(), order.ID, e.clock.Now)
	if err := e.gateway.InsertExecution(ctx, exec); err != nil {
		return nil, err
	}
	sctx := sagactx.New()
	seedOrderContext(sctx, order)
	return exec, e.run(ctx, exec, sctx)
}

// seedOrderContext writes the order's core fields into sctx under the
// legacy string keys the canonical collaborators read (spec §6 forward
// inputs).
func seedOrderContext(sctx *sagactx.Context, order *domain.Order) {
	sctx.PutValue("orderId", order.ID)
	sctx.PutValue("customerId", order.CustomerID)
	sctx.PutValue("totalAmountInMinorUnits", order.TotalAmountInMinorUnits)
}

// Resume continues the latest execution for orderId after a crash or
// process restart (spec §4.6, "Crash recovery"). It reconstructs the Saga
// Context from the persisted StepExecution result payloads and continues
// from currentStepIndex (forward) or the compensation loop (reverse),
// whichever the execution's status indicates.
func (e *Engine) Resume(ctx context.Context, orderID string) (*domain.SagaExecution, error) {
	exec, steps, err := e.gateway.LoadExecutionForResume(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if exec.Status.IsTerminal() {
		return exec, nil
	}

	order, err := e.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	sctx := sagactx.New()
	seedOrderContext(sctx, order)
	for _, s := range steps {
		if s.Status != domain.StepExecutionCompleted && s.Status != domain.StepExecutionSkipped {
			continue
		}
		if len(s.ResultPayload) > 0 {
			var snapshot map[string]any
			if err := json.Unmarshal(s.ResultPayload, &snapshot); err != nil {
				return nil, err
			}
			sctx.Restore(snapshot)
		}
		sctx.MarkStepCompleted(s.StepName)
	}

	return exec, e.run(ctx, exec, sctx)
}

// RunExecution drives exec through the same forward/compensate state
// machine as Start/Resume, starting from exec.CurrentStepIndex with sctx
// already seeded. It is the Retry Coordinator's entry point (spec §4.7
// step 6): the coordinator builds exec and sctx itself (some steps already
// recorded SKIPPED, sctx pre-populated from their prior results) and hands
// off here rather than through Start, which always begins at step 0.
func (e *Engine) RunExecution(ctx context.Context, exec *domain.SagaExecution, sctx *sagactx.Context) error {
	return e.run(ctx, exec, sctx)
}

// run is the shared body of Start/Resume: it executes the forward loop from
// exec.CurrentStepIndex, then compensation if a step fails.
func (e *Engine) run(ctx context.Context, exec *domain.SagaExecution, sctx *sagactx.Context) error {
	if exec.Status == domain.SagaExecutionPending {
		now := e.clock.Now()
		exec.MarkInProgress(now)
		if err := e.gateway.TransitionExecution(ctx, exec, domain.SagaExecutionPending); err != nil {
			return err
		}
		if err := e.recorder.SagaStarted(ctx, exec.OrderID, exec.ID); err != nil {
			return err
		}
		if err := e.markOrderProcessing(ctx, exec.OrderID); err != nil {
			return err
		}
		e.publish(exec, nil)
	}

	for i := exec.CurrentStepIndex; i < e.registry.Len(); i++ {
		def := e.registry.At(i)
		err := e.runStep(ctx, exec, sctx, i, def)
		if err == nil {
			continue
		}
		if errors.Is(err, errStepFailed) {
			return e.compensate(ctx, exec, sctx)
		}
		return err
	}

	return e.complete(ctx, exec)
}

// runStep runs one forward step at index, persisting its outcome. It
// returns errStepFailed when the step itself reported failure, so the
// caller can distinguish a business failure (compensate) from an
// infrastructure error (abort).
func (e *Engine) runStep(ctx context.Context, exec *domain.SagaExecution, sctx *sagactx.Context, index int, def step.Definition) error {
	startedAt := e.clock.Now()
	stepExec := domain.NewStepExecution(e.clock.NewID(), exec.ID, def.Name(), index, e.clock.Now)
	stepExec.MarkStarted(startedAt)
	if err := e.gateway.RecordStepStart(ctx, stepExec); err != nil {
		return err
	}
	if err := e.recorder.StepStarted(ctx, exec.OrderID, exec.ID, def.Name()); err != nil {
		return err
	}

	result := e.runtime.Execute(ctx, def, sctx)
	finishedAt := e.clock.Now()

	if result.Success {
		sctx.MergeData(result.Data)
		sctx.MarkStepCompleted(def.Name())

		payload, err := json.Marshal(sctx.Snapshot())
		if err != nil {
			return err
		}
		stepExec.MarkCompleted(payload, finishedAt)
		exec.AdvanceStep(finishedAt)

		if err := e.gateway.RecordStepCompletion(ctx, stepExec, exec); err != nil {
			return err
		}
		if err := e.recorder.StepCompleted(ctx, exec.OrderID, exec.ID, def.Name(), result.Data); err != nil {
			return err
		}
		e.publish(exec, nil)
		return nil
	}

	stepExec.MarkFailed(result.ErrorCode, result.ErrorMessage, finishedAt)
	exec.MarkFailed(index, result.ErrorMessage, finishedAt)
	if err := e.gateway.RecordStepFailure(ctx, stepExec, exec); err != nil {
		return err
	}
	info := domain.NewErrorInfo(result.ErrorCode, result.ErrorMessage, isRecoverableCode(result.ErrorCode))
	if err := e.recorder.StepFailed(ctx, exec.OrderID, exec.ID, def.Name(), info); err != nil {
		return err
	}
	e.publish(exec, nil)
	return errStepFailed
}

// compensate runs the reverse-order compensation loop over every step
// before the failed one whose effect is still live -- COMPLETED in this
// execution, or SKIPPED because a retry judged a prior execution's effect
// still valid -- continuing best-effort even when an individual
// compensation fails (the declared resolution of the Open Question on
// divergent source behavior).
func (e *Engine) compensate(ctx context.Context, exec *domain.SagaExecution, sctx *sagactx.Context) error {
	now := e.clock.Now()
	exec.MarkCompensating(now)
	if err := e.gateway.TransitionExecution(ctx, exec, domain.SagaExecutionFailed); err != nil {
		return err
	}
	if err := e.recorder.CompensationStarted(ctx, exec.OrderID, exec.ID); err != nil {
		return err
	}
	e.publish(exec, nil)

	steps, err := e.gateway.ListStepExecutions(ctx, exec.ID)
	if err != nil {
		return err
	}

	failedIndex := e.registry.Len()
	if exec.FailedStepIndex != nil {
		failedIndex = *exec.FailedStepIndex
	}

	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		completedEffect := s.Status == domain.StepExecutionCompleted || s.Status == domain.StepExecutionSkipped
		if s.StepIndex >= failedIndex || !completedEffect {
			continue
		}
		def, ok := e.registry.ByName(s.StepName)
		if !ok {
			return errors.New("sagaengine: unknown step in compensation: " + s.StepName)
		}

		s.MarkCompensating(e.clock.Now())
		result := e.runtime.Compensate(ctx, def, sctx)
		compensatedAt := e.clock.Now()

		if result.Success {
			s.MarkCompensated(compensatedAt)
			if err := e.gateway.RecordStepCompensated(ctx, s); err != nil {
				return err
			}
			if err := e.recorder.StepCompensated(ctx, exec.OrderID, exec.ID, s.StepName, nil); err != nil {
				return err
			}
			continue
		}

		s.MarkCompensationFailed(result.Message, compensatedAt)
		if err := e.gateway.RecordStepCompensated(ctx, s); err != nil {
			return err
		}
		info := domain.NewErrorInfo("COMPENSATION_FAILED", result.Message, false)
		if err := e.recorder.StepCompensated(ctx, exec.OrderID, exec.ID, s.StepName, info); err != nil {
			return err
		}
		e.logger.Warn(ctx, "compensation failed, continuing best-effort",
			logging.String("order_id", exec.OrderID), logging.String("step", s.StepName))
	}

	completedAt := e.clock.Now()
	exec.MarkCompensated(completedAt)
	if err := e.gateway.TransitionExecution(ctx, exec, domain.SagaExecutionCompensating); err != nil {
		return err
	}
	if err := e.recorder.SagaCompensated(ctx, exec.OrderID, exec.ID); err != nil {
		return err
	}

	order, err := e.gateway.GetOrder(ctx, exec.OrderID)
	if err != nil {
		return err
	}
	order.Status = domain.OrderStatusCompensated
	order.Touch(completedAt)
	if err := e.gateway.UpdateOrderStatus(ctx, order); err != nil {
		return err
	}
	if err := e.recorder.OrderCancelled(ctx, exec.OrderID); err != nil {
		return err
	}
	e.publish(exec, nil)
	return nil
}

// complete transitions exec and its order to the terminal success state.
func (e *Engine) complete(ctx context.Context, exec *domain.SagaExecution) error {
	now := e.clock.Now()
	exec.MarkCompleted(now)
	if err := e.gateway.TransitionExecution(ctx, exec, domain.SagaExecutionInProgress); err != nil {
		return err
	}
	if err := e.recorder.SagaCompleted(ctx, exec.OrderID, exec.ID); err != nil {
		return err
	}

	order, err := e.gateway.GetOrder(ctx, exec.OrderID)
	if err != nil {
		return err
	}
	order.Status = domain.OrderStatusCompleted
	order.Touch(now)
	if err := e.gateway.UpdateOrderStatus(ctx, order); err != nil {
		return err
	}
	if err := e.recorder.OrderCompleted(ctx, exec.OrderID); err != nil {
		return err
	}
	e.publish(exec, nil)
	return nil
}

func (e *Engine) markOrderProcessing(ctx context.Context, orderID string) error {
	order, err := e.gateway.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.OrderStatusPending {
		return nil
	}
	order.Status = domain.OrderStatusProcessing
	order.Touch(e.clock.Now())
	return e.gateway.UpdateOrderStatus(ctx, order)
}

func (e *Engine) publish(exec *domain.SagaExecution, event *domain.OrderEvent) {
	e.publisher.Publish(exec.OrderID, exec, event)
}

// isRecoverableCode classifies whether a step failure's error code
// represents a condition the caller can plausibly fix and retry (spec §7:
// "recoverable is set based on error category").
func isRecoverableCode(code string) bool {
	switch code {
	case "VALIDATION_FAILED", "COMPENSATION_FAILED":
		return false
	default:
		return true
	}
}
