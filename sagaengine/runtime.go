package sagaengine

import (
	"context"
	"fmt"
	"time"

	"ordersaga/errorsx"
	"ordersaga/sagactx"
	"ordersaga/step"
)

// DefaultStepTimeout is used when a Runtime is built without an explicit
// per-step timeout override (spec §5: "default 30s, overridable per step").
const DefaultStepTimeout = 30 * time.Second

// Runtime invokes one forward step or one compensation against a context,
// normalizing panics, timeouts, and cancellation into a structured result
// (spec §4.3). It never touches persistence.
type Runtime struct {
	timeout time.Duration
}

// NewRuntime builds a Runtime with the given per-step timeout. A timeout of
// zero falls back to DefaultStepTimeout.
func NewRuntime(timeout time.Duration) *Runtime {
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	return &Runtime{timeout: timeout}
}

// Execute runs def.Execute with a deadline, on a worker goroutine so that a
// step that ignores ctx cancellation cannot block the engine forever. The
// blocking call is wrapped in a select on ctx.Done(), the same shape the
// teacher's patterns/retry.Do uses for a cancellable wait.
func (rt *Runtime) Execute(ctx context.Context, def step.Definition, sctx *sagactx.Context) step.Result {
	runCtx, cancel := context.WithTimeout(ctx, rt.timeout)
	defer cancel()

	resultCh := make(chan step.Result, 1)
	go func() {
		resultCh <- rt.callExecute(def, sctx)
	}()

	select {
	case result := <-resultCh:
		return result
	case <-runCtx.Done():
		return rt.timeoutResult(runCtx)
	}
}

// Compensate runs def.Compensate with the same deadline/cancellation/panic
// handling as Execute.
func (rt *Runtime) Compensate(ctx context.Context, def step.Definition, sctx *sagactx.Context) step.CompensationResult {
	runCtx, cancel := context.WithTimeout(ctx, rt.timeout)
	defer cancel()

	resultCh := make(chan step.CompensationResult, 1)
	go func() {
		resultCh <- rt.callCompensate(def, sctx)
	}()

	select {
	case result := <-resultCh:
		return result
	case <-runCtx.Done():
		return step.CompensationResult{
			Success: false,
			Message: fmt.Sprintf("compensation cancelled: %v", runCtx.Err()),
		}
	}
}

func (rt *Runtime) callExecute(def step.Definition, sctx *sagactx.Context) (result step.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = step.Result{
				Success:      false,
				ErrorCode:    string(errorsx.ErrCodeUnexpected),
				ErrorMessage: fmt.Sprintf("step %q panicked: %v", def.Name(), r),
			}
		}
	}()
	return def.Execute(sctx)
}

func (rt *Runtime) callCompensate(def step.Definition, sctx *sagactx.Context) (result step.CompensationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = step.CompensationResult{
				Success: false,
				Message: fmt.Sprintf("compensation for %q panicked: %v", def.Name(), r),
			}
		}
	}()
	return def.Compensate(sctx)
}

func (rt *Runtime) timeoutResult(runCtx context.Context) step.Result {
	code := errorsx.ErrCodeUnexpected
	if runCtx.Err() == context.DeadlineExceeded {
		code = errorsx.ErrCodeServiceUnavailable
	}
	return step.Result{
		Success:      false,
		ErrorCode:    string(code),
		ErrorMessage: fmt.Sprintf("step did not return: %v", runCtx.Err()),
	}
}
