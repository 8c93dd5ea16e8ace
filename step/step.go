// Package step defines the contract every domain step implements: the
// forward action, its compensating action, and the validity check used by
// the retry coordinator (spec §4.1).
package step

import "ordersaga/sagactx"

// Result is the outcome of a forward action.
type Result struct {
	Success bool

	// Data is merged into the saga context on success, keyed by the
	// predeclared context keys the step writes (e.g. RESERVATION_ID).
	Data map[string]any

	ErrorCode    string
	ErrorMessage string
}

// CompensationResult is the outcome of a compensating action.
type CompensationResult struct {
	Success bool
	Message string
}

// Validity is the closed set of answers checkValidity can give about a
// previously-completed step's externally-held effect.
type Validity string

const (
	// ValidityValid means the effect is still usable as-is; the retry
	// coordinator may skip re-executing this step.
	ValidityValid Validity = "VALID"

	// ValidityExpiredButRefreshable means the effect has expired but a
	// fresh forward execution is expected to succeed; the step must be
	// re-executed.
	ValidityExpiredButRefreshable Validity = "EXPIRED_BUT_REFRESHABLE"

	// ValidityInvalidRequiresReExecution means the effect is no longer
	// trustworthy; the step must be re-executed.
	ValidityInvalidRequiresReExecution Validity = "INVALID_REQUIRES_RE_EXECUTION"
)

// ValidityResult is the outcome of a checkValidity call.
type ValidityResult struct {
	Validity Validity
	Reason   string
}

// RequiresReExecution reports whether the retry coordinator must re-run the
// forward action rather than skip it.
func (v ValidityResult) RequiresReExecution() bool {
	return v.Validity != ValidityValid
}

// Definition is one named unit of saga work: a forward action, a
// compensating action, and a validity check, all operating against a
// shared *sagactx.Context.
//
// Ordering across a fixed, named list of Definitions (see sagaengine.Registry)
// determines both forward execution order and reverse compensation order.
type Definition interface {
	// Name identifies the step; it appears verbatim in StepExecution rows,
	// events, and the timeline projector's title/description templates.
	Name() string

	// Execute performs the forward action. Implementations must be safe to
	// invoke more than once with the same context data (at-least-once
	// collaborator semantics under crash-then-resume).
	Execute(ctx *sagactx.Context) Result

	// Compensate undoes a previously-successful forward action using data
	// the forward action placed in ctx. Must be safe to invoke when the
	// forward action returned Success=true, and must itself be idempotent
	// at the collaborator boundary.
	Compensate(ctx *sagactx.Context) CompensationResult

	// CheckValidity is used during retry to decide whether this step's
	// previously-recorded effect is still usable.
	CheckValidity(ctx *sagactx.Context) ValidityResult
}
