// Package retry is the Retry Coordinator (spec §4.7): it decides whether a
// failed order may be retried, and when it may, constructs a new
// SagaExecution that skips steps whose effects are still valid and hands
// the rest to the Saga Engine.
package retry

import "time"

// BlockerType is the closed set of reasons retry can be refused beyond the
// coordinator's own bookkeeping (attempt count, cooldown, active
// execution). These originate outside this package — a caller-supplied
// snapshot of state this package has no way to observe on its own (fraud
// review, stock checks).
type BlockerType string

const (
	BlockerMaxRetriesExceeded BlockerType = "MAX_RETRIES_EXCEEDED"
	BlockerInCooldown         BlockerType = "IN_COOLDOWN"
	BlockerRetryInProgress    BlockerType = "RETRY_IN_PROGRESS"
	BlockerFraudDetected      BlockerType = "FRAUD_DETECTED"
	BlockerItemUnavailable    BlockerType = "ITEM_UNAVAILABLE"
	BlockerOther              BlockerType = "OTHER"
)

// Blocker is one outstanding reason a retry cannot proceed yet.
type Blocker struct {
	Type       BlockerType
	Resolvable bool
	Message    string
}

// RequiredAction is a caller-side task (e.g. updating a declined payment
// method) that must be marked complete before retry is allowed.
type RequiredAction struct {
	Name      string
	Completed bool
}

// Request is the caller-supplied input to a retry decision (spec §6,
// `POST /orders/{id}/retry` body), extended with whatever external
// blocker/required-action state the caller's systems hold.
type Request struct {
	AcknowledgedPriceChanges bool
	PriceChangePending       bool
	CompletedActions         []string
	RequiredActions          []RequiredAction
	ExternalBlockers         []Blocker
}

// Status is the closed set of eligibility outcomes (spec §4.7).
type Status string

const (
	StatusEligible           Status = "ELIGIBLE"
	StatusIneligible         Status = "INELIGIBLE"
	StatusInCooldown         Status = "IN_COOLDOWN"
	StatusMaxRetriesExceeded Status = "MAX_RETRIES_EXCEEDED"
	StatusRetryInProgress    Status = "RETRY_IN_PROGRESS"
)

// Eligibility is the result of evaluating a Request against an order's
// retry history. Only the fields relevant to Status are meaningful; it is
// the Go rendering of the spec's closed enumeration (eligible, ineligible,
// inCooldown, maxRetriesExceeded, retryInProgress) as one struct rather
// than a sum type, since callers (HTTP handlers, tests) want to inspect it
// without a type switch.
type Eligibility struct {
	Status            Status
	AttemptsRemaining int
	ExpiresAt         *time.Time
	NextAvailableAt   *time.Time
	Reason            string
	Blockers          []Blocker
}

func eligible(attemptsRemaining int) Eligibility {
	return Eligibility{Status: StatusEligible, AttemptsRemaining: attemptsRemaining}
}

func ineligible(reason string, blockers []Blocker) Eligibility {
	return Eligibility{Status: StatusIneligible, Reason: reason, Blockers: blockers}
}

func inCooldown(nextAvailableAt time.Time, attemptsRemaining int) Eligibility {
	return Eligibility{
		Status:            StatusInCooldown,
		NextAvailableAt:   &nextAvailableAt,
		AttemptsRemaining: attemptsRemaining,
	}
}

func maxRetriesExceeded() Eligibility {
	return Eligibility{Status: StatusMaxRetriesExceeded, Reason: "maximum retry attempts reached"}
}

func retryInProgress() Eligibility {
	return Eligibility{Status: StatusRetryInProgress, Reason: "an execution for this order is already active"}
}

// Eligible reports whether Status permits constructing a retry execution.
func (e Eligibility) Eligible() bool { return e.Status == StatusEligible }
