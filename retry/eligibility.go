package retry

import (
	"context"
	"time"

	"ordersaga/domain"
	"ordersaga/errorsx"
)

// Evaluate decides whether orderId may be retried right now, given req
// (spec §4.7's eligibility predicate). It performs no writes.
func (c *Coordinator) Evaluate(ctx context.Context, orderID string, req Request) (Eligibility, error) {
	active, err := c.gateway.HasActiveExecution(ctx, orderID)
	if err != nil {
		return Eligibility{}, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "check active execution")
	}
	if active {
		return retryInProgress(), nil
	}

	attemptCount, err := c.gateway.CountRetryAttempts(ctx, orderID)
	if err != nil {
		return Eligibility{}, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "count retry attempts")
	}
	if attemptCount >= c.maxAttempts {
		return maxRetriesExceeded(), nil
	}
	// attemptsRemaining counts the retries left after the one this call
	// would consume, matching the spec's worked example (MAX_ATTEMPTS-1
	// remaining on the very first retry).
	attemptsRemaining := c.maxAttempts - attemptCount - 1

	latest, _, err := c.gateway.LoadExecutionForResume(ctx, orderID)
	if err != nil {
		return Eligibility{}, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "load latest execution")
	}
	if latest.Status != domain.SagaExecutionFailed && latest.Status != domain.SagaExecutionCompensated {
		return ineligible("the most recent execution for this order has not reached a retryable state", nil), nil
	}

	lastAttempt, err := c.gateway.LatestRetryAttempt(ctx, orderID)
	if err != nil {
		return Eligibility{}, errorsx.Wrap(ctx, err, errorsx.ErrCodeDatabase, "load latest retry attempt")
	}
	nextAvailableAt := cooldownBase(latest, lastAttempt).Add(c.cooldown)
	if c.clock.Now().Before(nextAvailableAt) {
		return inCooldown(nextAvailableAt, attemptsRemaining), nil
	}

	for _, action := range req.RequiredActions {
		if action.Completed || containsString(req.CompletedActions, action.Name) {
			continue
		}
		return ineligible("required action not completed: "+action.Name, nil), nil
	}

	if req.PriceChangePending && !req.AcknowledgedPriceChanges {
		return ineligible("pending price change has not been acknowledged", nil), nil
	}

	if len(req.ExternalBlockers) > 0 {
		return ineligible("unresolved external blockers", req.ExternalBlockers), nil
	}

	return eligible(attemptsRemaining), nil
}

// cooldownBase returns the point in time the cooldown window is measured
// from: the last retry attempt's completion if one exists, otherwise the
// original execution's own terminal timestamp.
func cooldownBase(latest *domain.SagaExecution, lastAttempt *domain.RetryAttempt) time.Time {
	if lastAttempt != nil && lastAttempt.CompletedAt != nil {
		return *lastAttempt.CompletedAt
	}
	if latest.CompensationCompletedAt != nil {
		return *latest.CompensationCompletedAt
	}
	if latest.CompletedAt != nil {
		return *latest.CompletedAt
	}
	return latest.StartedAt
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
