package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersaga/domain"
)

func fixedNow(t time.Time) domain.NowFunc {
	return func() time.Time { return t }
}

func TestProject_HappyPath_EndsWithOrderCompleted(t *testing.T) {
	now := fixedNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", "order-1", domain.EventOrderCreated, domain.OutcomeNeutral, now),
		domain.NewOrderEvent("e2", "order-1", domain.EventSagaStarted, domain.OutcomeNeutral, now).WithSagaExecution("exec-1"),
		domain.NewOrderEvent("e3", "order-1", domain.EventStepCompleted, domain.OutcomeSuccess, now).WithSagaExecution("exec-1").WithStep("Payment Processing").WithDetails([]byte(`{"AUTHORIZATION_ID":"a-1"}`)),
		domain.NewOrderEvent("e4", "order-1", domain.EventSagaCompleted, domain.OutcomeSuccess, now).WithSagaExecution("exec-1"),
		domain.NewOrderEvent("e5", "order-1", domain.EventOrderCompleted, domain.OutcomeSuccess, now),
	}

	entries := Project(events)
	require.Len(t, entries, 5)
	assert.Equal(t, "Order Created", entries[0].Title)
	assert.Equal(t, "Payment Processed", entries[2].Title)
	assert.Contains(t, entries[2].Description, "AUTHORIZATION_ID")
	assert.Equal(t, StatusSuccess, entries[2].Status)
	assert.Equal(t, "Order Completed", entries[4].Title)
	assert.Equal(t, StatusSuccess, entries[4].Status)
}

func TestProject_PaymentFailureAndCompensation(t *testing.T) {
	now := fixedNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	info := domain.NewErrorInfo("PAYMENT_DECLINED", "card declined", true)
	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", "order-1", domain.EventStepFailed, domain.OutcomeFailed, now).WithStep("Payment Processing").WithErrorInfo(info),
		domain.NewOrderEvent("e2", "order-1", domain.EventStepCompensated, domain.OutcomeCompensated, now).WithStep("Inventory Reservation"),
		domain.NewOrderEvent("e3", "order-1", domain.EventOrderCancelled, domain.OutcomeCompensated, now),
	}

	entries := Project(events)
	require.Len(t, entries, 3)
	assert.Equal(t, "Payment Failed", entries[0].Title)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Equal(t, "card declined", entries[0].Description)
	assert.Equal(t, "Inventory Released", entries[1].Title)
	assert.Equal(t, StatusCompensated, entries[1].Status)
	assert.Equal(t, "Order Cancelled", entries[2].Title)
}

func TestProject_CompensationFailureAnomalyRendersAsFailed(t *testing.T) {
	now := fixedNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	failure := domain.NewErrorInfo("COMPENSATION_FAILED", "release endpoint unreachable", false)
	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", "order-1", domain.EventStepCompensated, domain.OutcomeFailed, now).WithStep("Inventory Reservation").WithErrorInfo(failure),
	}

	entries := Project(events)
	require.Len(t, entries, 1)
	assert.Equal(t, StatusFailed, entries[0].Status)
	assert.Equal(t, "release endpoint unreachable", entries[0].Description)
}

func TestProject_IsDeterministic(t *testing.T) {
	now := fixedNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", "order-1", domain.EventOrderCreated, domain.OutcomeNeutral, now),
		domain.NewOrderEvent("e2", "order-1", domain.EventRetryInitiated, domain.OutcomeNeutral, now).WithDetails([]byte(`{"attemptNumber":2}`)),
	}

	first := Project(events)
	second := Project(events)
	assert.Equal(t, first, second)
	assert.Equal(t, "Retry attempt 2 was initiated", first[1].Description)
}

func TestProject_UnknownStepFallsBackToGenericTemplate(t *testing.T) {
	now := fixedNow(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", "order-1", domain.EventStepCompleted, domain.OutcomeSuccess, now).WithStep("Fraud Check"),
	}

	entries := Project(events)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fraud Check Completed", entries[0].Title)
}
