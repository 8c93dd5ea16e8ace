package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/persistence/memgw"
)

func TestRecorder_AppendsFullLifecycle(t *testing.T) {
	ctx := context.Background()
	gw := memgw.New(clock.New())
	rec := New(gw, clock.NewFixed(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, rec.OrderCreated(ctx, "order-1"))
	require.NoError(t, rec.SagaStarted(ctx, "order-1", "exec-1"))
	require.NoError(t, rec.StepStarted(ctx, "order-1", "exec-1", "Inventory Reservation"))
	require.NoError(t, rec.StepCompleted(ctx, "order-1", "exec-1", "Inventory Reservation", map[string]any{"RESERVATION_ID": "r-1"}))
	require.NoError(t, rec.StepFailed(ctx, "order-1", "exec-1", "Payment Processing",
		domain.NewErrorInfo("PAYMENT_DECLINED", "card declined", true)))
	require.NoError(t, rec.CompensationStarted(ctx, "order-1", "exec-1"))
	require.NoError(t, rec.StepCompensated(ctx, "order-1", "exec-1", "Inventory Reservation", nil))
	require.NoError(t, rec.SagaCompensated(ctx, "order-1", "exec-1"))
	require.NoError(t, rec.OrderCancelled(ctx, "order-1"))

	events, err := gw.ListEventsForOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, events, 9)

	wantTypes := []domain.EventType{
		domain.EventOrderCreated, domain.EventSagaStarted, domain.EventStepStarted,
		domain.EventStepCompleted, domain.EventStepFailed, domain.EventCompensationStarted,
		domain.EventStepCompensated, domain.EventSagaCompensated, domain.EventOrderCancelled,
	}
	for i, want := range wantTypes {
		assert.Equal(t, want, events[i].EventType, "event %d", i)
	}

	assert.Equal(t, domain.OutcomeFailed, events[4].Outcome)
	require.NotNil(t, events[4].ErrorInfo)
	assert.Equal(t, "PAYMENT_DECLINED", events[4].ErrorInfo.Code)
}

func TestRecorder_StepCompensated_FailureRecordsAnomaly(t *testing.T) {
	ctx := context.Background()
	gw := memgw.New(clock.New())
	rec := New(gw, clock.New())

	failure := domain.NewErrorInfo("COMPENSATION_FAILED", "refund gateway unreachable", false)
	require.NoError(t, rec.StepCompensated(ctx, "order-1", "exec-1", "Payment Processing", failure))

	events, err := gw.ListEventsForOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutcomeFailed, events[0].Outcome)
	require.NotNil(t, events[0].ErrorInfo)
	assert.Equal(t, "COMPENSATION_FAILED", events[0].ErrorInfo.Code)
}

func TestRecorder_RetryInitiated_EncodesPlan(t *testing.T) {
	ctx := context.Background()
	gw := memgw.New(clock.New())
	rec := New(gw, clock.New())

	require.NoError(t, rec.RetryInitiated(ctx, "order-1", "exec-2", 2, "Payment Processing", []string{"Inventory Reservation"}))

	events, err := gw.ListEventsForOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventRetryInitiated, events[0].EventType)
	assert.NotEmpty(t, events[0].Details)
}
