package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordersaga/domain"
)

func TestBuildHistory_SuccessfulSingleExecution(t *testing.T) {
	now := fixedNow(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	order := domain.NewOrder("order-abcdefgh", "cust-1", 1999, now)
	order.Status = domain.OrderStatusCompleted

	exec := domain.NewSagaExecution("exec-1", order.ID, now)
	exec.MarkCompleted(now())

	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", order.ID, domain.EventOrderCreated, domain.OutcomeNeutral, now),
		domain.NewOrderEvent("e2", order.ID, domain.EventOrderCompleted, domain.OutcomeSuccess, now),
	}

	history := BuildHistory(order, []*domain.SagaExecution{exec}, events)

	assert.Equal(t, order.ID, history.OrderID)
	assert.Equal(t, "ORD-2026-order-ab", history.OrderNumber)
	assert.Equal(t, domain.OrderStatusCompleted, history.FinalStatus)
	assert.True(t, history.WasSuccessful)
	assert.False(t, history.HadCompensations)
	assert.Equal(t, 1, history.TotalAttempts)
	assert.Equal(t, 0, history.RetryCount)
	require.Len(t, history.Executions, 1)
	assert.False(t, history.Executions[0].IsRetry)
	require.NotNil(t, history.CompletedAt)
	assert.Len(t, history.Timeline, 2)
}

func TestBuildHistory_RetriedAndEventuallyCompensated(t *testing.T) {
	now := fixedNow(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	order := domain.NewOrder("order-12345678", "cust-2", 5000, now)
	order.Status = domain.OrderStatusCompensated

	original := domain.NewSagaExecution("exec-1", order.ID, now)
	original.MarkFailed(1, "payment declined", now())
	original.MarkCompensating(now())
	original.MarkCompensated(now())

	retry := domain.NewSagaExecution("exec-2", order.ID, now)
	retry.MarkFailed(1, "payment declined again", now())
	retry.MarkCompensating(now())
	retry.MarkCompensated(now())

	events := []*domain.OrderEvent{
		domain.NewOrderEvent("e1", order.ID, domain.EventOrderCreated, domain.OutcomeNeutral, now),
		domain.NewOrderEvent("e2", order.ID, domain.EventOrderCancelled, domain.OutcomeCompensated, now),
	}

	history := BuildHistory(order, []*domain.SagaExecution{original, retry}, events)

	assert.False(t, history.WasSuccessful)
	assert.True(t, history.HadCompensations)
	assert.Equal(t, 2, history.TotalAttempts)
	assert.Equal(t, 1, history.RetryCount)
	require.Len(t, history.Executions, 2)
	assert.False(t, history.Executions[0].IsRetry)
	assert.True(t, history.Executions[1].IsRetry)
	assert.Equal(t, domain.SagaExecutionCompensated, history.Executions[1].Status)
	require.NotNil(t, history.Executions[1].CompletedAt)
}

func TestBuildHistory_IncompleteOrderHasNoCompletedAt(t *testing.T) {
	now := fixedNow(time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC))
	order := domain.NewOrder("order-99999999", "cust-3", 2500, now)
	order.Status = domain.OrderStatusProcessing

	exec := domain.NewSagaExecution("exec-1", order.ID, now)

	history := BuildHistory(order, []*domain.SagaExecution{exec}, nil)

	assert.Nil(t, history.CompletedAt)
	assert.False(t, history.WasSuccessful)
	assert.Empty(t, history.Timeline)
}

func TestOrderNumber_FormatsYearAndEightCharPrefix(t *testing.T) {
	tests := []struct {
		name      string
		orderID   string
		createdAt time.Time
		want      string
	}{
		{"long id truncated to 8 chars", "order-0123456789", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "ORD-2025-order-01"},
		{"short id used as-is", "ord-1", time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), "ORD-2024-ord-1"},
		{"year taken in UTC", "abcdefghij", time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC), "ORD-2026-abcdefgh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderNumber(tt.orderID, tt.createdAt))
		})
	}
}
