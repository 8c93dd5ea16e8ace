package timeline

import (
	"fmt"
	"time"

	"ordersaga/domain"
)

// SagaExecutionSummary is the OrderHistory's per-execution rollup.
type SagaExecutionSummary struct {
	ID          string
	Status      domain.SagaExecutionStatus
	IsRetry     bool
	StartedAt   time.Time
	CompletedAt *time.Time
}

// OrderHistory is the Timeline Projector's aggregate output (spec §4.8).
type OrderHistory struct {
	OrderID     string
	OrderNumber string
	CreatedAt   time.Time
	FinalStatus domain.OrderStatus
	CompletedAt *time.Time
	Timeline    []TimelineEntry
	Executions  []SagaExecutionSummary

	TotalAttempts    int
	RetryCount       int
	WasSuccessful    bool
	HadCompensations bool
}

// BuildHistory assembles an OrderHistory from an order, every SagaExecution
// ever created for it (oldest first, per the Persistence Gateway's
// ListExecutionsForOrder contract), and its full event log.
func BuildHistory(order *domain.Order, executions []*domain.SagaExecution, events []*domain.OrderEvent) OrderHistory {
	summaries := make([]SagaExecutionSummary, len(executions))
	retryCount := 0
	hadCompensations := false
	for i, exec := range executions {
		isRetry := i > 0
		if isRetry {
			retryCount++
		}
		if exec.Status == domain.SagaExecutionCompensated {
			hadCompensations = true
		}
		summaries[i] = SagaExecutionSummary{
			ID:          exec.ID,
			Status:      exec.Status,
			IsRetry:     isRetry,
			StartedAt:   exec.StartedAt,
			CompletedAt: terminalTimestamp(exec),
		}
	}

	var completedAt *time.Time
	if order.Status == domain.OrderStatusCompleted || order.Status == domain.OrderStatusCompensated {
		completedAt = latestEventTime(events)
	}

	return OrderHistory{
		OrderID:          order.ID,
		OrderNumber:      OrderNumber(order.ID, order.CreatedAt),
		CreatedAt:        order.CreatedAt,
		FinalStatus:      order.Status,
		CompletedAt:      completedAt,
		Timeline:         Project(events),
		Executions:       summaries,
		TotalAttempts:    len(executions),
		RetryCount:       retryCount,
		WasSuccessful:    order.Status == domain.OrderStatusCompleted,
		HadCompensations: hadCompensations,
	}
}

// OrderNumber derives the order-facing identifier: ORD-YYYY-XXXXXXXX, where
// YYYY is the 4-digit UTC year of createdAt and XXXXXXXX is the first 8
// characters of orderId (spec §8 property 8).
func OrderNumber(orderID string, createdAt time.Time) string {
	prefix := orderID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("ORD-%04d-%s", createdAt.UTC().Year(), prefix)
}

func terminalTimestamp(exec *domain.SagaExecution) *time.Time {
	if exec.CompensationCompletedAt != nil {
		return exec.CompensationCompletedAt
	}
	return exec.CompletedAt
}

func latestEventTime(events []*domain.OrderEvent) *time.Time {
	if len(events) == 0 {
		return nil
	}
	t := events[len(events)-1].RecordedAt
	return &t
}
