// Package memgw is an in-process Gateway implementation backed by plain
// Go maps under a mutex. It exists for unit tests, where spinning up sqlite
// is unnecessary ceremony; it honors the same optimistic-concurrency and
// transactional-grouping contract as persistence/sqlgw. SagaExecutions are
// stored and loaded as copies, so a caller's in-memory changes reach the
// gateway only through its write methods.
package memgw

import (
	"context"
	"sort"
	"sync"

	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/persistence"
)

// Gateway is the in-memory persistence.Gateway implementation.
type Gateway struct {
	mu    sync.Mutex
	clock clock.Clock

	orders     map[string]*domain.Order
	items      map[string][]*domain.OrderItem // orderID -> items
	executions map[string]*domain.SagaExecution
	// executionsByOrder preserves insertion order for ListExecutionsForOrder.
	executionsByOrder map[string][]string // orderID -> execution ids, oldest first
	steps             map[string][]*domain.StepExecution // sagaExecutionID -> steps
	events            map[string][]*domain.OrderEvent    // orderID -> events, append order
	retries           map[string][]*domain.RetryAttempt  // orderID -> attempts
}

// New builds an empty in-memory gateway. clk timestamps CompleteRetryAttempt,
// the one write that does not receive an explicit time from its caller.
func New(clk clock.Clock) *Gateway {
	return &Gateway{
		clock:             clk,
		orders:            make(map[string]*domain.Order),
		items:             make(map[string][]*domain.OrderItem),
		executions:        make(map[string]*domain.SagaExecution),
		executionsByOrder: make(map[string][]string),
		steps:             make(map[string][]*domain.StepExecution),
		events:            make(map[string][]*domain.OrderEvent),
		retries:           make(map[string][]*domain.RetryAttempt),
	}
}

func (g *Gateway) InsertOrderAndItems(_ context.Context, order *domain.Order, items []*domain.OrderItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order.MarkPersisted()
	g.orders[order.ID] = order

	stored := make([]*domain.OrderItem, len(items))
	for i, it := range items {
		it.MarkPersisted()
		stored[i] = it
	}
	g.items[order.ID] = stored
	return nil
}

func (g *Gateway) InsertExecution(_ context.Context, exec *domain.SagaExecution) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range g.executionsByOrder[exec.OrderID] {
		if existing := g.executions[id]; existing.Status == domain.SagaExecutionInProgress {
			return persistence.ErrExecutionInProgress
		}
	}

	exec.MarkPersisted()
	stored := *exec
	g.executions[exec.ID] = &stored
	g.executionsByOrder[exec.OrderID] = append(g.executionsByOrder[exec.OrderID], exec.ID)
	return nil
}

func (g *Gateway) RecordStepStart(_ context.Context, step *domain.StepExecution) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	step.MarkPersisted()
	g.steps[step.SagaExecutionID] = append(g.steps[step.SagaExecutionID], step)
	return nil
}

func (g *Gateway) RecordStepCompletion(_ context.Context, step *domain.StepExecution, exec *domain.SagaExecution) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := *exec
	g.executions[exec.ID] = &stored
	return nil
}

func (g *Gateway) RecordStepFailure(_ context.Context, step *domain.StepExecution, exec *domain.SagaExecution) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := *exec
	g.executions[exec.ID] = &stored
	return nil
}

func (g *Gateway) RecordStepCompensated(_ context.Context, step *domain.StepExecution) error {
	return nil
}

func (g *Gateway) TransitionExecution(_ context.Context, exec *domain.SagaExecution, fromStatus domain.SagaExecutionStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, ok := g.executions[exec.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if current.Status != fromStatus {
		return persistence.ErrVersionConflict
	}
	stored := *exec
	g.executions[exec.ID] = &stored
	return nil
}

func (g *Gateway) AppendEvent(_ context.Context, event *domain.OrderEvent) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	event.MarkPersisted()
	g.events[event.OrderID] = append(g.events[event.OrderID], event)
	return nil
}

func (g *Gateway) LoadExecutionForResume(_ context.Context, orderID string) (*domain.SagaExecution, []*domain.StepExecution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := g.executionsByOrder[orderID]
	if len(ids) == 0 {
		return nil, nil, persistence.ErrNotFound
	}
	latest := g.executions[ids[len(ids)-1]]
	steps := append([]*domain.StepExecution(nil), g.steps[latest.ID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })
	loaded := *latest
	return &loaded, steps, nil
}

func (g *Gateway) InsertRetryAttempt(_ context.Context, attempt *domain.RetryAttempt) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	attempt.MarkPersisted()
	g.retries[attempt.OrderID] = append(g.retries[attempt.OrderID], attempt)
	return nil
}

func (g *Gateway) CompleteRetryAttempt(_ context.Context, attemptID string, outcome domain.RetryOutcome, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, attempts := range g.retries {
		for _, a := range attempts {
			if a.ID == attemptID {
				a.Complete(outcome, reason, g.clock.Now())
				return nil
			}
		}
	}
	return persistence.ErrNotFound
}

func (g *Gateway) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return order, nil
}

func (g *Gateway) UpdateOrderStatus(_ context.Context, order *domain.Order) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.orders[order.ID] = order
	return nil
}

func (g *Gateway) ListEventsForOrder(_ context.Context, orderID string) ([]*domain.OrderEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	events := append([]*domain.OrderEvent(nil), g.events[orderID]...)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].RecordedAt.Equal(events[j].RecordedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].RecordedAt.Before(events[j].RecordedAt)
	})
	return events, nil
}

func (g *Gateway) ListExecutionsForOrder(_ context.Context, orderID string) ([]*domain.SagaExecution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := g.executionsByOrder[orderID]
	out := make([]*domain.SagaExecution, len(ids))
	for i, id := range ids {
		out[i] = g.executions[id]
	}
	return out, nil
}

func (g *Gateway) ListStepExecutions(_ context.Context, sagaExecutionID string) ([]*domain.StepExecution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	steps := append([]*domain.StepExecution(nil), g.steps[sagaExecutionID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })
	return steps, nil
}

func (g *Gateway) LatestRetryAttempt(_ context.Context, orderID string) (*domain.RetryAttempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	attempts := g.retries[orderID]
	if len(attempts) == 0 {
		return nil, nil
	}
	return attempts[len(attempts)-1], nil
}

func (g *Gateway) CountRetryAttempts(_ context.Context, orderID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	for _, a := range g.retries[orderID] {
		if a.Outcome == nil || *a.Outcome != domain.RetryOutcomeCancelled {
			count++
		}
	}
	return count, nil
}

func (g *Gateway) HasActiveExecution(_ context.Context, orderID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range g.executionsByOrder[orderID] {
		status := g.executions[id].Status
		if status == domain.SagaExecutionInProgress || status == domain.SagaExecutionCompensating {
			return true, nil
		}
	}
	return false, nil
}

var _ persistence.Gateway = (*Gateway)(nil)
