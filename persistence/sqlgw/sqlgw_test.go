package sqlgw

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "ordersaga/data/db"
	"ordersaga/data/db/basic"
	"ordersaga/clock"
	"ordersaga/domain"
	"ordersaga/persistence"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	database, err := basic.New(core.Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, Migrate(context.Background(), database))
	return New(database, clock.New())
}

func fixedNow(t time.Time) domain.NowFunc {
	return func() time.Time { return t }
}

func TestInsertOrderAndItems_RoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	order := domain.NewOrder("order-1", "cust-1", 4500, fixedNow(now))
	item := domain.NewOrderItem("item-1", order.ID, "p1", "Widget", 3, 1500, fixedNow(now))

	require.NoError(t, gw.InsertOrderAndItems(ctx, order, []*domain.OrderItem{item}))
	assert.False(t, order.IsNew())

	loaded, err := gw.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, order.CustomerID, loaded.CustomerID)
	assert.Equal(t, order.TotalAmountInMinorUnits, loaded.TotalAmountInMinorUnits)
	assert.Equal(t, domain.OrderStatusPending, loaded.Status)
}

func TestGetOrder_NotFound(t *testing.T) {
	gw := newTestGateway(t)
	_, err := gw.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestInsertExecution_RejectsSecondInProgress(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	exec1 := domain.NewSagaExecution("exec-1", "order-1", fixedNow(now))
	exec1.MarkInProgress(now)
	require.NoError(t, gw.InsertExecution(ctx, exec1))

	exec2 := domain.NewSagaExecution("exec-2", "order-1", fixedNow(now))
	err := gw.InsertExecution(ctx, exec2)
	assert.ErrorIs(t, err, persistence.ErrExecutionInProgress)
}

func TestTransitionExecution_VersionConflict(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	exec := domain.NewSagaExecution("exec-1", "order-1", fixedNow(now))
	require.NoError(t, gw.InsertExecution(ctx, exec))

	exec.MarkInProgress(now)
	require.NoError(t, gw.TransitionExecution(ctx, exec, domain.SagaExecutionPending))

	stale := domain.NewSagaExecution("exec-1", "order-1", fixedNow(now))
	stale.MarkCompleted(now)
	err := gw.TransitionExecution(ctx, stale, domain.SagaExecutionPending)
	assert.ErrorIs(t, err, persistence.ErrVersionConflict)
}

func TestAppendEvent_OrderedByRecordedAtThenID(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	e1 := domain.NewOrderEvent("evt-2", "order-1", domain.EventStepStarted, domain.OutcomeNeutral, fixedNow(base))
	e2 := domain.NewOrderEvent("evt-1", "order-1", domain.EventSagaStarted, domain.OutcomeNeutral, fixedNow(base))

	require.NoError(t, gw.AppendEvent(ctx, e1))
	require.NoError(t, gw.AppendEvent(ctx, e2))

	events, err := gw.ListEventsForOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "evt-2", events[1].ID)
}

func TestAppendEvent_PersistsErrorInfo(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	info := domain.NewErrorInfo("PAYMENT_DECLINED", "card declined", true)
	event := domain.NewOrderEvent("evt-1", "order-1", domain.EventStepFailed, domain.OutcomeFailed, fixedNow(now)).
		WithErrorInfo(info).WithStep("Payment Processing")

	require.NoError(t, gw.AppendEvent(ctx, event))

	events, err := gw.ListEventsForOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].ErrorInfo)
	assert.Equal(t, "PAYMENT_DECLINED", events[0].ErrorInfo.Code)
	require.NotNil(t, events[0].StepName)
	assert.Equal(t, "Payment Processing", *events[0].StepName)
}

func TestLoadExecutionForResume_ReturnsLatestWithOrderedSteps(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	exec := domain.NewSagaExecution("exec-1", "order-1", fixedNow(now))
	require.NoError(t, gw.InsertExecution(ctx, exec))

	step1 := domain.NewStepExecution("step-1", exec.ID, "Payment Processing", 1, fixedNow(now))
	step0 := domain.NewStepExecution("step-0", exec.ID, "Inventory Reservation", 0, fixedNow(now))
	require.NoError(t, gw.RecordStepStart(ctx, step1))
	require.NoError(t, gw.RecordStepStart(ctx, step0))

	loaded, steps, err := gw.LoadExecutionForResume(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, exec.ID, loaded.ID)
	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].StepIndex)
	assert.Equal(t, 1, steps[1].StepIndex)
}

func TestRecordStepFailure_UpdatesStepAndExecutionAtomically(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	exec := domain.NewSagaExecution("exec-1", "order-1", fixedNow(now))
	exec.MarkInProgress(now)
	require.NoError(t, gw.InsertExecution(ctx, exec))

	step := domain.NewStepExecution("step-0", exec.ID, "Inventory Reservation", 0, fixedNow(now))
	step.MarkStarted(now)
	require.NoError(t, gw.RecordStepStart(ctx, step))

	step.MarkFailed("INVENTORY_UNAVAILABLE", "out of stock", now)
	exec.MarkFailed(0, "out of stock", now)
	require.NoError(t, gw.RecordStepFailure(ctx, step, exec))

	steps, err := gw.ListStepExecutions(ctx, exec.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, domain.StepExecutionFailed, steps[0].Status)
	require.NotNil(t, steps[0].ErrorCode)
	assert.Equal(t, "INVENTORY_UNAVAILABLE", *steps[0].ErrorCode)

	executions, err := gw.ListExecutionsForOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, domain.SagaExecutionFailed, executions[0].Status)
	require.NotNil(t, executions[0].FailedStepIndex)
	assert.Equal(t, 0, *executions[0].FailedStepIndex)
}

func TestRetryAttempt_InsertAndComplete(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	a1 := domain.NewRetryAttempt("retry-1", "order-1", "exec-1", 1, fixedNow(now))
	a1.AttachExecution("exec-2", "Payment Processing", []string{"Inventory Reservation"})
	require.NoError(t, gw.InsertRetryAttempt(ctx, a1))

	require.NoError(t, gw.CompleteRetryAttempt(ctx, a1.ID, domain.RetryOutcomeFailed, "payment declined again"))

	latest, err := gw.LatestRetryAttempt(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.NotNil(t, latest.Outcome)
	assert.Equal(t, domain.RetryOutcomeFailed, *latest.Outcome)
	require.Len(t, latest.SkippedStepNames, 1)
	assert.Equal(t, "Inventory Reservation", latest.SkippedStepNames[0])
}

func TestCountRetryAttempts_ExcludesCancelled(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	a1 := domain.NewRetryAttempt("retry-1", "order-1", "exec-1", 1, fixedNow(now))
	require.NoError(t, gw.InsertRetryAttempt(ctx, a1))
	require.NoError(t, gw.CompleteRetryAttempt(ctx, a1.ID, domain.RetryOutcomeFailed, "payment declined"))

	a2 := domain.NewRetryAttempt("retry-2", "order-1", "exec-1", 2, fixedNow(now))
	require.NoError(t, gw.InsertRetryAttempt(ctx, a2))
	require.NoError(t, gw.CompleteRetryAttempt(ctx, a2.ID, domain.RetryOutcomeCancelled, ""))

	count, err := gw.CountRetryAttempts(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHasActiveExecution(t *testing.T) {
	ctx := context.Background()
	gw := newTestGateway(t)
	now := time.Now().UTC()

	exec := domain.NewSagaExecution("exec-1", "order-1", fixedNow(now))
	exec.MarkInProgress(now)
	require.NoError(t, gw.InsertExecution(ctx, exec))

	active, err := gw.HasActiveExecution(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, active)

	exec.MarkCompleted(now)
	require.NoError(t, gw.TransitionExecution(ctx, exec, domain.SagaExecutionInProgress))

	active, err = gw.HasActiveExecution(ctx, "order-1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestMigrate_Idempotent(t *testing.T) {
	database, err := basic.New(core.Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, Migrate(context.Background(), database))
	require.NoError(t, Migrate(context.Background(), database))
}
