package sagactx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedKey_PutGetRoundTrip(t *testing.T) {
	ctx := New()
	key := NewContextKey[string]("RESERVATION_ID")

	Put(ctx, key, "R-1")

	got, ok := Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "R-1", got)
}

func TestTypedKey_MissingReturnsZeroValue(t *testing.T) {
	ctx := New()
	key := NewContextKey[int]("COUNT")

	got, ok := Get(ctx, key)
	assert.False(t, ok)
	assert.Equal(t, 0, got)
}

func TestTypedKey_EqualityByName(t *testing.T) {
	a := NewContextKey[string]("SAME_NAME")
	b := NewContextKey[string]("SAME_NAME")

	ctx := New()
	Put(ctx, a, "value")

	got, ok := Get(ctx, b)
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestLegacyShim_PutGetValue(t *testing.T) {
	ctx := New()
	ctx.PutValue("AUTHORIZATION_ID", "A-1")

	got, ok := ctx.GetValue("AUTHORIZATION_ID")
	require.True(t, ok)
	assert.Equal(t, "A-1", got)
}

func TestMergeData(t *testing.T) {
	ctx := New()
	ctx.MergeData(map[string]any{
		"SHIPMENT_ID":      "S-1",
		"TRACKING_NUMBER":  "TRK-1",
	})

	v, ok := ctx.GetValue("SHIPMENT_ID")
	require.True(t, ok)
	assert.Equal(t, "S-1", v)
}

func TestMarkStepCompleted_DeduplicatesPreservesOrder(t *testing.T) {
	ctx := New()
	ctx.MarkStepCompleted("Inventory Reservation")
	ctx.MarkStepCompleted("Payment Processing")
	ctx.MarkStepCompleted("Inventory Reservation")

	assert.Equal(t, []string{"Inventory Reservation", "Payment Processing"}, ctx.CompletedSteps())
	assert.True(t, ctx.HasCompleted("Payment Processing"))
	assert.False(t, ctx.HasCompleted("Shipping Arrangement"))
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	ctx := New()
	ctx.PutValue("RESERVATION_ID", "R-1")
	ctx.PutValue("AUTHORIZATION_ID", "A-1")

	snap := ctx.Snapshot()
	assert.Len(t, snap, 2)

	restored := New()
	restored.Restore(snap)

	v, ok := restored.GetValue("RESERVATION_ID")
	require.True(t, ok)
	assert.Equal(t, "R-1", v)
}
