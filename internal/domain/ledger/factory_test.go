package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func testItem() *InventoryItem {
	item := NewInventoryItem("WIDGET-01", "Widget", id.New(), "USD")
	item.Available = qty(100)
	item.AverageUnitCost = money("10")
	item.RecomputeTotal()
	return item
}

func TestBuildInbound(t *testing.T) {
	f := NewFactory()
	item := testItem()
	cost := money("12.50")

	entry, err := f.BuildInbound(item, InboundRequest{
		ItemID:       item.ID,
		Quantity:     qty(40),
		UnitCost:     &cost,
		Reason:       "purchase receipt",
		Reference:    "PO-123",
		Counterparty: "Acme Supply",
	}, "tester")
	require.NoError(t, err)

	assert.Equal(t, TypeInbound, entry.Type)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, qty(100), entry.PreviousQty)
	assert.Equal(t, qty(40), entry.ChangeQty)
	assert.Equal(t, qty(140), entry.CurrentQty())
	assert.True(t, entry.UnitCost.Equal(cost))
	assert.Equal(t, "PO-123", entry.Reference)
	assert.Equal(t, "purchase receipt", entry.Reason)
	assert.Equal(t, "tester", entry.CreatedBy)
}

func TestBuildInbound_RequiresReasonAndCounterparty(t *testing.T) {
	f := NewFactory()
	item := testItem()

	_, err := f.BuildInbound(item, InboundRequest{
		ItemID:       item.ID,
		Quantity:     qty(5),
		Counterparty: "Acme Supply",
	}, "tester")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = f.BuildInbound(item, InboundRequest{
		ItemID:   item.ID,
		Quantity: qty(5),
		Reason:   "purchase receipt",
	}, "tester")
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestBuildOutbound_RequiresReasonAndCounterparty(t *testing.T) {
	f := NewFactory()
	item := testItem()

	_, err := f.BuildOutbound(item, OutboundRequest{
		ItemID:       item.ID,
		Quantity:     qty(5),
		Counterparty: "Acme Retail",
	}, "tester")
	require.Error(t, err)

	_, err = f.BuildOutbound(item, OutboundRequest{
		ItemID:   item.ID,
		Quantity: qty(5),
		Reason:   "sales issue",
	}, "tester")
	require.Error(t, err)
}

func TestBuildInbound_UnpricedUsesAverageCost(t *testing.T) {
	f := NewFactory()
	item := testItem()

	entry, err := f.BuildInbound(item, InboundRequest{ItemID: item.ID, Quantity: qty(5), Reason: "purchase receipt", Counterparty: "Acme Supply"}, "tester")
	require.NoError(t, err)

	assert.True(t, entry.UnitCost.Equal(item.AverageUnitCost))
}

func TestBuildInbound_RejectsNonPositiveQuantity(t *testing.T) {
	f := NewFactory()
	item := testItem()

	for _, q := range []types.Quantity{qty(0), qty(-10)} {
		_, err := f.BuildInbound(item, InboundRequest{ItemID: item.ID, Quantity: q}, "tester")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	}
}

func TestBuildOutbound_SnapshotsAverageCost(t *testing.T) {
	f := NewFactory()
	item := testItem()

	entry, err := f.BuildOutbound(item, OutboundRequest{ItemID: item.ID, Quantity: qty(30), Reason: "sales issue", Counterparty: "Acme Retail"}, "tester")
	require.NoError(t, err)

	assert.Equal(t, TypeOutbound, entry.Type)
	assert.Equal(t, qty(-30), entry.ChangeQty)
	assert.Equal(t, qty(70), entry.CurrentQty())
	assert.True(t, entry.UnitCost.Equal(money("10")))
}

func TestBuildOutbound_ExactAvailableSucceeds(t *testing.T) {
	f := NewFactory()
	item := testItem()

	entry, err := f.BuildOutbound(item, OutboundRequest{ItemID: item.ID, Quantity: qty(100), Reason: "sales issue", Counterparty: "Acme Retail"}, "tester")
	require.NoError(t, err)
	assert.Equal(t, qty(0), entry.CurrentQty())
}

func TestBuildOutbound_InsufficientStock(t *testing.T) {
	f := NewFactory()
	item := testItem()

	_, err := f.BuildOutbound(item, OutboundRequest{ItemID: item.ID, Quantity: qty(100.0001), Reason: "sales issue", Counterparty: "Acme Retail"}, "tester")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestBuildAdjustment(t *testing.T) {
	f := NewFactory()
	item := testItem()

	t.Run("down", func(t *testing.T) {
		entry, err := f.BuildAdjustment(item, AdjustmentRequest{
			ItemID:         item.ID,
			TargetQuantity: qty(95),
			Reason:         "cycle count",
			Notes:          "variance found during count",
		}, "tester")
		require.NoError(t, err)
		assert.Equal(t, TypeAdjustment, entry.Type)
		assert.Equal(t, qty(-5), entry.ChangeQty)
		assert.Equal(t, "cycle count", entry.Reason)
	})

	t.Run("up", func(t *testing.T) {
		entry, err := f.BuildAdjustment(item, AdjustmentRequest{
			ItemID:         item.ID,
			TargetQuantity: qty(110),
			Reason:         "found stock",
			Notes:          "pallet located in overflow area",
		}, "tester")
		require.NoError(t, err)
		assert.Equal(t, qty(10), entry.ChangeQty)
	})

	t.Run("no-op rejected", func(t *testing.T) {
		_, err := f.BuildAdjustment(item, AdjustmentRequest{
			ItemID:         item.ID,
			TargetQuantity: qty(100),
			Reason:         "cycle count",
			Notes:          "no variance",
		}, "tester")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeNoOpAdjustment, appErr.Code)
	})

	t.Run("missing reason rejected", func(t *testing.T) {
		_, err := f.BuildAdjustment(item, AdjustmentRequest{
			ItemID:         item.ID,
			TargetQuantity: qty(90),
		}, "tester")
		require.Error(t, err)
	})

	t.Run("missing notes rejected", func(t *testing.T) {
		_, err := f.BuildAdjustment(item, AdjustmentRequest{
			ItemID:         item.ID,
			TargetQuantity: qty(90),
			Reason:         "cycle count",
		}, "tester")
		require.Error(t, err)
	})

	t.Run("negative target rejected", func(t *testing.T) {
		_, err := f.BuildAdjustment(item, AdjustmentRequest{
			ItemID:         item.ID,
			TargetQuantity: qty(-1),
			Reason:         "cycle count",
			Notes:          "writedown",
		}, "tester")
		require.Error(t, err)
	})
}

func TestBuildReversal(t *testing.T) {
	f := NewFactory()
	item := testItem()

	original, err := f.BuildOutbound(item, OutboundRequest{ItemID: item.ID, Quantity: qty(25), Reason: "sales issue", Counterparty: "Acme Retail"}, "tester")
	require.NoError(t, err)
	require.NoError(t, original.MarkConfirmed())

	// Simulate the applied movement before reversing.
	require.NoError(t, item.ApplyChange(original.ChangeQty))

	reversal, err := f.BuildReversal(item, original, "wrong item picked", "tester")
	require.NoError(t, err)

	assert.Equal(t, qty(25), reversal.ChangeQty)
	assert.Equal(t, original.Type, reversal.Type)
	assert.True(t, reversal.IsReversal())
	assert.Equal(t, original.ID, *reversal.ReversalOf)
	assert.True(t, reversal.UnitCost.Equal(original.UnitCost))
	assert.Equal(t, original.Number, reversal.Reference)
}

func TestBuildReversal_PendingNotCancellable(t *testing.T) {
	f := NewFactory()
	item := testItem()

	original, err := f.BuildOutbound(item, OutboundRequest{ItemID: item.ID, Quantity: qty(25), Reason: "sales issue", Counterparty: "Acme Retail"}, "tester")
	require.NoError(t, err)

	_, err = f.BuildReversal(item, original, "typo", "tester")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotCancellable, appErr.Code)
}

func TestArchivedItemRejectsMovements(t *testing.T) {
	f := NewFactory()
	item := testItem()
	item.Status = ItemStatusArchived

	_, err := f.BuildInbound(item, InboundRequest{ItemID: item.ID, Quantity: qty(1)}, "tester")
	require.Error(t, err)

	_, err = f.BuildOutbound(item, OutboundRequest{ItemID: item.ID, Quantity: qty(1)}, "tester")
	require.Error(t, err)
}
