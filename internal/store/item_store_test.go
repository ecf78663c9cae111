package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/units"
)

func TestItemStoreCreateWritesLedgerEntry(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	history := NewHistoryStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, "My fridge", fridge.Name)

	item := addItem(t, items, fridge.ID, nil, "Milk", 500, units.Milliliter, nil)
	assert.NotZero(t, item.ID)
	assert.Equal(t, 500.0, item.Quantity)
	assert.Equal(t, units.Milliliter, item.Unit)
	assert.True(t, item.Active())

	entries, err := history.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventAdded, entries[0].Kind)
	assert.Equal(t, 500.0, entries[0].Quantity)
}

func TestItemStoreListActiveByFridgeOrdersByID(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)

	a := addItem(t, items, fridge.ID, nil, "Rice", 2, units.Kilogram, nil)
	b := addItem(t, items, fridge.ID, nil, "Pasta", 500, units.Gram, nil)

	list, err := items.ListActiveByFridge(ctx, fridge.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestItemStoreListLotMembersByProduct(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	products := NewProductStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)
	product, err := products.Create(ctx, &domain.Product{Name: "Flour"})
	require.NoError(t, err)

	a := addItem(t, items, fridge.ID, &product.ID, "Flour", 500, units.Gram, nil)
	b := addItem(t, items, fridge.ID, &product.ID, "Flour", 1, units.Kilogram, nil)
	// Different expiry date: different lot.
	addItem(t, items, fridge.ID, &product.ID, "Flour", 1, units.Kilogram, testDate(2024, 6, 10))
	// Free-text row with the same label: different lot.
	addItem(t, items, fridge.ID, nil, "Flour", 100, units.Gram, nil)

	members, err := items.ListLotMembers(ctx, a)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, a.ID, members[0].ID)
	assert.Equal(t, b.ID, members[1].ID)
}

func TestItemStoreListLotMembersByLabel(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)

	a := addItem(t, items, fridge.ID, nil, "Leftover soup", 300, units.Milliliter, testDate(2024, 6, 10))
	b := addItem(t, items, fridge.ID, nil, "Leftover soup", 200, units.Milliliter, testDate(2024, 6, 10))
	addItem(t, items, fridge.ID, nil, "Leftover soup", 200, units.Milliliter, nil)

	members, err := items.ListLotMembers(ctx, a)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, []int64{a.ID, b.ID}, []int64{members[0].ID, members[1].ID})
}

func TestItemStoreApplyConsumption(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	history := NewHistoryStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)
	item := addItem(t, items, fridge.ID, nil, "Milk", 1000, units.Milliliter, nil)

	userID := int64(1)
	err = items.ApplyConsumption(ctx, []ConsumeOp{{
		ItemID: item.ID,
		Delta:  300,
		Entry: domain.HistoryEntry{
			ItemID:      item.ID,
			OperationID: "op-1",
			Kind:        domain.EventConsumed,
			Quantity:    300,
			Unit:        units.Milliliter,
			UserID:      &userID,
		},
	}})
	require.NoError(t, err)

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.InDelta(t, 700.0, got.Quantity, 1e-9)
	assert.True(t, got.Active())

	entries, err := history.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EventConsumed, entries[0].Kind)
}

func TestItemStoreApplyConsumptionSoftDeletes(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)
	item := addItem(t, items, fridge.ID, nil, "Milk", 500, units.Milliliter, nil)

	userID := int64(1)
	err = items.ApplyConsumption(ctx, []ConsumeOp{{
		ItemID:     item.ID,
		Delta:      500,
		SoftDelete: true,
		DeletedBy:  userID,
		Entry: domain.HistoryEntry{
			ItemID:      item.ID,
			OperationID: "op-1",
			Kind:        domain.EventConsumed,
			Quantity:    500,
			Unit:        units.Milliliter,
			UserID:      &userID,
		},
	}})
	require.NoError(t, err)

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())
	require.NotNil(t, got.DeletedBy)
	assert.Equal(t, userID, *got.DeletedBy)
	assert.Equal(t, 0.0, got.Quantity)

	list, err := items.ListActiveByFridge(ctx, fridge.ID)
	require.NoError(t, err)
	assert.Empty(t, list, "soft-deleted rows must leave the active set")
}

func TestItemStoreApplyConsumptionRollsBackOnStaleRow(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	history := NewHistoryStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)
	a := addItem(t, items, fridge.ID, nil, "Milk", 500, units.Milliliter, nil)
	b := addItem(t, items, fridge.ID, nil, "Milk", 500, units.Milliliter, nil)

	userID := int64(1)
	entry := func(id int64, qty float64) domain.HistoryEntry {
		return domain.HistoryEntry{
			ItemID: id, OperationID: "op-1", Kind: domain.EventConsumed,
			Quantity: qty, Unit: units.Milliliter, UserID: &userID,
		}
	}

	// Second op asks for more than the row holds: the guard fails, and the
	// first op's already-applied update must roll back with it.
	err = items.ApplyConsumption(ctx, []ConsumeOp{
		{ItemID: a.ID, Delta: 200, Entry: entry(a.ID, 200)},
		{ItemID: b.ID, Delta: 900, Entry: entry(b.ID, 900)},
	})
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)

	got, err := items.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, got.Quantity, "failed batch must not change any row")

	entries, err := history.ListByItem(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed batch must not leave ledger entries")
}

func TestItemStoreDiscard(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	history := NewHistoryStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)
	item := addItem(t, items, fridge.ID, nil, "Old cheese", 200, units.Gram, nil)

	userID := int64(1)
	op := DiscardOp{
		ItemID:    item.ID,
		DeletedBy: userID,
		Entry: domain.HistoryEntry{
			ItemID: item.ID, OperationID: "op-1", Kind: domain.EventDiscarded,
			Quantity: 200, Unit: units.Gram, UserID: &userID,
		},
	}

	require.NoError(t, items.Discard(ctx, []DiscardOp{op}))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.Active())
	assert.Equal(t, 200.0, got.Quantity, "discard keeps the quantity for the audit trail")

	entries, err := history.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EventDiscarded, entries[0].Kind)

	// Discarding again must fail, not double-log.
	err = items.Discard(ctx, []DiscardOp{op})
	assert.ErrorIs(t, err, domain.ErrAlreadyDeleted)

	entries, err = history.ListByItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestItemStoreCounts(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)

	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	addItem(t, items, fridge.ID, nil, "Fresh", 1, units.Piece, testDate(2024, 6, 20))
	addItem(t, items, fridge.ID, nil, "Tomorrow", 1, units.Piece, testDate(2024, 6, 11))
	addItem(t, items, fridge.ID, nil, "Expired", 1, units.Piece, testDate(2024, 6, 9))
	addItem(t, items, fridge.ID, nil, "No expiry", 1, units.Piece, nil)

	n, err := items.CountActiveByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = items.CountExpiringOn(ctx, 1, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = items.CountExpiredBefore(ctx, 1, today)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Another user sees nothing.
	n, err = items.CountActiveByOwner(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestItemStoreListActiveExpiring(t *testing.T) {
	d := openTestDB(t)
	fridges := NewFridgeStore(d)
	items := NewItemStore(d)
	ctx := context.Background()

	fridge, err := fridges.Create(ctx, 1, "")
	require.NoError(t, err)

	addItem(t, items, fridge.ID, nil, "Soon", 1, units.Piece, testDate(2024, 6, 12))
	addItem(t, items, fridge.ID, nil, "Later", 1, units.Piece, testDate(2024, 6, 13))
	addItem(t, items, fridge.ID, nil, "Never", 1, units.Piece, nil)

	cutoff := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	list, err := items.ListActiveExpiring(ctx, fridge.ID, cutoff)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Soon", list[0].Label)
}
