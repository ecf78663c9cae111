package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akowalska/fridgetrack/internal/db"
	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/units"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func testDate(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// addItem inserts a row together with its "added" ledger entry.
func addItem(t *testing.T, items *ItemStore, fridgeID int64, productID *int64, label string,
	qty float64, unit units.Unit, expires *time.Time) *domain.Item {
	t.Helper()
	userID := int64(1)
	item, err := items.Create(context.Background(), &domain.Item{
		FridgeID:  fridgeID,
		ProductID: productID,
		Label:     label,
		Quantity:  qty,
		Unit:      unit,
		ExpiresOn: expires,
		Source:    "manual",
		AddedBy:   &userID,
	}, &domain.HistoryEntry{
		OperationID: "op-add",
		Kind:        domain.EventAdded,
		Quantity:    qty,
		Unit:        unit,
		Comment:     "Item added",
		UserID:      &userID,
	})
	require.NoError(t, err)
	return item
}
