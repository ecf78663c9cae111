// Package lots derives the logical grouping a user sees from the raw rows
// the fridge actually stores. A lot is every active row sharing one identity
// key; its total is always recomputed from the rows, never cached.
package lots

import (
	"fmt"
	"sort"
	"time"

	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/units"
)

// Key identifies a lot. Rows with a product group by product id; free-text
// rows group by label. The expiry date is always part of the key, so the
// same product bought twice with different dates stays two lots.
type Key struct {
	ProductID int64  // 0 when the row has no catalog product
	Label     string // grouping label, only set when ProductID is 0
	ExpiresOn string // time.DateOnly, "" when the row has no expiry
}

// KeyOf computes the identity key of a row.
func KeyOf(item *domain.Item) Key {
	k := Key{}
	if item.ProductID != nil {
		k.ProductID = *item.ProductID
	} else {
		k.Label = item.Label
	}
	if item.ExpiresOn != nil {
		k.ExpiresOn = item.ExpiresOn.Format(time.DateOnly)
	}
	return k
}

// Lot is a derived, never-persisted view over one identity key's active rows.
type Lot struct {
	Key            Key
	Family         units.Family
	BaseTotal      int64
	Representative int64   // lowest member row id
	MemberIDs      []int64 // ascending
	ProductID      *int64
	Label          string
	ExpiresOn      *time.Time
	FirstAdded     time.Time
	LastAdded      time.Time
}

// Group partitions active rows into lots. Soft-deleted rows are skipped.
// Rows of different unit families under one key cannot be summed and make
// the whole call fail; insertion-time validation should have prevented them.
func Group(items []*domain.Item) ([]Lot, error) {
	byKey := make(map[Key]*Lot)

	for _, item := range items {
		if !item.Active() {
			continue
		}

		base, family, err := units.ToBase(item.Quantity, item.Unit)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", item.ID, err)
		}

		key := KeyOf(item)
		lot, ok := byKey[key]
		if !ok {
			lot = &Lot{
				Key:        key,
				Family:     family,
				ProductID:  item.ProductID,
				Label:      item.Label,
				ExpiresOn:  item.ExpiresOn,
				FirstAdded: item.CreatedAt,
				LastAdded:  item.CreatedAt,
			}
			byKey[key] = lot
		}
		if lot.Family != family {
			return nil, fmt.Errorf("row %d is %s but its lot is %s: %w",
				item.ID, family, lot.Family, domain.ErrUnitConflict)
		}

		lot.BaseTotal += base
		lot.MemberIDs = append(lot.MemberIDs, item.ID)
		if item.CreatedAt.Before(lot.FirstAdded) {
			lot.FirstAdded = item.CreatedAt
		}
		if item.CreatedAt.After(lot.LastAdded) {
			lot.LastAdded = item.CreatedAt
		}
	}

	result := make([]Lot, 0, len(byKey))
	for _, lot := range byKey {
		sort.Slice(lot.MemberIDs, func(i, j int) bool { return lot.MemberIDs[i] < lot.MemberIDs[j] })
		lot.Representative = lot.MemberIDs[0]
		result = append(result, *lot)
	}

	// Map order is random; give callers something stable.
	sort.Slice(result, func(i, j int) bool { return result[i].Representative < result[j].Representative })
	return result, nil
}

// SameLot reports whether two rows belong to the same lot (null-aware key
// equality, same as the grouping above).
func SameLot(a, b *domain.Item) bool {
	return a.FridgeID == b.FridgeID && KeyOf(a) == KeyOf(b)
}
