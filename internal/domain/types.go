package domain

import (
	"time"

	"github.com/akowalska/fridgetrack/internal/units"
)

// Fridge is one user's container of inventory rows.
type Fridge struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	DeletedBy *int64
}

// Product is a catalog entry. It only enriches display names; it never
// participates in quantity arithmetic.
type Product struct {
	ID            int64
	Name          string
	Brand         string
	Category      string
	Barcode       string
	DefaultUnit   units.Unit
	GramsPerPiece *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Item is one physical inventory row: its own quantity, its own unit, its
// own expiry date. Rows are soft-deleted, never removed, so history entries
// always have something to point at.
type Item struct {
	ID        int64
	FridgeID  int64
	ProductID *int64
	Label     string
	Quantity  float64
	Unit      units.Unit
	ExpiresOn *time.Time // calendar date, no time component
	Source    string     // how the row was added, e.g. "manual"
	AddedBy   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	DeletedBy *int64
}

// Active reports whether the row still counts toward its lot.
func (i *Item) Active() bool { return i.DeletedAt == nil }

// EventKind classifies a quantity-changing event in the history ledger.
type EventKind string

const (
	EventAdded     EventKind = "added"
	EventConsumed  EventKind = "consumed"
	EventDiscarded EventKind = "discarded"
)

// HistoryEntry is one immutable ledger record: what happened to one row, by
// how much, in the row's own unit. Entries written by a single operation
// share an OperationID.
type HistoryEntry struct {
	ID          int64
	ItemID      int64
	OperationID string
	Kind        EventKind
	Quantity    float64
	Unit        units.Unit
	Comment     string
	UserID      *int64
	CreatedAt   time.Time
}
