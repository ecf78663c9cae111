package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/units"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemColumns = `id, fridge_id, product_id, label, quantity, unit, expires_on, source,
	added_by, created_at, updated_at, deleted_at, deleted_by`

// Create inserts a new row and its "added" ledger entry in one transaction.
// The entry's ItemID is filled in from the new row.
func (s *ItemStore) Create(ctx context.Context, item *domain.Item, entry *domain.HistoryEntry) (*domain.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	defer rollback(tx)

	var expires any
	if item.ExpiresOn != nil {
		expires = item.ExpiresOn.Format(time.DateOnly)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO fridge_items (fridge_id, product_id, label, quantity, unit, expires_on, source, added_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.FridgeID, item.ProductID, item.Label, item.Quantity, string(item.Unit), expires,
		item.Source, item.AddedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ItemID = id
	if _, err := insertHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns the row whether or not it is soft-deleted, or nil.
func (s *ItemStore) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM fridge_items WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// ListActiveByFridge returns every active row of a fridge in ascending id
// order, the fixed order all allocation walks use.
func (s *ItemStore) ListActiveByFridge(ctx context.Context, fridgeID int64) ([]*domain.Item, error) {
	return s.list(ctx, `
		SELECT `+itemColumns+` FROM fridge_items
		WHERE fridge_id = ? AND deleted_at IS NULL ORDER BY id ASC
	`, fridgeID)
}

// ListLotMembers returns the active rows sharing ref's identity key within
// its fridge, ascending by id. Product rows match by product id, free-text
// rows by label; the expiry date must match exactly (both may be null).
func (s *ItemStore) ListLotMembers(ctx context.Context, ref *domain.Item) ([]*domain.Item, error) {
	query := `
		SELECT ` + itemColumns + ` FROM fridge_items
		WHERE fridge_id = ? AND deleted_at IS NULL AND `
	args := []any{ref.FridgeID}

	if ref.ProductID != nil {
		query += `product_id = ?`
		args = append(args, *ref.ProductID)
	} else {
		query += `product_id IS NULL AND label = ?`
		args = append(args, ref.Label)
	}

	if ref.ExpiresOn != nil {
		query += ` AND expires_on = ?`
		args = append(args, ref.ExpiresOn.Format(time.DateOnly))
	} else {
		query += ` AND expires_on IS NULL`
	}

	query += ` ORDER BY id ASC`
	return s.list(ctx, query, args...)
}

// ListActiveExpiring returns active rows with an expiry date on or before
// cutoff, ascending by id.
func (s *ItemStore) ListActiveExpiring(ctx context.Context, fridgeID int64, cutoff time.Time) ([]*domain.Item, error) {
	return s.list(ctx, `
		SELECT `+itemColumns+` FROM fridge_items
		WHERE fridge_id = ? AND deleted_at IS NULL
		  AND expires_on IS NOT NULL AND expires_on <= ?
		ORDER BY id ASC
	`, fridgeID, cutoff.Format(time.DateOnly))
}

// CountActiveByOwner counts the owner's active rows across their fridge.
func (s *ItemStore) CountActiveByOwner(ctx context.Context, ownerID int64) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(i.id) FROM fridge_items i
		JOIN fridges f ON f.id = i.fridge_id
		WHERE f.owner_id = ? AND f.deleted_at IS NULL AND i.deleted_at IS NULL
	`, ownerID)
}

// CountExpiringOn counts the owner's active rows expiring exactly on day.
func (s *ItemStore) CountExpiringOn(ctx context.Context, ownerID int64, day time.Time) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(i.id) FROM fridge_items i
		JOIN fridges f ON f.id = i.fridge_id
		WHERE f.owner_id = ? AND f.deleted_at IS NULL AND i.deleted_at IS NULL
		  AND i.expires_on = ?
	`, ownerID, day.Format(time.DateOnly))
}

// CountExpiredBefore counts the owner's active rows that expired before day.
func (s *ItemStore) CountExpiredBefore(ctx context.Context, ownerID int64, day time.Time) (int, error) {
	return s.count(ctx, `
		SELECT COUNT(i.id) FROM fridge_items i
		JOIN fridges f ON f.id = i.fridge_id
		WHERE f.owner_id = ? AND f.deleted_at IS NULL AND i.deleted_at IS NULL
		  AND i.expires_on IS NOT NULL AND i.expires_on < ?
	`, ownerID, day.Format(time.DateOnly))
}

// ConsumeOp is one row's share of a consumption: subtract Delta (in the
// row's native unit), soft-delete if the row is exhausted, and record the
// ledger entry. All ops of one call are applied atomically.
type ConsumeOp struct {
	ItemID     int64
	Delta      float64
	SoftDelete bool
	DeletedBy  int64
	Entry      domain.HistoryEntry
}

// ApplyConsumption applies every op in one transaction. Each UPDATE is
// guarded by the row still being active and holding at least Delta, so an
// allocation computed against rows a concurrent operation has since changed
// rolls back entirely instead of over-consuming.
func (s *ItemStore) ApplyConsumption(ctx context.Context, ops []ConsumeOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	defer rollback(tx)

	for _, op := range ops {
		var result sql.Result
		if op.SoftDelete {
			result, err = tx.ExecContext(ctx, `
				UPDATE fridge_items
				SET quantity = max(quantity - ?, 0),
				    deleted_at = datetime('now'),
				    deleted_by = ?,
				    updated_at = datetime('now')
				WHERE id = ? AND deleted_at IS NULL AND quantity + 0.001 >= ?
			`, op.Delta, op.DeletedBy, op.ItemID, op.Delta)
		} else {
			result, err = tx.ExecContext(ctx, `
				UPDATE fridge_items
				SET quantity = max(quantity - ?, 0),
				    updated_at = datetime('now')
				WHERE id = ? AND deleted_at IS NULL AND quantity + 0.001 >= ?
			`, op.Delta, op.ItemID, op.Delta)
		}
		if err != nil {
			return fmt.Errorf("failed to update item %d: %w", op.ItemID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			// Row changed under us since the plan was computed.
			return fmt.Errorf("item %d was modified concurrently: %w", op.ItemID, domain.ErrTransactionFailed)
		}

		if _, err := insertHistory(ctx, tx, &op.Entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}

// DiscardOp soft-deletes one row and records its ledger entry.
type DiscardOp struct {
	ItemID    int64
	DeletedBy int64
	Entry     domain.HistoryEntry
}

// Discard soft-deletes every row in one transaction. A row that is already
// deleted fails the whole batch with ErrAlreadyDeleted so nothing is
// double-logged.
func (s *ItemStore) Discard(ctx context.Context, ops []DiscardOp) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	defer rollback(tx)

	for _, op := range ops {
		result, err := tx.ExecContext(ctx, `
			UPDATE fridge_items
			SET deleted_at = datetime('now'),
			    deleted_by = ?,
			    updated_at = datetime('now')
			WHERE id = ? AND deleted_at IS NULL
		`, op.DeletedBy, op.ItemID)
		if err != nil {
			return fmt.Errorf("failed to discard item %d: %w", op.ItemID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("item %d: %w", op.ItemID, domain.ErrAlreadyDeleted)
		}

		if _, err := insertHistory(ctx, tx, &op.Entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	return nil
}

func (s *ItemStore) list(ctx context.Context, query string, args ...any) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (s *ItemStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	var productID, addedBy, deletedBy sql.NullInt64
	var unit string
	var expires sql.NullString
	var deletedAt sql.NullTime

	err := r.Scan(&item.ID, &item.FridgeID, &productID, &item.Label, &item.Quantity, &unit,
		&expires, &item.Source, &addedBy, &item.CreatedAt, &item.UpdatedAt, &deletedAt, &deletedBy)
	if err != nil {
		return nil, err
	}

	item.Unit = units.Unit(unit)
	if productID.Valid {
		item.ProductID = &productID.Int64
	}
	if addedBy.Valid {
		item.AddedBy = &addedBy.Int64
	}
	if expires.Valid {
		d, err := time.Parse(time.DateOnly, expires.String)
		if err != nil {
			return nil, fmt.Errorf("bad expiry date %q: %w", expires.String, err)
		}
		item.ExpiresOn = &d
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	if deletedBy.Valid {
		item.DeletedBy = &deletedBy.Int64
	}
	return item, nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("failed to roll back transaction", "error", err)
	}
}
