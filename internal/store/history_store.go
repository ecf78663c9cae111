package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/units"
)

// HistoryStore is the append-only ledger of quantity-changing events. There
// is deliberately no update or delete here: entries are written once, inside
// the transaction that changed the rows they describe.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// execer is satisfied by both *sql.DB and *sql.Tx so history inserts can
// join the row-mutating transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertHistory(ctx context.Context, ex execer, e *domain.HistoryEntry) (int64, error) {
	result, err := ex.ExecContext(ctx, `
		INSERT INTO item_history (item_id, operation_id, kind, quantity, unit, comment, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ItemID, e.OperationID, string(e.Kind), e.Quantity, string(e.Unit), e.Comment, e.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to append history entry: %w", err)
	}
	return result.LastInsertId()
}

// Append writes one entry outside any caller transaction.
func (s *HistoryStore) Append(ctx context.Context, e *domain.HistoryEntry) (int64, error) {
	return insertHistory(ctx, s.db, e)
}

const historyColumns = `id, item_id, operation_id, kind, quantity, unit, comment, user_id, created_at`

// ListByItem returns the item's entries, most recent first.
func (s *HistoryStore) ListByItem(ctx context.Context, itemID int64) ([]*domain.HistoryEntry, error) {
	return s.list(ctx, `
		SELECT `+historyColumns+` FROM item_history
		WHERE item_id = ? ORDER BY created_at DESC, id DESC
	`, itemID)
}

// ListByUser returns every entry the user produced, most recent first.
func (s *HistoryStore) ListByUser(ctx context.Context, userID int64) ([]*domain.HistoryEntry, error) {
	return s.list(ctx, `
		SELECT `+historyColumns+` FROM item_history
		WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
}

// LastByUser returns the user's most recent entry, or nil when they have none.
func (s *HistoryStore) LastByUser(ctx context.Context, userID int64) (*domain.HistoryEntry, error) {
	entries, err := s.list(ctx, `
		SELECT `+historyColumns+` FROM item_history
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1
	`, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (s *HistoryStore) list(ctx context.Context, query string, args ...any) ([]*domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var entries []*domain.HistoryEntry
	for rows.Next() {
		e := &domain.HistoryEntry{}
		var kind, unit string
		var userID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.ItemID, &e.OperationID, &kind, &e.Quantity, &unit,
			&e.Comment, &userID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		e.Unit = units.Unit(unit)
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return entries, nil
}
