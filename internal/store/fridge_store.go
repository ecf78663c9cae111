package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akowalska/fridgetrack/internal/domain"
)

type FridgeStore struct {
	db *sql.DB
}

func NewFridgeStore(db *sql.DB) *FridgeStore {
	return &FridgeStore{db: db}
}

func (s *FridgeStore) Create(ctx context.Context, ownerID int64, name string) (*domain.Fridge, error) {
	if name == "" {
		name = "My fridge"
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO fridges (name, owner_id) VALUES (?, ?)
	`, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create fridge: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *FridgeStore) GetByID(ctx context.Context, id int64) (*domain.Fridge, error) {
	return s.get(ctx, `
		SELECT id, name, owner_id, created_at, updated_at, deleted_at, deleted_by
		FROM fridges WHERE id = ?
	`, id)
}

// GetActiveByOwner returns the owner's fridge, or nil when they have none.
// A user without a fridge simply has an empty inventory, never an error.
func (s *FridgeStore) GetActiveByOwner(ctx context.Context, ownerID int64) (*domain.Fridge, error) {
	return s.get(ctx, `
		SELECT id, name, owner_id, created_at, updated_at, deleted_at, deleted_by
		FROM fridges WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY id LIMIT 1
	`, ownerID)
}

func (s *FridgeStore) get(ctx context.Context, query string, args ...any) (*domain.Fridge, error) {
	f := &domain.Fridge{}
	var deletedAt sql.NullTime
	var deletedBy sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt, &f.UpdatedAt, &deletedAt, &deletedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fridge: %w", err)
	}

	if deletedAt.Valid {
		f.DeletedAt = &deletedAt.Time
	}
	if deletedBy.Valid {
		f.DeletedBy = &deletedBy.Int64
	}
	return f, nil
}
