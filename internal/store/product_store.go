package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akowalska/fridgetrack/internal/domain"
	"github.com/akowalska/fridgetrack/internal/units"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, name, brand, category, barcode, default_unit, grams_per_piece,
	created_at, updated_at, deleted_at`

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.DefaultUnit == "" {
		p.DefaultUnit = units.Gram
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (name, brand, category, barcode, default_unit, grams_per_piece)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Name, p.Brand, p.Category, p.Barcode, string(p.DefaultUnit), p.GramsPerPiece)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
}

// FindByBarcode returns the active product with the given barcode, or nil.
func (s *ProductStore) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	if barcode == "" {
		return nil, nil
	}
	return s.get(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE barcode = ? AND deleted_at IS NULL ORDER BY id LIMIT 1
	`, barcode)
}

// FindByName returns the active product with the exact name, or nil.
func (s *ProductStore) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.get(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE name = ? AND deleted_at IS NULL ORDER BY id LIMIT 1
	`, name)
}

func (s *ProductStore) get(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	p := &domain.Product{}
	var unit string
	var gramsPerPiece sql.NullFloat64
	var deletedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.Barcode, &unit, &gramsPerPiece,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	p.DefaultUnit = units.Unit(unit)
	if gramsPerPiece.Valid {
		p.GramsPerPiece = &gramsPerPiece.Float64
	}
	if deletedAt.Valid {
		p.DeletedAt = &deletedAt.Time
	}
	return p, nil
}
