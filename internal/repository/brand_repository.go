package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Comfy-team/comfy/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBrandNotFound      = errors.New("brand not found")
	ErrBrandAlreadyExists = errors.New("brand with this name already exists")
)

// BrandRepository defines the interface for brand data access. AddProduct and
// RemoveProduct mutate the brand's product-id list in a single statement, so
// each list edit is atomic on its own even though nothing coordinates it with
// the product write it accompanies.
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	List(ctx context.Context) ([]*domain.Brand, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
	AddProduct(ctx context.Context, brandID, productID uuid.UUID) error
	RemoveProduct(ctx context.Context, brandID, productID uuid.UUID) error
}

type brandRepository struct {
	db *sql.DB
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db *sql.DB) BrandRepository {
	return &brandRepository{db: db}
}

// Create inserts a new brand into the database using parameterized queries
func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (id, name, products, created_at)
		VALUES ($1, $2, $3, $4)
	`

	products := brand.Products
	if products == nil {
		products = []uuid.UUID{}
	}

	_, err := r.db.ExecContext(ctx, query, brand.ID, brand.Name, uuidArray(products), brand.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to create brand: %w", err)
	}

	return nil
}

// List retrieves all brands ordered by name
func (r *brandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	query := `
		SELECT id, name, array_to_json(products), created_at
		FROM brands
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*domain.Brand{}
	for rows.Next() {
		brand, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	return brands, nil
}

// FindByID retrieves a brand by ID using parameterized queries
func (r *brandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query := `
		SELECT id, name, array_to_json(products), created_at
		FROM brands
		WHERE id = $1
	`

	brand, err := scanBrand(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand by ID: %w", err)
	}

	return brand, nil
}

// AddProduct appends a product id to the brand's product list
func (r *brandRepository) AddProduct(ctx context.Context, brandID, productID uuid.UUID) error {
	query := `UPDATE brands SET products = array_append(products, $2) WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, brandID, productID)
	if err != nil {
		return fmt.Errorf("failed to add product to brand: %w", err)
	}

	return nil
}

// RemoveProduct pulls a product id out of the brand's product list
func (r *brandRepository) RemoveProduct(ctx context.Context, brandID, productID uuid.UUID) error {
	query := `UPDATE brands SET products = array_remove(products, $2) WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, brandID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove product from brand: %w", err)
	}

	return nil
}

func scanBrand(row rowScanner) (*domain.Brand, error) {
	brand := &domain.Brand{}
	var products []byte

	err := row.Scan(&brand.ID, &brand.Name, &products, &brand.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(products, &brand.Products); err != nil {
		return nil, fmt.Errorf("failed to decode brand products: %w", err)
	}

	return brand, nil
}

// uuidArray renders ids as a Postgres array literal, which the pgx stdlib
// driver accepts as a text parameter for UUID[] columns.
func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// rejection (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
