package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Comfy-team/comfy/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

// CategoryRepository defines the interface for category data access. The
// products_id list is mutated with the same single-statement semantics as
// BrandRepository's product list.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	AddProduct(ctx context.Context, categoryID, productID uuid.UUID) error
	RemoveProduct(ctx context.Context, categoryID, productID uuid.UUID) error
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category into the database using parameterized queries
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, products_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	products := category.ProductsID
	if products == nil {
		products = []uuid.UUID{}
	}

	_, err := r.db.ExecContext(ctx, query, category.ID, category.Name, uuidArray(products), category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// List retrieves all categories ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `
		SELECT id, name, array_to_json(products_id), created_at
		FROM categories
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, name, array_to_json(products_id), created_at
		FROM categories
		WHERE id = $1
	`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// AddProduct appends a product id to the category's product list
func (r *categoryRepository) AddProduct(ctx context.Context, categoryID, productID uuid.UUID) error {
	query := `UPDATE categories SET products_id = array_append(products_id, $2) WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, categoryID, productID)
	if err != nil {
		return fmt.Errorf("failed to add product to category: %w", err)
	}

	return nil
}

// RemoveProduct pulls a product id out of the category's product list
func (r *categoryRepository) RemoveProduct(ctx context.Context, categoryID, productID uuid.UUID) error {
	query := `UPDATE categories SET products_id = array_remove(products_id, $2) WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, categoryID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove product from category: %w", err)
	}

	return nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	category := &domain.Category{}
	var products []byte

	err := row.Scan(&category.ID, &category.Name, &products, &category.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(products, &category.ProductsID); err != nil {
		return nil, fmt.Errorf("failed to decode category products: %w", err)
	}

	return category, nil
}
