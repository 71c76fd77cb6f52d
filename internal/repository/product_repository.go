package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Comfy-team/comfy/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product isn't found")
)

// PriceSort is the requested price ordering for a listing query.
type PriceSort int

const (
	PriceSortNone PriceSort = 0
	PriceSortAsc  PriceSort = 1
	PriceSortDesc PriceSort = -1
)

// ProductFilter narrows a listing query. Nil fields mean no constraint; a set
// MaxPrice keeps only rows with price at or below it.
type ProductFilter struct {
	MaxPrice   *float64
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
}

// ProductUpdate carries a partial update. Nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Discount    *float64
	Stock       *int
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
	Images      []domain.Image
	Colors      []string
}

// UpdateResult is the store's acknowledgment of a partial update.
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// DeleteResult is the store's acknowledgment of a delete.
type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	UpdateFields(ctx context.Context, id uuid.UUID, update ProductUpdate) (UpdateResult, error)
	Delete(ctx context.Context, id uuid.UUID) (DeleteResult, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByIDWithRefs(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error)
	FindAll(ctx context.Context, filter ProductFilter, sort PriceSort) ([]*domain.Product, error)
	FindAllWithRefs(ctx context.Context) ([]*domain.ProductDetail, error)
	MinPrice(ctx context.Context, filter ProductFilter) (float64, error)
	MaxPrice(ctx context.Context, filter ProductFilter) (float64, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = "id, name, description, price, images, colors, discount, stock, category_id, brand_id, created_at, updated_at"

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, images, colors, discount, stock, category_id, brand_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	images, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}
	colors, err := json.Marshal(product.Colors)
	if err != nil {
		return fmt.Errorf("failed to encode colors: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		images,
		colors,
		product.Discount,
		product.Stock,
		product.CategoryID,
		product.BrandID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// UpdateFields applies a partial update, setting only the provided fields.
// A zero Matched count is reported, not treated as an error, mirroring the
// store-level acknowledgment contract.
func (r *productRepository) UpdateFields(ctx context.Context, id uuid.UUID, update ProductUpdate) (UpdateResult, error) {
	sets := []string{}
	args := []interface{}{id}
	argIndex := 2

	addSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if update.Name != nil {
		addSet("name", *update.Name)
	}
	if update.Description != nil {
		addSet("description", *update.Description)
	}
	if update.Price != nil {
		addSet("price", *update.Price)
	}
	if update.Discount != nil {
		addSet("discount", *update.Discount)
	}
	if update.Stock != nil {
		addSet("stock", *update.Stock)
	}
	if update.CategoryID != nil {
		addSet("category_id", *update.CategoryID)
	}
	if update.BrandID != nil {
		addSet("brand_id", *update.BrandID)
	}
	if update.Images != nil {
		images, err := json.Marshal(update.Images)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("failed to encode images: %w", err)
		}
		addSet("images", images)
	}
	if update.Colors != nil {
		colors, err := json.Marshal(update.Colors)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("failed to encode colors: %w", err)
		}
		addSet("colors", colors)
	}

	if len(sets) == 0 {
		return UpdateResult{}, nil
	}

	addSet("updated_at", time.Now())

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $1", strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return UpdateResult{Matched: rowsAffected, Modified: rowsAffected}, nil
}

// Delete removes a product. Deleting a missing product is not an error;
// the acknowledgment carries a zero count.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return DeleteResult{Deleted: rowsAffected}, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByIDWithRefs retrieves a product with its brand and category resolved
// into full records.
func (r *productRepository) FindByIDWithRefs(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.images, p.colors, p.discount, p.stock,
		       p.category_id, p.brand_id, p.created_at, p.updated_at,
		       b.id, b.name, array_to_json(b.products), b.created_at,
		       c.id, c.name, array_to_json(c.products_id), c.created_at
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`

	detail, err := scanProductDetail(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return detail, nil
}

// FindAll retrieves every product matching the filter, optionally ordered by
// price. The whole matching set is materialized; pagination happens upstream.
func (r *productRepository) FindAll(ctx context.Context, filter ProductFilter, sort PriceSort) ([]*domain.Product, error) {
	whereClause, args := buildProductWhere(filter)

	orderClause := ""
	switch sort {
	case PriceSortAsc:
		orderClause = "ORDER BY price ASC"
	case PriceSortDesc:
		orderClause = "ORDER BY price DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s %s`, productColumns, whereClause, orderClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// FindAllWithRefs retrieves every product with brand and category resolved,
// in the store's natural order. Used by the search path.
func (r *productRepository) FindAllWithRefs(ctx context.Context) ([]*domain.ProductDetail, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.images, p.colors, p.discount, p.stock,
		       p.category_id, p.brand_id, p.created_at, p.updated_at,
		       b.id, b.name, array_to_json(b.products), b.created_at,
		       c.id, c.name, array_to_json(c.products_id), c.created_at
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		JOIN categories c ON c.id = p.category_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	details := []*domain.ProductDetail{}
	for rows.Next() {
		detail, err := scanProductDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		details = append(details, detail)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return details, nil
}

// MinPrice returns the lowest price among products matching the filter,
// or 0 when nothing matches.
func (r *productRepository) MinPrice(ctx context.Context, filter ProductFilter) (float64, error) {
	return r.boundaryPrice(ctx, filter, "ASC")
}

// MaxPrice returns the highest price among products matching the filter,
// or 0 when nothing matches.
func (r *productRepository) MaxPrice(ctx context.Context, filter ProductFilter) (float64, error) {
	return r.boundaryPrice(ctx, filter, "DESC")
}

func (r *productRepository) boundaryPrice(ctx context.Context, filter ProductFilter, direction string) (float64, error) {
	whereClause, args := buildProductWhere(filter)

	query := fmt.Sprintf(`SELECT price FROM products %s ORDER BY price %s LIMIT 1`, whereClause, direction)

	var price float64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query boundary price: %w", err)
	}

	return price, nil
}

// buildProductWhere translates a ProductFilter into a WHERE clause with
// positional args. An empty filter produces no clause.
func buildProductWhere(filter ProductFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= $"+strconv.Itoa(argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if filter.BrandID != nil {
		conditions = append(conditions, "brand_id = $"+strconv.Itoa(argIndex))
		args = append(args, *filter.BrandID)
		argIndex++
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, "category_id = $"+strconv.Itoa(argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var images, colors []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&images,
		&colors,
		&product.Discount,
		&product.Stock,
		&product.CategoryID,
		&product.BrandID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(colors, &product.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode colors: %w", err)
	}

	return product, nil
}

func scanProductDetail(row rowScanner) (*domain.ProductDetail, error) {
	detail := &domain.ProductDetail{
		Brand:    &domain.Brand{},
		Category: &domain.Category{},
	}
	var images, colors, brandProducts, categoryProducts []byte

	err := row.Scan(
		&detail.ID,
		&detail.Name,
		&detail.Description,
		&detail.Price,
		&images,
		&colors,
		&detail.Discount,
		&detail.Stock,
		&detail.CategoryID,
		&detail.BrandID,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.Brand.ID,
		&detail.Brand.Name,
		&brandProducts,
		&detail.Brand.CreatedAt,
		&detail.Category.ID,
		&detail.Category.Name,
		&categoryProducts,
		&detail.Category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &detail.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(colors, &detail.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode colors: %w", err)
	}
	if err := json.Unmarshal(brandProducts, &detail.Brand.Products); err != nil {
		return nil, fmt.Errorf("failed to decode brand products: %w", err)
	}
	if err := json.Unmarshal(categoryProducts, &detail.Category.ProductsID); err != nil {
		return nil, fmt.Errorf("failed to decode category products: %w", err)
	}

	return detail, nil
}
