package domain

import (
	"time"

	"github.com/google/uuid"
)

// Image is a single stored product image, referenced by its path on disk.
type Image struct {
	Src string `json:"src"`
}

// Product represents a catalog product. BrandID and CategoryID always point at
// existing Brand/Category rows; the back-reference lists on those rows are kept
// in step by the reference maintainer, not by the store.
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Images      []Image   `json:"images" db:"images"`
	Colors      []string  `json:"colors" db:"colors"`
	Discount    float64   `json:"discount" db:"discount"`
	Stock       int       `json:"stock" db:"stock"`
	CategoryID  uuid.UUID `json:"category" db:"category_id"`
	BrandID     uuid.UUID `json:"brand" db:"brand_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductDetail is a product with its brand and category references resolved
// to the full records.
type ProductDetail struct {
	Product
	Brand    *Brand    `json:"brand"`
	Category *Category `json:"category"`
}

// Brand represents a product brand. Products is the list of product ids
// currently assigned to this brand.
type Brand struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Name      string      `json:"name" db:"name"`
	Products  []uuid.UUID `json:"products" db:"products"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// Category represents a product category. ProductsID mirrors Brand.Products.
type Category struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	Name       string      `json:"name" db:"name"`
	ProductsID []uuid.UUID `json:"products_id" db:"products_id"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}
