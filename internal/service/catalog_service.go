package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Comfy-team/comfy/internal/domain"
	"github.com/Comfy-team/comfy/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PageSize bounds records per paginated response.
	PageSize = 12

	// FilterAll is the sentinel filter value meaning "no constraint".
	FilterAll = "all"
)

// ListParams are the raw listing query parameters. Brand and Category hold the
// raw query values so the "all" sentinel and absence are handled here, not in
// the transport layer. A nil MaxPrice means the price filter was absent.
type ListParams struct {
	MaxPrice *float64
	Brand    string
	Category string
	Sort     int
	Page     int
}

// ListResult is the listing response. MinPrice and MaxPrice are derived from
// the filtered, unpaginated result set.
type ListResult struct {
	Data       []*domain.Product `json:"data"`
	TotalPages int               `json:"totalPages"`
	MinPrice   float64           `json:"minPrice"`
	MaxPrice   float64           `json:"maxPrice"`
}

// SearchResult is the search response. No price boundaries are computed for
// search results.
type SearchResult struct {
	Data       []*domain.ProductDetail `json:"data"`
	TotalPages int                     `json:"totalPages"`
}

// AddProductInput is the validated payload for product creation.
type AddProductInput struct {
	Name        string
	Description string
	Price       float64
	Discount    float64
	Stock       int
	Colors      []string
	BrandID     uuid.UUID
	CategoryID  uuid.UUID
}

// UpdateProductInput is the validated payload for a partial product update.
// Nil fields are left untouched.
type UpdateProductInput struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Price       *float64
	Discount    *float64
	Stock       *int
	Colors      []string
	BrandID     *uuid.UUID
	CategoryID  *uuid.UUID
}

// DeleteProductInput carries the ids needed to detach and delete a product.
// Brand and category come from the caller, not a lookup, matching the delete
// contract: list pulls use the ids the client supplied.
type DeleteProductInput struct {
	ID         uuid.UUID
	BrandID    uuid.UUID
	CategoryID uuid.UUID
}

// CatalogService is the product catalog: listing with filtering, sorting and
// pagination, point lookup with references resolved, naive search, and the
// mutations that drive the reference maintainer.
type CatalogService interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error)
	Search(ctx context.Context, query string, page int) (*SearchResult, error)
	Add(ctx context.Context, input AddProductInput, imagePaths []string) (*domain.Product, error)
	Update(ctx context.Context, input UpdateProductInput, imagePaths []string) (repository.UpdateResult, error)
	Delete(ctx context.Context, input DeleteProductInput) (repository.DeleteResult, error)
}

type catalogService struct {
	products repository.ProductRepository
	refs     *ReferenceMaintainer
	logger   *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	products repository.ProductRepository,
	refs *ReferenceMaintainer,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products: products,
		refs:     refs,
		logger:   logger,
	}
}

// List materializes the entire filtered (and optionally price-sorted) set,
// then slices out the requested page. Pagination is applied in memory to the
// already-sorted full result, trading memory for a single store round trip;
// the price boundaries need the full set anyway.
func (s *catalogService) List(ctx context.Context, params ListParams) (*ListResult, error) {
	filter, err := buildFilter(params)
	if err != nil {
		return nil, err
	}

	sort := repository.PriceSortNone
	switch params.Sort {
	case 1:
		sort = repository.PriceSortAsc
	case -1:
		sort = repository.PriceSortDesc
	}

	all, err := s.products.FindAll(ctx, filter, sort)
	if err != nil {
		return nil, err
	}

	pageData, totalPages := paginate(all, params.Page)

	result := &ListResult{
		Data:       pageData,
		TotalPages: totalPages,
	}

	// With an explicit sort the boundaries fall out of the sorted ends.
	// Otherwise two LIMIT 1 queries run against the same filter, independent
	// of pagination.
	switch {
	case sort == repository.PriceSortAsc && len(all) > 0:
		result.MinPrice = all[0].Price
		result.MaxPrice = all[len(all)-1].Price
	case sort == repository.PriceSortDesc && len(all) > 0:
		result.MaxPrice = all[0].Price
		result.MinPrice = all[len(all)-1].Price
	case sort == repository.PriceSortNone:
		minPrice, err := s.products.MinPrice(ctx, filter)
		if err != nil {
			return nil, err
		}
		maxPrice, err := s.products.MaxPrice(ctx, filter)
		if err != nil {
			return nil, err
		}
		result.MinPrice = minPrice
		result.MaxPrice = maxPrice
	}

	return result, nil
}

// GetByID looks up a product and resolves its brand and category references
// into full records.
func (s *catalogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	return s.products.FindByIDWithRefs(ctx, id)
}

// Search fetches every product with references resolved and keeps the ones
// whose name, brand name or category name contains the query, case
// insensitively. The query is matched literally, not as a pattern.
func (s *catalogService) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return nil, fmt.Errorf("failed to compile search pattern: %w", err)
	}

	all, err := s.products.FindAllWithRefs(ctx)
	if err != nil {
		return nil, err
	}

	matched := []*domain.ProductDetail{}
	for _, detail := range all {
		if re.MatchString(detail.Name) ||
			re.MatchString(detail.Category.Name) ||
			re.MatchString(detail.Brand.Name) {
			matched = append(matched, detail)
		}
	}

	pageData, totalPages := paginate(matched, page)

	return &SearchResult{
		Data:       pageData,
		TotalPages: totalPages,
	}, nil
}

// Add inserts the product, then fires the reference maintainer to push the
// new id into the owning brand's and category's lists. The pushes are not
// awaited; the created record is returned as soon as the insert lands.
func (s *catalogService) Add(ctx context.Context, input AddProductInput, imagePaths []string) (*domain.Product, error) {
	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Images:      imagesFromPaths(imagePaths),
		Colors:      dedupeColors(input.Colors),
		Discount:    input.Discount,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		BrandID:     input.BrandID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.refs.OnCreate(product.ID, product.BrandID, product.CategoryID)

	return product, nil
}

// Update reads the stored brand/category before applying changes so the
// reference maintainer can diff old against new, then applies a partial
// update of the provided fields. Images are replaced only when new files
// were uploaded.
func (s *catalogService) Update(ctx context.Context, input UpdateProductInput, imagePaths []string) (repository.UpdateResult, error) {
	stored, err := s.products.FindByID(ctx, input.ID)
	if err != nil {
		return repository.UpdateResult{}, err
	}

	newBrand := stored.BrandID
	if input.BrandID != nil {
		newBrand = *input.BrandID
	}
	newCategory := stored.CategoryID
	if input.CategoryID != nil {
		newCategory = *input.CategoryID
	}

	s.refs.OnUpdate(stored.ID, stored.BrandID, newBrand, stored.CategoryID, newCategory)

	update := repository.ProductUpdate{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Discount:    input.Discount,
		Stock:       input.Stock,
		Colors:      input.Colors,
		BrandID:     input.BrandID,
		CategoryID:  input.CategoryID,
	}
	if len(imagePaths) > 0 {
		update.Images = imagesFromPaths(imagePaths)
	}

	return s.products.UpdateFields(ctx, input.ID, update)
}

// Delete fires the list pulls without awaiting them and deletes the product
// record. The acknowledgment reflects the product delete only.
func (s *catalogService) Delete(ctx context.Context, input DeleteProductInput) (repository.DeleteResult, error) {
	s.refs.OnDelete(input.ID, input.BrandID, input.CategoryID)

	return s.products.Delete(ctx, input.ID)
}

// buildFilter translates raw query values into a store filter. A missing
// value or the "all" sentinel means no constraint on that field; a price of
// exactly zero likewise. Any other provided price constrains, negative
// included, so a negative ceiling matches nothing.
func buildFilter(params ListParams) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{}

	if params.MaxPrice != nil && *params.MaxPrice != 0 {
		filter.MaxPrice = params.MaxPrice
	}
	if params.Brand != "" && params.Brand != FilterAll {
		id, err := uuid.Parse(params.Brand)
		if err != nil {
			return filter, fmt.Errorf("invalid brand filter %q: %w", params.Brand, err)
		}
		filter.BrandID = &id
	}
	if params.Category != "" && params.Category != FilterAll {
		id, err := uuid.Parse(params.Category)
		if err != nil {
			return filter, fmt.Errorf("invalid category filter %q: %w", params.Category, err)
		}
		filter.CategoryID = &id
	}

	return filter, nil
}

// paginate slices one fixed-size page out of the materialized result set.
// Page numbers below 1 are treated as 1; a page past the end yields an empty
// slice. TotalPages is ceil(len/PageSize), 0 for an empty set.
func paginate[T any](all []T, page int) ([]T, int) {
	if page < 1 {
		page = 1
	}

	totalPages := (len(all) + PageSize - 1) / PageSize

	start := (page - 1) * PageSize
	if start >= len(all) {
		return []T{}, totalPages
	}

	end := start + PageSize
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], totalPages
}

func imagesFromPaths(paths []string) []domain.Image {
	images := make([]domain.Image, len(paths))
	for i, path := range paths {
		images[i] = domain.Image{Src: path}
	}
	return images
}

// dedupeColors collapses duplicates, keeping first occurrence.
func dedupeColors(colors []string) []string {
	seen := make(map[string]struct{}, len(colors))
	out := make([]string, 0, len(colors))
	for _, c := range colors {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
