package service

import (
	"context"
	"sort"
	"sync"

	"github.com/Comfy-team/comfy/internal/domain"
	"github.com/Comfy-team/comfy/internal/repository"

	"github.com/google/uuid"
)

// fakeProductRepo is an in-memory ProductRepository. Insertion order is
// preserved so unsorted listings are deterministic.
type fakeProductRepo struct {
	mu       sync.Mutex
	order    []uuid.UUID
	products map[uuid.UUID]*domain.Product

	// reference records for the WithRefs lookups
	brands     map[uuid.UUID]*domain.Brand
	categories map[uuid.UUID]*domain.Category
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:   make(map[uuid.UUID]*domain.Product),
		brands:     make(map[uuid.UUID]*domain.Brand),
		categories: make(map[uuid.UUID]*domain.Category),
	}
}

func (r *fakeProductRepo) addBrand(b *domain.Brand)       { r.brands[b.ID] = b }
func (r *fakeProductRepo) addCategory(c *domain.Category) { r.categories[c.ID] = c }

func (r *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *product
	r.products[product.ID] = &copied
	r.order = append(r.order, product.ID)
	return nil
}

func (r *fakeProductRepo) UpdateFields(ctx context.Context, id uuid.UUID, update repository.ProductUpdate) (repository.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.UpdateResult{}, nil
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Discount != nil {
		p.Discount = *update.Discount
	}
	if update.Stock != nil {
		p.Stock = *update.Stock
	}
	if update.BrandID != nil {
		p.BrandID = *update.BrandID
	}
	if update.CategoryID != nil {
		p.CategoryID = *update.CategoryID
	}
	if update.Images != nil {
		p.Images = update.Images
	}
	if update.Colors != nil {
		p.Colors = update.Colors
	}
	return repository.UpdateResult{Matched: 1, Modified: 1}, nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) (repository.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.DeleteResult{Deleted: 0}, nil
	}
	delete(r.products, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return repository.DeleteResult{Deleted: 1}, nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) FindByIDWithRefs(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.resolve(p), nil
}

func (r *fakeProductRepo) FindAll(ctx context.Context, filter repository.ProductFilter, sortOrder repository.PriceSort) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.Product{}
	for _, id := range r.order {
		p := r.products[id]
		if matchesFilter(p, filter) {
			copied := *p
			out = append(out, &copied)
		}
	}

	switch sortOrder {
	case repository.PriceSortAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case repository.PriceSortDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}

	return out, nil
}

func (r *fakeProductRepo) FindAllWithRefs(ctx context.Context) ([]*domain.ProductDetail, error) {
	all, err := r.FindAll(ctx, repository.ProductFilter{}, repository.PriceSortNone)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ProductDetail, len(all))
	for i, p := range all {
		out[i] = r.resolve(p)
	}
	return out, nil
}

func (r *fakeProductRepo) MinPrice(ctx context.Context, filter repository.ProductFilter) (float64, error) {
	return r.boundary(filter, func(candidate, best float64) bool { return candidate < best })
}

func (r *fakeProductRepo) MaxPrice(ctx context.Context, filter repository.ProductFilter) (float64, error) {
	return r.boundary(filter, func(candidate, best float64) bool { return candidate > best })
}

func (r *fakeProductRepo) boundary(filter repository.ProductFilter, better func(candidate, best float64) bool) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	best := 0.0
	for _, p := range r.products {
		if !matchesFilter(p, filter) {
			continue
		}
		if !found || better(p.Price, best) {
			best = p.Price
			found = true
		}
	}
	return best, nil
}

func (r *fakeProductRepo) resolve(p *domain.Product) *domain.ProductDetail {
	detail := &domain.ProductDetail{Product: *p}
	if b, ok := r.brands[p.BrandID]; ok {
		detail.Brand = b
	} else {
		detail.Brand = &domain.Brand{ID: p.BrandID}
	}
	if c, ok := r.categories[p.CategoryID]; ok {
		detail.Category = c
	} else {
		detail.Category = &domain.Category{ID: p.CategoryID}
	}
	return detail
}

func matchesFilter(p *domain.Product, filter repository.ProductFilter) bool {
	if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
		return false
	}
	if filter.BrandID != nil && p.BrandID != *filter.BrandID {
		return false
	}
	if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
		return false
	}
	return true
}

// fakeListRepo backs both BrandRepository and CategoryRepository in tests:
// the two differ only in which entity owns the product-id list.
type fakeListRepo struct {
	mu    sync.Mutex
	lists map[uuid.UUID][]uuid.UUID
}

func (r *fakeListRepo) productIDs(ownerID uuid.UUID) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.lists[ownerID]
	out := make([]uuid.UUID, len(ids))
	copy(out, ids)
	return out
}

func (r *fakeListRepo) AddProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[ownerID] = append(r.lists[ownerID], productID)
	return nil
}

func (r *fakeListRepo) RemoveProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.lists[ownerID][:0]
	for _, id := range r.lists[ownerID] {
		if id != productID {
			kept = append(kept, id)
		}
	}
	r.lists[ownerID] = kept
	return nil
}

type fakeBrandRepo struct {
	fakeListRepo
}

func newFakeBrandRepo() *fakeBrandRepo {
	return &fakeBrandRepo{fakeListRepo: fakeListRepo{lists: make(map[uuid.UUID][]uuid.UUID)}}
}

func (r *fakeBrandRepo) Create(ctx context.Context, brand *domain.Brand) error { return nil }
func (r *fakeBrandRepo) List(ctx context.Context) ([]*domain.Brand, error)     { return nil, nil }
func (r *fakeBrandRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	return &domain.Brand{ID: id, Products: r.productIDs(id)}, nil
}

type fakeCategoryRepo struct {
	fakeListRepo
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{fakeListRepo: fakeListRepo{lists: make(map[uuid.UUID][]uuid.UUID)}}
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error { return nil }
func (r *fakeCategoryRepo) List(ctx context.Context) ([]*domain.Category, error)        { return nil, nil }
func (r *fakeCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return &domain.Category{ID: id, ProductsID: r.productIDs(id)}, nil
}
