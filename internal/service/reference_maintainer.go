package service

import (
	"context"
	"sync"

	"github.com/Comfy-team/comfy/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReferenceMaintainer keeps the product-id lists embedded in Brand and
// Category rows in step with each product's brand/category assignment.
//
// Every mutation is best-effort: it runs on its own goroutine, detached from
// the request context, and a failure is logged and dropped. Nothing is rolled
// back and nothing is retried, so a failed list edit leaves the back-reference
// stale until the next reassignment touches it. The response path never waits
// on these edits; Wait exists so shutdown and tests can drain them.
type ReferenceMaintainer struct {
	brands     repository.BrandRepository
	categories repository.CategoryRepository
	logger     *zap.Logger

	wg sync.WaitGroup
}

// NewReferenceMaintainer creates a new ReferenceMaintainer
func NewReferenceMaintainer(
	brands repository.BrandRepository,
	categories repository.CategoryRepository,
	logger *zap.Logger,
) *ReferenceMaintainer {
	return &ReferenceMaintainer{
		brands:     brands,
		categories: categories,
		logger:     logger,
	}
}

// OnCreate pushes a newly created product's id into its brand's and
// category's lists.
func (m *ReferenceMaintainer) OnCreate(productID, brandID, categoryID uuid.UUID) {
	m.fire("push product into brand", func(ctx context.Context) error {
		return m.brands.AddProduct(ctx, brandID, productID)
	})
	m.fire("push product into category", func(ctx context.Context) error {
		return m.categories.AddProduct(ctx, categoryID, productID)
	})
}

// OnUpdate diffs a product's stored brand/category assignment against the
// requested one, comparing ids as opaque identifiers. A changed brand moves
// the product id from the old brand's list to the new one; same for category.
// Unchanged assignments produce no list mutation.
func (m *ReferenceMaintainer) OnUpdate(productID, oldBrand, newBrand, oldCategory, newCategory uuid.UUID) {
	if newBrand != oldBrand {
		m.fire("pull product from old brand", func(ctx context.Context) error {
			return m.brands.RemoveProduct(ctx, oldBrand, productID)
		})
		m.fire("push product into new brand", func(ctx context.Context) error {
			return m.brands.AddProduct(ctx, newBrand, productID)
		})
	}
	if newCategory != oldCategory {
		m.fire("pull product from old category", func(ctx context.Context) error {
			return m.categories.RemoveProduct(ctx, oldCategory, productID)
		})
		m.fire("push product into new category", func(ctx context.Context) error {
			return m.categories.AddProduct(ctx, newCategory, productID)
		})
	}
}

// OnDelete pulls a deleted product's id from its brand's and category's lists.
func (m *ReferenceMaintainer) OnDelete(productID, brandID, categoryID uuid.UUID) {
	m.fire("pull product from brand", func(ctx context.Context) error {
		return m.brands.RemoveProduct(ctx, brandID, productID)
	})
	m.fire("pull product from category", func(ctx context.Context) error {
		return m.categories.RemoveProduct(ctx, categoryID, productID)
	})
}

// Wait blocks until all fired list mutations have finished. Called on
// shutdown so in-flight edits aren't cut off mid-write.
func (m *ReferenceMaintainer) Wait() {
	m.wg.Wait()
}

// fire runs one list mutation on its own goroutine. The request context is
// deliberately not propagated: the response may already be written when the
// mutation runs, and a canceled context would turn every edit into a no-op.
func (m *ReferenceMaintainer) fire(op string, fn func(ctx context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := fn(context.Background()); err != nil {
			m.logger.Error("Reference list mutation failed",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}()
}
