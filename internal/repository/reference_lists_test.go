package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Comfy-team/comfy/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandCreateAndFind(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewBrandRepository(testDB)
	ctx := context.Background()

	seed := uuid.New()
	brand := &domain.Brand{
		ID:        uuid.New(),
		Name:      "Oakline",
		Products:  []uuid.UUID{seed},
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, brand))

	got, err := repo.FindByID(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oakline", got.Name)
	assert.Equal(t, []uuid.UUID{seed}, got.Products)
}

func TestBrandCreateDuplicateName(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewBrandRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Brand{
		ID: uuid.New(), Name: "Twice", CreatedAt: time.Now(),
	}))

	err := repo.Create(ctx, &domain.Brand{
		ID: uuid.New(), Name: "Twice", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrBrandAlreadyExists)
}

func TestBrandFindByIDMissing(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewBrandRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBrandNotFound)
}

func TestBrandListOrderedByName(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewBrandRepository(testDB)
	ctx := context.Background()

	for _, name := range []string{"Zephyr", "Alder", "Maple"} {
		require.NoError(t, repo.Create(ctx, &domain.Brand{
			ID: uuid.New(), Name: name, CreatedAt: time.Now(),
		}))
	}

	brands, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 3)
	assert.Equal(t, "Alder", brands[0].Name)
	assert.Equal(t, "Maple", brands[1].Name)
	assert.Equal(t, "Zephyr", brands[2].Name)
}

func TestBrandProductListMutation(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewBrandRepository(testDB)
	ctx := context.Background()

	brand := &domain.Brand{ID: uuid.New(), Name: "ListBrand", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, brand))

	first := uuid.New()
	second := uuid.New()
	require.NoError(t, repo.AddProduct(ctx, brand.ID, first))
	require.NoError(t, repo.AddProduct(ctx, brand.ID, second))

	got, err := repo.FindByID(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, got.Products)

	require.NoError(t, repo.RemoveProduct(ctx, brand.ID, first))

	got, err = repo.FindByID(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second}, got.Products)

	// Pulling an id that is not in the list leaves it untouched
	require.NoError(t, repo.RemoveProduct(ctx, brand.ID, uuid.New()))
	got, err = repo.FindByID(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second}, got.Products)
}

func TestCategoryProductListMutation(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := &domain.Category{ID: uuid.New(), Name: "Seating", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, category))

	productID := uuid.New()
	require.NoError(t, repo.AddProduct(ctx, category.ID, productID))

	got, err := repo.FindByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{productID}, got.ProductsID)

	require.NoError(t, repo.RemoveProduct(ctx, category.ID, productID))

	got, err = repo.FindByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ProductsID)
}

func TestCategoryCreateDuplicateName(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.Category{
		ID: uuid.New(), Name: "Dup", CreatedAt: time.Now(),
	}))

	err := repo.Create(ctx, &domain.Category{
		ID: uuid.New(), Name: "Dup", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, ErrCategoryAlreadyExists)
}

func TestCategoryList(t *testing.T) {
	truncateCatalogTables(t)
	repo := NewCategoryRepository(testDB)
	ctx := context.Background()

	for _, name := range []string{"Tables", "Beds"} {
		require.NoError(t, repo.Create(ctx, &domain.Category{
			ID: uuid.New(), Name: name, CreatedAt: time.Now(),
		}))
	}

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Beds", categories[0].Name)
	assert.Equal(t, "Tables", categories[1].Name)
}
