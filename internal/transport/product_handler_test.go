package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Comfy-team/comfy/internal/domain"
	"github.com/Comfy-team/comfy/internal/repository"
	"github.com/Comfy-team/comfy/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCatalog records the last call per operation and returns canned results.
type fakeCatalog struct {
	listParams  service.ListParams
	listResult  *service.ListResult
	listErr     error
	getID       uuid.UUID
	getResult   *domain.ProductDetail
	getErr      error
	searchQuery string
	searchPage  int
	addInput    service.AddProductInput
	addPaths    []string
	updateInput service.UpdateProductInput
	updatePaths []string
	deleteInput service.DeleteProductInput
}

func (f *fakeCatalog) List(ctx context.Context, params service.ListParams) (*service.ListResult, error) {
	f.listParams = params
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &service.ListResult{Data: []*domain.Product{}}, nil
}

func (f *fakeCatalog) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDetail, error) {
	f.getID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResult, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, page int) (*service.SearchResult, error) {
	f.searchQuery = query
	f.searchPage = page
	return &service.SearchResult{Data: []*domain.ProductDetail{}}, nil
}

func (f *fakeCatalog) Add(ctx context.Context, input service.AddProductInput, imagePaths []string) (*domain.Product, error) {
	f.addInput = input
	f.addPaths = imagePaths
	return &domain.Product{ID: uuid.New(), Name: input.Name}, nil
}

func (f *fakeCatalog) Update(ctx context.Context, input service.UpdateProductInput, imagePaths []string) (repository.UpdateResult, error) {
	f.updateInput = input
	f.updatePaths = imagePaths
	return repository.UpdateResult{Matched: 1, Modified: 1}, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, input service.DeleteProductInput) (repository.DeleteResult, error) {
	f.deleteInput = input
	return repository.DeleteResult{Deleted: 1}, nil
}

func passthrough(next http.Handler) http.Handler { return next }

func reject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func newProductRouter(t *testing.T, catalog service.CatalogService, authMw, adminMw func(http.Handler) http.Handler) chi.Router {
	t.Helper()
	images, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	router := chi.NewRouter()
	NewProductHandler(catalog, images, zap.NewNop()).RegisterRoutes(router, authMw, adminMw)
	return router
}

func errMsg(t *testing.T, body *bytes.Buffer) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(body.Bytes(), &payload))
	return payload["msg"]
}

func TestListParsesQueryParams(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	brandID := uuid.New()
	url := fmt.Sprintf("/products?price=150.5&brand=%s&category=all&sort=-1&page=3", brandID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", url, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, catalog.listParams.MaxPrice)
	assert.Equal(t, 150.5, *catalog.listParams.MaxPrice)
	assert.Equal(t, brandID.String(), catalog.listParams.Brand)
	assert.Equal(t, "all", catalog.listParams.Category)
	assert.Equal(t, -1, catalog.listParams.Sort)
	assert.Equal(t, 3, catalog.listParams.Page)
}

func TestListDefaultsAndJunkParams(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	// Junk sort and page fall back to natural order and page 1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products?sort=7&page=zero", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, catalog.listParams.MaxPrice)
	assert.Equal(t, 0, catalog.listParams.Sort)
	assert.Equal(t, 1, catalog.listParams.Page)
}

func TestListRejectsMalformedFilters(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products?price=cheap", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid price filter", errMsg(t, w.Body))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products?brand=nike", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid brand filter", errMsg(t, w.Body))
}

func TestGetByID(t *testing.T) {
	id := uuid.New()
	catalog := &fakeCatalog{getResult: &domain.ProductDetail{
		Product:  domain.Product{ID: id, Name: "Red Chair"},
		Brand:    &domain.Brand{},
		Category: &domain.Category{},
	}}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/"+id.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, catalog.getID)
	assert.Contains(t, w.Body.String(), "Red Chair")
}

func TestGetByIDNotFound(t *testing.T) {
	catalog := &fakeCatalog{getErr: repository.ErrProductNotFound}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product isn't found", errMsg(t, w.Body))
}

func TestGetByIDMalformed(t *testing.T) {
	router := newProductRouter(t, &fakeCatalog{}, passthrough, passthrough)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchPassesQuery(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products/search?search=red+chair&page=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "red chair", catalog.searchQuery)
	assert.Equal(t, 2, catalog.searchPage)
}

func multipartBody(t *testing.T, fields map[string][]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(name, v))
		}
	}
	for field, filename := range files {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestCreateProduct(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	brandID := uuid.New()
	categoryID := uuid.New()
	body, contentType := multipartBody(t, map[string][]string{
		"name":     {"Walnut Desk"},
		"price":    {"249.99"},
		"stock":    {"5"},
		"brand":    {brandID.String()},
		"category": {categoryID.String()},
		"colors":   {"brown", "black"},
	}, map[string]string{"images": "desk.jpg"})

	req := httptest.NewRequest("POST", "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Walnut Desk", catalog.addInput.Name)
	assert.Equal(t, 249.99, catalog.addInput.Price)
	assert.Equal(t, 5, catalog.addInput.Stock)
	assert.Equal(t, brandID, catalog.addInput.BrandID)
	assert.Equal(t, categoryID, catalog.addInput.CategoryID)
	assert.Equal(t, []string{"brown", "black"}, catalog.addInput.Colors)
	require.Len(t, catalog.addPaths, 1)
	assert.True(t, strings.HasSuffix(catalog.addPaths[0], ".jpg"))
}

func TestCreateProductValidation(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	// Missing name and brand
	body, contentType := multipartBody(t, map[string][]string{
		"price":    {"10"},
		"category": {uuid.NewString()},
	}, nil)

	req := httptest.NewRequest("POST", "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errMsg(t, w.Body), "validation failed")
}

func TestCreateProductRejectsJunkPrice(t *testing.T) {
	router := newProductRouter(t, &fakeCatalog{}, passthrough, passthrough)

	body, contentType := multipartBody(t, map[string][]string{
		"name":     {"Desk"},
		"price":    {"a lot"},
		"brand":    {uuid.NewString()},
		"category": {uuid.NewString()},
	}, nil)

	req := httptest.NewRequest("POST", "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid price", errMsg(t, w.Body))
}

func TestUpdateProductJSON(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	id := uuid.New()
	newBrand := uuid.New()
	payload := fmt.Sprintf(`{"_id":%q,"price":99.5,"brand":%q}`, id, newBrand)

	req := httptest.NewRequest("PUT", "/products", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, catalog.updateInput.ID)
	require.NotNil(t, catalog.updateInput.Price)
	assert.Equal(t, 99.5, *catalog.updateInput.Price)
	require.NotNil(t, catalog.updateInput.BrandID)
	assert.Equal(t, newBrand, *catalog.updateInput.BrandID)
	// Absent fields stay nil so the store leaves them untouched
	assert.Nil(t, catalog.updateInput.Name)
	assert.Nil(t, catalog.updateInput.CategoryID)
	assert.Empty(t, catalog.updatePaths)
}

func TestUpdateProductMultipartWithImages(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	id := uuid.New()
	body, contentType := multipartBody(t, map[string][]string{
		"_id":  {id.String()},
		"name": {"Renamed"},
	}, map[string]string{"images": "new.png"})

	req := httptest.NewRequest("PUT", "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, catalog.updateInput.ID)
	require.NotNil(t, catalog.updateInput.Name)
	assert.Equal(t, "Renamed", *catalog.updateInput.Name)
	require.Len(t, catalog.updatePaths, 1)
	assert.True(t, strings.HasSuffix(catalog.updatePaths[0], ".png"))
}

func TestUpdateProductRequiresID(t *testing.T) {
	router := newProductRouter(t, &fakeCatalog{}, passthrough, passthrough)

	req := httptest.NewRequest("PUT", "/products", strings.NewReader(`{"price":10}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteProduct(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, passthrough, passthrough)

	id := uuid.New()
	brandID := uuid.New()
	categoryID := uuid.New()
	payload := fmt.Sprintf(`{"_id":%q,"brand":%q,"category":%q}`, id, brandID, categoryID)

	req := httptest.NewRequest("DELETE", "/products", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, catalog.deleteInput.ID)
	assert.Equal(t, brandID, catalog.deleteInput.BrandID)
	assert.Equal(t, categoryID, catalog.deleteInput.CategoryID)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())
}

func TestMutationsAreGated(t *testing.T) {
	catalog := &fakeCatalog{}
	router := newProductRouter(t, catalog, reject, passthrough)

	// Reads stay public
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/products", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Mutations go through the auth middleware
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
