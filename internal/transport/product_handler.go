package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Comfy-team/comfy/internal/middleware"
	"github.com/Comfy-team/comfy/internal/repository"
	"github.com/Comfy-team/comfy/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUploadSize bounds multipart request memory usage (32 MB)
const maxUploadSize = 32 << 20

// CreateProductRequest represents the product creation payload, carried as
// multipart form fields alongside the image files.
type CreateProductRequest struct {
	Name        string   `validate:"required"`
	Description string   ``
	Price       float64  `validate:"gte=0"`
	Discount    float64  `validate:"gte=0"`
	Stock       int      `validate:"gte=0"`
	Brand       string   `validate:"required,uuid"`
	Category    string   `validate:"required,uuid"`
	Colors      []string ``
}

// UpdateProductRequest represents a partial product update. Absent fields are
// left untouched; images are replaced only when new files are uploaded.
type UpdateProductRequest struct {
	ID          string   `json:"_id" validate:"required,uuid"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Discount    *float64 `json:"discount" validate:"omitempty,gte=0"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Brand       *string  `json:"brand" validate:"omitempty,uuid"`
	Category    *string  `json:"category" validate:"omitempty,uuid"`
	Colors      []string `json:"colors"`
}

// DeleteProductRequest carries the ids for detaching and deleting a product.
type DeleteProductRequest struct {
	ID       string `json:"_id" validate:"required,uuid"`
	Brand    string `json:"brand" validate:"required,uuid"`
	Category string `json:"category" validate:"required,uuid"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	catalog service.CatalogService
	images  *ImageStore
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, images *ImageStore, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		images:  images,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes. Reads are public; mutations
// are admin only.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

// List handles the filtered, sorted, paginated product listing
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := service.ListParams{
		Brand:    query.Get("brand"),
		Category: query.Get("category"),
		Page:     1,
	}

	if raw := query.Get("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid price filter")
			return
		}
		params.MaxPrice = &price
	}

	// Only exactly 1 or -1 request an explicit ordering; anything else keeps
	// the store's natural order.
	if sort, err := strconv.Atoi(query.Get("sort")); err == nil && (sort == 1 || sort == -1) {
		params.Sort = sort
	}

	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 0 {
		params.Page = page
	}

	if !validFilterID(params.Brand) {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid brand filter")
		return
	}
	if !validFilterID(params.Category) {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category filter")
		return
	}

	result, err := h.catalog.List(r.Context(), params)
	if err != nil {
		h.logger.Error("Product listing failed", zap.Error(err))
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// GetByID handles product point lookup with brand/category resolved
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	detail, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Debug("Product lookup failed", zap.String("id", id.String()), zap.Error(err))
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, detail)
}

// Search handles the naive catalog search
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		page = p
	}

	result, err := h.catalog.Search(r.Context(), query.Get("search"), page)
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Create handles product creation from a multipart payload
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	req := CreateProductRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Brand:       r.FormValue("brand"),
		Category:    r.FormValue("category"),
		Colors:      r.MultipartForm.Value["colors"],
	}

	var ok bool
	if req.Price, ok = parseFormFloat(w, r.FormValue("price"), "price"); !ok {
		return
	}
	if req.Discount, ok = parseFormFloat(w, r.FormValue("discount"), "discount"); !ok {
		return
	}
	if req.Stock, ok = parseFormInt(w, r.FormValue("stock"), "stock"); !ok {
		return
	}

	if err := middleware.ValidateRequest(req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return
	}

	paths, err := h.images.Save(r.MultipartForm.File["images"])
	if err != nil {
		h.logger.Error("Failed to store uploaded images", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	input := service.AddProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Stock:       req.Stock,
		Colors:      req.Colors,
		BrandID:     uuid.MustParse(req.Brand),
		CategoryID:  uuid.MustParse(req.Category),
	}

	product, err := h.catalog.Add(r.Context(), input, paths)
	if err != nil {
		h.logger.Error("Product creation failed", zap.Error(err))
		h.respondError(w, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles a partial product update, from either a JSON body or a
// multipart payload carrying replacement images.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	var paths []string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart payload")
			return
		}

		var ok bool
		if req, ok = h.updateRequestFromForm(w, r); !ok {
			return
		}

		stored, err := h.images.Save(r.MultipartForm.File["images"])
		if err != nil {
			h.logger.Error("Failed to store uploaded images", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		paths = stored
	} else {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
				middleware.RespondWithValidationErrors(w, validationErrors)
				return
			}
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	input := service.UpdateProductInput{
		ID:          uuid.MustParse(req.ID),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Stock:       req.Stock,
		Colors:      req.Colors,
	}
	if req.Brand != nil {
		id := uuid.MustParse(*req.Brand)
		input.BrandID = &id
	}
	if req.Category != nil {
		id := uuid.MustParse(*req.Category)
		input.CategoryID = &id
	}

	result, err := h.catalog.Update(r.Context(), input, paths)
	if err != nil {
		h.logger.Error("Product update failed", zap.String("product_id", req.ID), zap.Error(err))
		h.respondError(w, err)
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", req.ID))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Delete handles product deletion. The reference list pulls are fired but not
// awaited; the response carries the product store's acknowledgment only.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.DeleteProductInput{
		ID:         uuid.MustParse(req.ID),
		BrandID:    uuid.MustParse(req.Brand),
		CategoryID: uuid.MustParse(req.Category),
	}

	result, err := h.catalog.Delete(r.Context(), input)
	if err != nil {
		h.logger.Error("Product deletion failed", zap.String("product_id", req.ID), zap.Error(err))
		h.respondError(w, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", req.ID))
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// updateRequestFromForm builds an UpdateProductRequest from multipart form
// fields, treating absent fields as "leave untouched".
func (h *ProductHandler) updateRequestFromForm(w http.ResponseWriter, r *http.Request) (UpdateProductRequest, bool) {
	form := r.MultipartForm.Value

	req := UpdateProductRequest{ID: r.FormValue("_id")}

	if v, ok := form["name"]; ok && len(v) > 0 {
		req.Name = &v[0]
	}
	if v, ok := form["description"]; ok && len(v) > 0 {
		req.Description = &v[0]
	}
	if v, ok := form["brand"]; ok && len(v) > 0 {
		req.Brand = &v[0]
	}
	if v, ok := form["category"]; ok && len(v) > 0 {
		req.Category = &v[0]
	}
	if v, ok := form["colors"]; ok {
		req.Colors = v
	}
	if v, ok := form["price"]; ok && len(v) > 0 {
		price, valid := parseFormFloat(w, v[0], "price")
		if !valid {
			return req, false
		}
		req.Price = &price
	}
	if v, ok := form["discount"]; ok && len(v) > 0 {
		discount, valid := parseFormFloat(w, v[0], "discount")
		if !valid {
			return req, false
		}
		req.Discount = &discount
	}
	if v, ok := form["stock"]; ok && len(v) > 0 {
		stock, valid := parseFormInt(w, v[0], "stock")
		if !valid {
			return req, false
		}
		req.Stock = &stock
	}

	if err := middleware.ValidateRequest(req); err != nil {
		middleware.RespondWithValidationErrors(w, middleware.FormatValidationErrors(err))
		return req, false
	}

	return req, true
}

// respondError maps service errors onto the API's status codes. Anything
// unrecognized surfaces as a 500 with the error's string rendering.
func (h *ProductHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// validFilterID accepts absent values, the "all" sentinel, or a well-formed
// uuid.
func validFilterID(value string) bool {
	if value == "" || value == service.FilterAll {
		return true
	}
	_, err := uuid.Parse(value)
	return err == nil
}

func parseFormFloat(w http.ResponseWriter, raw, field string) (float64, bool) {
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+field)
		return 0, false
	}
	return value, true
}

func parseFormInt(w http.ResponseWriter, raw, field string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+field)
		return 0, false
	}
	return value, true
}
