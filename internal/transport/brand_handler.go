package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/Comfy-team/comfy/internal/domain"
	"github.com/Comfy-team/comfy/internal/middleware"
	"github.com/Comfy-team/comfy/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBrandRequest represents the brand creation payload
type CreateBrandRequest struct {
	Name string `json:"name" validate:"required"`
}

// BrandHandler handles HTTP requests for brand operations
type BrandHandler struct {
	brands repository.BrandRepository
	logger *zap.Logger
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brands repository.BrandRepository, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{
		brands: brands,
		logger: logger,
	}
}

// RegisterRoutes registers all brand routes
func (h *BrandHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/brands", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(adminMiddleware)
			r.Post("/", h.Create)
		})
	})
}

// List handles listing all brands
func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.brands.List(r.Context())
	if err != nil {
		h.logger.Error("Brand listing failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

// GetByID handles brand point lookup
func (h *BrandHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid brand id")
		return
	}

	brand, err := h.brands.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBrandNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("Brand lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brand)
}

// Create handles brand creation
func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBrandRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	brand := &domain.Brand{
		ID:        uuid.New(),
		Name:      req.Name,
		Products:  []uuid.UUID{},
		CreatedAt: time.Now(),
	}

	if err := h.brands.Create(r.Context(), brand); err != nil {
		if errors.Is(err, repository.ErrBrandAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("Brand creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("Brand created", zap.String("brand_id", brand.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}
