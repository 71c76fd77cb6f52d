package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Comfy-team/comfy/internal/config"
	"github.com/Comfy-team/comfy/internal/database"
	custommiddleware "github.com/Comfy-team/comfy/internal/middleware"
	"github.com/Comfy-team/comfy/internal/repository"
	"github.com/Comfy-team/comfy/internal/service"
	"github.com/Comfy-team/comfy/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
	refs   *service.ReferenceMaintainer
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware())
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            time.Duration(cfg.RateLimit.WindowSec) * time.Second,
		KeyPrefix:         "ratelimit",
	}, logger))

	router.NotFound(custommiddleware.NotFoundHandler)

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())
	brandRepo := repository.NewBrandRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	userRepo := repository.NewUserRepository(db.DB())
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())

	// Initialize services
	refs := service.NewReferenceMaintainer(brandRepo, categoryRepo, logger)
	catalogService := service.NewCatalogService(productRepo, refs, logger)
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	orderService := service.NewOrderService(orderRepo, productRepo)

	imageStore, err := transport.NewImageStore(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	// Initialize handlers
	productHandler := transport.NewProductHandler(catalogService, imageStore, logger)
	brandHandler := transport.NewBrandHandler(brandRepo, logger)
	categoryHandler := transport.NewCategoryHandler(categoryRepo, logger)
	userHandler := transport.NewUserHandler(userService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	brandHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	categoryHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	userHandler.RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	// Serve uploaded product images
	uploadsDir := http.Dir(cfg.Uploads.Dir)
	router.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(uploadsDir)))

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		refs:   refs,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Let in-flight reference list mutations finish before the pool goes away
	s.refs.Wait()

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
