package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"fusionic/internal/config"
	custommiddleware "fusionic/internal/middleware"
	"fusionic/internal/repository"
	"fusionic/internal/service"
	"fusionic/internal/session"
	"fusionic/internal/transport"
	"fusionic/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Session manager: every route below resolves a session
	sessions := session.NewManager(
		redisClient,
		cfg.Session.Secret,
		time.Duration(cfg.Session.TTLHours)*time.Hour,
	)
	router.Use(custommiddleware.SessionMiddleware(sessions, logger))

	// Uploaded product images
	images, err := upload.NewImageStore(cfg.Upload.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image store: %w", err)
	}

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(categoryRepo, productRepo)
	checkoutService := service.NewCheckoutService(sessions, productRepo, orderRepo, logger)
	userService := service.NewUserService(userRepo)

	// Middleware for the auth and admin surfaces
	authRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.AuthRequestsPerMinute,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}, logger)
	requireAdmin := custommiddleware.RequireAdmin(logger)

	// Register routes
	transport.NewStorefrontHandler(catalogService, checkoutService, sessions, logger).RegisterRoutes(router)
	transport.NewUserHandler(userService, sessions, logger).RegisterRoutes(router, authRateLimit)
	transport.NewAdminHandler(catalogService, orderRepo, images, logger).RegisterRoutes(router, requireAdmin)

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
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

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
