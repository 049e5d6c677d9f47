package server

import (
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"movex/internal/config"
	custommiddleware "movex/internal/middleware"
	"movex/internal/repository"
	"movex/internal/service"
	"movex/internal/transport"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	fs     *firestore.Client
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers onto a chi router.
// redisClient may be nil, in which case rate limiting is disabled.
func NewServer(cfg *config.Config, logger *zap.Logger, fs *firestore.Client, verifier custommiddleware.TokenVerifier, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(fs)
	productRepo := repository.NewProductRepository(fs)

	// Initialize services
	wishlistService := service.NewWishlistService(userRepo)
	purchaseService := service.NewPurchaseService(userRepo)
	catalogService := service.NewCatalogService(productRepo)

	// Initialize handlers
	wishlistHandler := transport.NewWishlistHandler(wishlistService, logger)
	purchaseHandler := transport.NewPurchaseHandler(purchaseService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(verifier, logger)

	// The rate limiter runs after auth on protected routes so it keys on
	// the authenticated uid; public catalog routes are limited by client
	// address.
	protected := authMiddleware
	var publicLimit []func(http.Handler) http.Handler
	if redisClient != nil {
		rateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 120,
			Window:            time.Minute,
			KeyPrefix:         "rate_limit",
		}, logger)
		protected = func(next http.Handler) http.Handler {
			return authMiddleware(rateLimit(next))
		}
		publicLimit = append(publicLimit, rateLimit)
	}

	// Register routes
	wishlistHandler.RegisterRoutes(router, protected)
	purchaseHandler.RegisterRoutes(router, protected)
	productHandler.RegisterRoutes(router, publicLimit...)

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
		fs:     fs,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.fs != nil {
		if err := s.fs.Close(); err != nil {
			s.logger.Error("Failed to close firestore client", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
