package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drivio/service-rental/internal/application"
	"github.com/drivio/service-rental/internal/auth"
	"github.com/drivio/service-rental/internal/cache"
	"github.com/drivio/service-rental/internal/config"
	"github.com/drivio/service-rental/internal/database"
	"github.com/drivio/service-rental/internal/events"
	"github.com/drivio/service-rental/internal/handler"
	"github.com/drivio/service-rental/internal/health"
	"github.com/drivio/service-rental/internal/logger"
	"github.com/drivio/service-rental/internal/middleware"
	"github.com/drivio/service-rental/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-rental")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rental",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB.DSN(), log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations. AutoMigrate cannot express the booking
	// exclusion constraint, so development also runs the SQL migrations.
	if err := database.RunMigrations(cfg.DB.URL(), "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, 15*time.Minute)

	// Initialize Kafka producer
	producer := events.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = producer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	carRepo := repository.NewGormCarRepository(db)

	clock := application.SystemClock{}

	// Dashboard cache is optional; an empty address disables it.
	var snapshotCache application.SnapshotCache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.New(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisCache.Close() }()
		snapshotCache = redisCache
		log.Info("dashboard cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize application services
	availabilityService := application.NewAvailabilityService(carRepo, bookingRepo, clock, log)
	bookingService := application.NewBookingService(bookingRepo, carRepo, availabilityService, producer, clock, log)
	dashboardService := application.NewDashboardService(bookingRepo, carRepo, snapshotCache, clock, log)
	carService := application.NewCarService(carRepo, log)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	carHandler := handler.NewCarHandler(carService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-rental")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	dashboardHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	carHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-rental...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-rental stopped")
}
