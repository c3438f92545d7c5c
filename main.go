package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/caregraph/caregraph/internal/config"
	"github.com/caregraph/caregraph/internal/handler"
	"github.com/caregraph/caregraph/internal/middleware"
	"github.com/caregraph/caregraph/internal/predictor"
	"github.com/caregraph/caregraph/internal/repository"
	"github.com/caregraph/caregraph/internal/security"
	"github.com/caregraph/caregraph/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database connection pool with pgx
	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Successfully connected to database")

	if err := repository.EnsureSchema(context.Background(), pool); err != nil {
		logger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	// Initialize the entity store
	st := repository.NewPostgres(pool, logger)
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptor([]byte(cfg.Security.EncryptionKey))
		if err != nil {
			logger.Fatal("Failed to initialize field encryption", zap.Error(err))
		}
		st = st.WithEncryptor(enc)
		logger.Info("Field encryption enabled for patient medical data")
	}

	// Initialize the external prediction client
	predictorClient, err := predictor.NewHTTPClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize predictor client", zap.Error(err))
	}

	// Initialize services
	resolver := service.NewDiseaseResolver()
	locator := service.NewFacilityLocator(st, cfg.Locator.DefaultRadiusMeters, logger)
	hospitalService := service.NewHospitalService(st, cfg.Cascade.Timeout, logger)
	doctorService := service.NewDoctorService(st, cfg.Cascade.Timeout, logger)
	patientService := service.NewPatientService(st, cfg.Cascade.Timeout, logger)
	appointmentService := service.NewAppointmentService(st, cfg.Cascade.Timeout, logger)
	predictionService := service.NewPredictionService(st, predictorClient, resolver, cfg.Cascade.Timeout, logger)
	recommendationService := service.NewRecommendationService(resolver, locator, logger)

	// Initialize handlers
	handlers := handler.Handlers{
		Health:         handler.NewHealthHandler(pool, logger),
		Hospital:       handler.NewHospitalHandler(hospitalService, logger),
		Doctor:         handler.NewDoctorHandler(doctorService, logger),
		Patient:        handler.NewPatientHandler(patientService, logger),
		Appointment:    handler.NewAppointmentHandler(appointmentService, logger),
		Prediction:     handler.NewPredictionHandler(predictionService, logger),
		Recommendation: handler.NewRecommendationHandler(locator, recommendationService, logger),
	}

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Recovery middleware must be first
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Configure appropriately for production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))

	handler.RegisterRoutes(r, handlers, cfg.Auth.JWTSecret, logger)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
