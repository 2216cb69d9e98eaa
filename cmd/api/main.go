package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-publicworks-backend/config"
	_ "go-publicworks-backend/docs" // Important for Swagger
	v1 "go-publicworks-backend/internal/delivery/http/v1"
	"go-publicworks-backend/internal/repository/postgres"
	"go-publicworks-backend/internal/usecase"
	"go-publicworks-backend/pkg/auth"
	"go-publicworks-backend/pkg/database"
	"go-publicworks-backend/pkg/logger"
	"go-publicworks-backend/pkg/redis"
	"go-publicworks-backend/pkg/validation"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// @title           Public Works Portal API
// @version         1.0
// @description     Back-office portal for the public works licensing and contractor evaluation program.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting public works portal backend", "port", cfg.Port)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 4. Setup Redis (rate limiting; in-memory fallback if unavailable)
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting falls back to in-memory", "error", err)
	}
	defer redis.Close()

	// 5. Register custom request validators on gin's binding engine
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}

	// 6. Setup Repositories
	probe := postgres.NewSchemaProbe(dbPool)
	applicationRepo := postgres.NewApplicationRepository(dbPool, probe)
	transitionRepo := postgres.NewTransitionRepository(dbPool, probe, postgres.NewIdentityProvisioner(), postgres.NewProfileSyncer())
	evaluationRepo := postgres.NewEvaluationRepository(dbPool, probe)

	// 7. Setup UseCases
	applicationUC := usecase.NewApplicationUsecase(applicationRepo)
	transitionUC := usecase.NewTransitionUsecase(applicationRepo, transitionRepo)
	evaluationUC := usecase.NewEvaluationUsecase(evaluationRepo)

	// 8. Setup Auth Provider (JWKS, only when the SSO endpoint is configured)
	var jwksProvider *auth.Provider
	if cfg.JWKSUrl != "" {
		jwksProvider = auth.NewProvider(cfg.JWKSUrl)
	}

	// 9. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ApplicationUC: applicationUC,
		TransitionUC:  transitionUC,
		EvaluationUC:  evaluationUC,
		JWKSProvider:  jwksProvider,
		Config:        cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
