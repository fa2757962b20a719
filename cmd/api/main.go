package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/recalliq-ai/backend/pkg/validator"

	"github.com/recalliq-ai/backend/internal/adapter/handler"
	"github.com/recalliq-ai/backend/internal/adapter/repository"
	"github.com/recalliq-ai/backend/internal/infrastructure/cache"
	"github.com/recalliq-ai/backend/internal/infrastructure/database"
	httpmw "github.com/recalliq-ai/backend/internal/infrastructure/http/middleware"
	"github.com/recalliq-ai/backend/internal/infrastructure/metrics"
	"github.com/recalliq-ai/backend/internal/infrastructure/storage"
	"github.com/recalliq-ai/backend/internal/usecase/analysis"
	"github.com/recalliq-ai/backend/internal/usecase/auth"
	"github.com/recalliq-ai/backend/internal/usecase/billing"
	"github.com/recalliq-ai/backend/internal/usecase/meeting"
	"github.com/recalliq-ai/backend/internal/usecase/transcription"
	"github.com/recalliq-ai/backend/internal/usecase/user"
	pkgai "github.com/recalliq-ai/backend/pkg/ai"
	"github.com/recalliq-ai/backend/pkg/config"
	"github.com/recalliq-ai/backend/pkg/jwt"
)

// @title           RecallIQ API
// @version         1.0
// @description     Credit-metered meeting intelligence API: transcript analysis, action item and decision tracking, usage history.

// @host      api.recalliq.ai
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(echomw.Recover())

	// CORS middleware
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate in CI/CD.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("DB_AUTO_MIGRATE is enabled in production. Disable it and manage schema with sql-migrate.")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	cacheStore := cache.NewStore(redisClient)

	// Initialize object storage for report exports
	log.Println("📦 Connecting to object storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	userRepo := repository.NewUserRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	actionItemRepo := repository.NewActionItemRepository(db)
	decisionRepo := repository.NewDecisionRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// Initialize metrics
	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
	}

	// Initialize billing
	ledger := billing.NewLedger(userRepo, appMetrics, logger)
	recorder := billing.NewRecorder(usageRepo, logger)

	// Initialize AI gateway and analysis workflow
	log.Println("🤖 Initializing AI components...")
	geminiClient := pkgai.NewGeminiClient(&cfg.Gemini)
	gateway := analysis.NewGeminiGateway(geminiClient, logger)
	workflow := analysis.NewWorkflow(meetingRepo, actionItemRepo, decisionRepo, ledger, recorder, gateway, appMetrics, logger)

	// Initialize transcription
	transcriptionProvider := transcription.NewAssemblyProvider(cfg.Assembly.APIKey)
	transcriptionService := transcription.NewService(transcriptionProvider, ledger, recorder, cfg.Assembly.PollTimeout, logger)

	// Initialize JWT manager and auth service
	log.Println("🔑 Initializing auth...")
	jwtManager := jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authService := auth.NewService(userRepo, cacheStore, jwtManager, logger)

	// Initialize meeting and user services
	meetingService := meeting.NewService(meetingRepo, actionItemRepo, decisionRepo, userRepo, cacheStore, minioClient, recorder, logger)
	userService := user.NewService(userRepo, usageRepo, logger)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	authHandler := handler.NewAuth(authService, logger)
	meetingHandler := handler.NewMeeting(workflow, meetingService, transcriptionService, logger)
	userHandler := handler.NewUser(userService, authService, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	authMiddleware := httpmw.NewAuthMiddleware(jwtManager, userRepo)
	router := handler.NewRouter(cfg, authHandler, meetingHandler, userHandler, authMiddleware)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
