package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/video-dubber/pkg/validator"

	"github.com/johnquangdev/video-dubber/internal/adapter/handler"
	"github.com/johnquangdev/video-dubber/internal/adapter/repository"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/cache"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/database"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/media"
	"github.com/johnquangdev/video-dubber/internal/infrastructure/storage"
	"github.com/johnquangdev/video-dubber/internal/usecase/dubbing"
	"github.com/johnquangdev/video-dubber/internal/usecase/transcription"
	"github.com/johnquangdev/video-dubber/pkg/config"
	"github.com/johnquangdev/video-dubber/pkg/credentials"
)

// @title           Video Dubber API
// @version         1.0
// @description     Transcribes, translates, re-voices and remuxes videos into a target language

// @BasePath  /v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human} | ${id}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxUploadMB)))

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			credentials.AssemblyAIKey.Header(), credentials.OpenAIKey.Header(), credentials.ElevenLabsKey.Header(),
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))

	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; run cmd/migrate to manage the schema")
	}

	// Progress store: Redis when enabled, in-process otherwise
	var progressStore cache.Store
	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		progressStore = cache.NewRedisStore(redisClient)
	} else {
		log.Println("⚠️  Redis disabled, keeping progress in memory")
		mem := cache.NewMemoryStore()
		defer mem.Close()
		progressStore = mem
	}
	tracker := cache.NewProgressTracker(progressStore)

	// Initialize object storage
	log.Println("🗄️  Connecting to object storage...")
	artifacts, err := storage.NewMinIOClient(&cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	dubRepo := repository.NewDubJobRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)

	// Initialize the pipeline
	log.Println("🎬 Initializing dubbing pipeline...")
	engine := media.NewFFmpeg(cfg.Pipeline.FFmpegPath, logger)
	pipeline := dubbing.NewPipeline(engine, dubbing.Options{
		WorkDir:              cfg.Pipeline.WorkDir,
		PollInterval:         cfg.Pipeline.PollInterval,
		PollAttempts:         cfg.Pipeline.PollAttempts,
		SynthesisConcurrency: cfg.Pipeline.SynthesisConcurrency,
	}, logger)
	providers := dubbing.NewProviderFactory(credentials.NewResolverFromConfig(cfg), cfg)

	jobs := dubbing.NewJobService(
		pipeline,
		providers,
		dubRepo,
		transcriptRepo,
		artifacts,
		tracker,
		dubbing.JobOptions{
			Workers:    cfg.Pipeline.Workers,
			RunTimeout: cfg.Pipeline.RunTimeout,
			WorkDir:    cfg.Pipeline.WorkDir,
		},
		logger,
	)

	dubHandler := handler.NewDub(providers, jobs, handler.DubOptions{
		Transcription: transcription.Options{
			PollInterval: cfg.Pipeline.PollInterval,
			PollAttempts: cfg.Pipeline.PollAttempts,
		},
		SynthesisConcurrency: cfg.Pipeline.SynthesisConcurrency,
	}, logger)
	log.Println("✅ Dub handler initialized successfully")

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, dubHandler, artifacts)
	router.Setup(e)

	// Start server
	go func() {
		addr := cfg.GetServerAddr()
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	if err := jobs.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Dub jobs interrupted: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
