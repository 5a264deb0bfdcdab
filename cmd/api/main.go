package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ternarybob/banner"

	"alfredoptarigan/resume-ingestor/internal/bootstrap"
	"alfredoptarigan/resume-ingestor/internal/config"
	"alfredoptarigan/resume-ingestor/internal/handlers"
)

const version = "1.0.0"

func main() {
	banner.PrintSimple("Resume Ingestor", version)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	appLogger := config.NewLogger(cfg)
	appLogger.Info().Str("env", cfg.Server.Env).Msg("✅ Config loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	svc, err := bootstrap.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("❌ Failed to initialize services")
	}
	appLogger.Info().Msg("✅ Services initialized successfully")

	// Start index worker
	if svc.Worker != nil {
		svc.Worker.Start(ctx)
	} else {
		appLogger.Warn().Msg("Candidate search index disabled")
	}

	// Initialize Handlers
	uploadHandler := handlers.NewUploadHandler(svc.Pipeline, cfg.Storage.MaxFileSize, appLogger)
	parseHandler := handlers.NewParseHandler(svc.ProfileExtractor, appLogger)
	candidateHandler := handlers.NewCandidateHandler(svc.Catalog, svc.Index, appLogger)
	appLogger.Info().Msg("✅ Handlers initialized")

	// Create Fiber app. BodyLimit leaves room for multipart framing.
	app := fiber.New(fiber.Config{
		AppName:      "Resume Ingestor API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1024*1024,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	app.Post("/parseresume", parseHandler.HandleParseResume)
	app.Post("/uploadpdf", uploadHandler.HandleUpload)
	app.Get("/candidates/all", candidateHandler.HandleListAll)
	app.Get("/candidates/search", candidateHandler.HandleSearch)
	app.Get("/candidates/:fileName", candidateHandler.HandleGetCandidate)

	endpoints := []string{
		"GET /health",
		"POST /parseresume",
		"POST /uploadpdf",
		"GET /candidates/all",
		"GET /candidates/search?q=",
		"GET /candidates/:fileName",
	}

	if svc.IngestRepo != nil {
		ingestionHandler := handlers.NewIngestionHandler(svc.IngestRepo)
		app.Get("/ingestions", ingestionHandler.HandleListRecent)
		app.Get("/ingestions/:hash", ingestionHandler.HandleGetIngestion)
		endpoints = append(endpoints, "GET /ingestions", "GET /ingestions/:hash")
	}

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Resume Ingestor API",
			"version":   version,
			"endpoints": endpoints,
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		appLogger.Info().Msg("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			appLogger.Error().Err(err).Msg("❌ Server forced to shutdown")
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	appLogger.Info().Str("addr", addr).Msg("🚀 Server starting")

	if err := app.Listen(addr); err != nil {
		appLogger.Error().Err(err).Msg("❌ Failed to start server")
	}

	if svc.Worker != nil {
		svc.Worker.Stop()
	}
	if err := svc.Close(); err != nil {
		appLogger.Warn().Err(err).Msg("Failed to close object store")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
