package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"

	"juridisch-advies-backend/config"
	"juridisch-advies-backend/generative"
	"juridisch-advies-backend/handlers"
	"juridisch-advies-backend/ingest"
	"juridisch-advies-backend/logger"
	"juridisch-advies-backend/repository"
	"juridisch-advies-backend/service"
	"juridisch-advies-backend/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	// Initialize storage
	docStorage, err := storage.NewStorageFromConfig(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize Gemini client
	ctx := context.Background()
	geminiClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		log.Fatalf("Failed to initialize Gemini: %v", err)
	}
	defer geminiClient.Close()

	gen := generative.NewGeminiService(geminiClient, cfg.Gemini, appLogger)

	// Initialize repositories
	intakeRepo := repository.NewIntakeRepository()
	docRepo := repository.NewDocumentRepository()
	runRepo := repository.NewRunRepository()

	// Initialize services
	intakeService := service.NewIntakeService(
		service.IntakeWithIntakeRepository(intakeRepo),
		service.IntakeWithDocumentRepository(docRepo),
		service.IntakeWithStorage(docStorage),
		service.IntakeWithLogger(appLogger),
	)

	adviceService := service.NewAdviceService(
		service.AdviceWithIntakeRepository(intakeRepo),
		service.AdviceWithDocumentRepository(docRepo),
		service.AdviceWithRunRepository(runRepo),
		service.AdviceWithStorage(docStorage),
		service.AdviceWithGenerativeService(gen),
		service.AdviceWithRasterizer(ingest.NewFitzRasterizer(cfg.Ingest.RasterDPI)),
		service.AdviceWithDescribeVisuals(cfg.Ingest.DescribeVisuals),
		service.AdviceWithLogger(appLogger),
	)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(intakeService, cfg.Ingest.MaxFileSize)
	intakeHandler := handlers.NewIntakeHandler(intakeService)
	advisoryHandler := handlers.NewAdvisoryHandler(adviceService)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Document endpoints
		api.POST("/documents", documentHandler.UploadDocument)
		api.GET("/documents/:id", documentHandler.GetDocument)

		// Intake endpoints
		api.POST("/intakes", intakeHandler.CreateIntake)
		api.GET("/intakes/:id", intakeHandler.GetIntake)
		api.POST("/intakes/:id/advise", advisoryHandler.StartAdvisory)

		// Run endpoints
		api.GET("/runs/:id", advisoryHandler.GetRun)
		api.GET("/runs/:id/export", advisoryHandler.ExportRun)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
