package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-import-service/internal/assets"
	"catalog-import-service/internal/config"
	"catalog-import-service/internal/handlers"
	"catalog-import-service/internal/importer"
	"catalog-import-service/internal/middleware"
	"catalog-import-service/internal/repository"
)

// @title Catalog Import API
// @version 1.0.0
// @description Sheet music catalog import service: CSV ingestion, product family reconciliation, and bundle synthesis

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	catalogRepo := repository.NewCatalogRepository(db, redisClient)

	importLog := logrus.NewEntry(logger).WithField("component", "importer")
	resolver := assets.NewResolver(
		cfg.ImageDir, cfg.SoundDir, cfg.FileDir,
		cfg.MediaDest, cfg.ProtectedDest,
		importLog,
	)
	orchestrator := importer.NewOrchestrator(catalogRepo, resolver, cfg.WorkDir, importLog)
	orchestrator.DefaultChunkSize = cfg.DefaultChunkSize
	orchestrator.MaxChunkSize = cfg.MaxChunkSize

	importHandler := handlers.NewImportHandler(orchestrator, logrus.NewEntry(logger).WithField("component", "import_handler"))
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logrus.NewEntry(logger).WithField("component", "catalog_handler"))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/products", catalogHandler.ListProducts)
			catalog.GET("/products/:sku", catalogHandler.GetProductBySKU)
			catalog.GET("/families/:baseSku", catalogHandler.GetFamily)

			catalog.GET("/import/template", importHandler.GetImportTemplate)
			catalog.POST("/import", importHandler.StartImport)
			catalog.POST("/import/:token/chunk", importHandler.ProcessChunk)
			catalog.POST("/import/:token/finalize", importHandler.Finalize)
			catalog.POST("/bundles/:token/chunk", importHandler.ProcessBundleChunk)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog import service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Catalog import service stopped")
}
