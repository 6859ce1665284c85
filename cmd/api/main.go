package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duongtx90/markdown-viewer/docs"
	"github.com/duongtx90/markdown-viewer/internal/config"
	"github.com/duongtx90/markdown-viewer/internal/database"
	"github.com/duongtx90/markdown-viewer/internal/database/migration"
	handlers "github.com/duongtx90/markdown-viewer/internal/http/handler"
	"github.com/duongtx90/markdown-viewer/internal/http/middleware"
	"github.com/duongtx90/markdown-viewer/internal/otel"
	"github.com/duongtx90/markdown-viewer/internal/repository/postgres"
	"github.com/duongtx90/markdown-viewer/internal/service"
	"github.com/duongtx90/markdown-viewer/internal/storage"
)

// @title Markdown Viewer API
// @version 1.0
// @BasePath /
func main() {
	ctx := context.Background()
	loc := time.UTC

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing first so the DB driver wrapper picks up the provider.
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Content store backend per config: flat files by default, MinIO optional.
	var contentStore storage.Store
	switch cfg.Storage.Backend {
	case "minio":
		contentStore, err = storage.NewMinIO(cfg.MinIO)
	default:
		contentStore, err = storage.NewFilesystemStore(cfg.Storage.Path)
	}
	if err != nil {
		log.Fatalf("failed to initialize content store: %v", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(contentStore, docRepo, cfg.MaxContentBytes)

	// Optional background expiration sweeper; lazy on-access expiration
	// stays correct without it.
	if cfg.CleanupInterval > 0 {
		sweeper := service.NewSweeper(docRepo, contentStore, cfg.CleanupInterval)
		go sweeper.Run(ctx)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(loc))
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
