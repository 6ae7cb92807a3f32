package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/sitebook/sitebook-backend/internal/config"
	"github.com/dafibh/sitebook/sitebook-backend/internal/domain"
	"github.com/dafibh/sitebook/sitebook-backend/internal/handler"
	"github.com/dafibh/sitebook/sitebook-backend/internal/middleware"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/localstore"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/postgres"
	"github.com/dafibh/sitebook/sitebook-backend/internal/repository/storage"
	"github.com/dafibh/sitebook/sitebook-backend/internal/service"
	"github.com/dafibh/sitebook/sitebook-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Connect to database
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Object storage is optional, attachments fall back to the local store without it
	var objectStorage domain.ObjectStorage
	if s, err := storage.New(ctx, cfg.Storage); err != nil {
		log.Warn().Err(err).Str("driver", cfg.Storage.Driver).Msg("Object storage unavailable, running local-only")
	} else {
		objectStorage = s
		log.Info().Str("driver", cfg.Storage.Driver).Str("bucket", cfg.Storage.Bucket).Msg("Connected to object storage")
	}

	localStore, err := localstore.NewSQLiteStore(cfg.LocalStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer localStore.Close()

	// Initialize repositories
	siteRepo := postgres.NewSiteRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	incomeRepo := postgres.NewIncomeRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	diaryRepo := postgres.NewDiaryRepository(pool)
	ownerRepo := postgres.NewAttachmentOwnerRepository(pool)

	// WebSocket hub for real-time updates
	hub := websocket.NewHub()

	// Initialize services
	attachmentService := service.NewAttachmentService(objectStorage, localStore, ownerRepo, cfg.Attachment, log.Logger)
	attachmentService.SetEventPublisher(hub)
	integrityService := service.NewIntegrityService(ownerRepo, objectStorage, localStore, cfg.Integrity, log.Logger)
	integrityService.SetEventPublisher(hub)

	siteService := service.NewSiteService(siteRepo, categoryRepo, incomeRepo, expenseRepo, diaryRepo)
	categoryService := service.NewCategoryService(categoryRepo, siteRepo, expenseRepo, diaryRepo)
	incomeService := service.NewIncomeService(incomeRepo, siteRepo)
	expenseService := service.NewExpenseService(expenseRepo, categoryRepo, siteRepo)
	diaryService := service.NewDiaryService(diaryRepo, categoryRepo, siteRepo)

	siteService.SetEventPublisher(hub)
	siteService.SetAttachmentService(attachmentService)
	categoryService.SetEventPublisher(hub)
	categoryService.SetAttachmentService(attachmentService)
	incomeService.SetEventPublisher(hub)
	incomeService.SetAttachmentService(attachmentService)
	expenseService.SetEventPublisher(hub)
	expenseService.SetAttachmentService(attachmentService)
	diaryService.SetEventPublisher(hub)
	diaryService.SetAttachmentService(attachmentService)

	budgetService := service.NewBudgetService(siteRepo, categoryRepo, incomeRepo, expenseRepo)
	exportService := service.NewExportService(budgetService, categoryRepo, incomeRepo, expenseRepo)

	// Initialize auth middleware
	var authMiddleware *middleware.AuthMiddleware
	if cfg.AuthEnabled() {
		authMiddleware, err = middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
	} else {
		log.Warn().Msg("AUTH0_DOMAIN not set, API is unauthenticated")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	// Background integrity scan
	var integrityWorker *service.IntegrityWorker
	if objectStorage != nil && cfg.Integrity.ScanInterval > 0 {
		integrityWorker = service.NewIntegrityWorker(integrityService, log.Logger, service.IntegrityWorkerConfig{
			Interval: cfg.Integrity.ScanInterval,
		})
		integrityWorker.Start(ctx)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Multipart uploads carry several files per request
	e.Use(echomiddleware.BodyLimit("64M"))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Register routes
	handler.RegisterRoutes(e, authMiddleware, handler.Handlers{
		Site:        handler.NewSiteHandler(siteService),
		Category:    handler.NewCategoryHandler(categoryService),
		Transaction: handler.NewTransactionHandler(incomeService, expenseService),
		Diary:       handler.NewDiaryHandler(diaryService),
		Budget:      handler.NewBudgetHandler(budgetService, exportService),
		Attachment:  handler.NewAttachmentHandler(attachmentService),
		Integrity:   handler.NewIntegrityHandler(integrityService),
		WebSocket:   handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
		Health:      handler.NewHealthHandler(pool, objectStorage != nil),
	})

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if integrityWorker != nil {
		integrityWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
