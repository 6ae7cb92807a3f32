package handler

import (
	"github.com/dafibh/sitebook/sitebook-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every API handler for route registration
type Handlers struct {
	Site        *SiteHandler
	Category    *CategoryHandler
	Transaction *TransactionHandler
	Diary       *DiaryHandler
	Budget      *BudgetHandler
	Attachment  *AttachmentHandler
	Integrity   *IntegrityHandler
	WebSocket   *WebSocketHandler
	Health      *HealthHandler
}

// RegisterRoutes sets up all API routes. authMiddleware may be nil, in which case the API is open.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, h Handlers) {
	e.GET("/health", h.Health.Health)

	// WebSocket (token may come from the query string)
	e.GET("/ws", h.WebSocket.HandleWS, authMiddleware.Authenticate())

	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())

	// Site routes
	sites := api.Group("/sites")
	sites.POST("", h.Site.CreateSite)
	sites.GET("", h.Site.GetSites)
	sites.GET("/:id", h.Site.GetSite)
	sites.PUT("/:id", h.Site.UpdateSite)
	sites.DELETE("/:id", h.Site.DeleteSite)
	sites.GET("/:id/summary", h.Budget.GetSummary)
	sites.GET("/:id/export", h.Budget.Export)

	// Site-scoped collections
	sites.POST("/:id/categories", h.Category.CreateCategory)
	sites.GET("/:id/categories", h.Category.GetCategories)
	sites.POST("/:id/incomes", h.Transaction.CreateIncome)
	sites.GET("/:id/incomes", h.Transaction.GetIncomes)
	sites.POST("/:id/expenses", h.Transaction.CreateExpense)
	sites.GET("/:id/expenses", h.Transaction.GetExpenses)
	sites.POST("/:id/diary", h.Diary.CreateEntry)
	sites.GET("/:id/diary", h.Diary.GetEntries)

	// Category routes
	categories := api.Group("/categories")
	categories.GET("/:id", h.Category.GetCategory)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	// Income routes
	incomes := api.Group("/incomes")
	incomes.GET("/:id", h.Transaction.GetIncome)
	incomes.PUT("/:id", h.Transaction.UpdateIncome)
	incomes.DELETE("/:id", h.Transaction.DeleteIncome)

	// Expense routes
	expenses := api.Group("/expenses")
	expenses.GET("/:id", h.Transaction.GetExpense)
	expenses.PUT("/:id", h.Transaction.UpdateExpense)
	expenses.DELETE("/:id", h.Transaction.DeleteExpense)

	// Diary routes
	diary := api.Group("/diary")
	diary.GET("/:id", h.Diary.GetEntry)
	diary.PUT("/:id", h.Diary.UpdateEntry)
	diary.DELETE("/:id", h.Diary.DeleteEntry)

	// Attachment routes
	attachments := api.Group("/attachments")
	attachments.POST("/:ownerKind/:ownerId/:kind", h.Attachment.Upload)
	attachments.DELETE("/:ownerKind/:ownerId", h.Attachment.Detach)
	attachments.GET("/:ownerKind/:ownerId/resolve", h.Attachment.Resolve)

	// Integrity routes
	integrity := api.Group("/integrity")
	integrity.POST("/check", h.Integrity.Check)
	integrity.GET("/latest", h.Integrity.GetLatest)
	integrity.GET("/history", h.Integrity.GetHistory)
	integrity.POST("/repair", h.Integrity.Repair)
	integrity.POST("/repair/batch", h.Integrity.BatchRepair)
}
