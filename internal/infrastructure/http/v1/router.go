// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// LedgerService handles items and movements
	LedgerService *ledger.Service

	// ReportsService handles journal queries and summaries
	ReportsService *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1 - all endpoints require a valid token
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		registerLedgerRoutes(v1, cfg)
		registerReportRoutes(v1, cfg)
	}

	return router
}

// registerLedgerRoutes registers item and movement endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewLedgerHandler(baseHandler, cfg.LedgerService)

	items := rg.Group("/items")
	{
		items.POST("", handler.CreateItem)
		items.GET("", handler.ListItems)
		items.GET("/:id", handler.GetItem)
	}

	txns := rg.Group("/transactions")
	{
		txns.POST("/inbound", handler.RecordInbound)
		txns.POST("/outbound", handler.RecordOutbound)
		txns.POST("/adjustment", handler.RecordAdjustment)
		txns.GET("/:id", handler.GetTransaction)
		txns.GET("/number/:number", handler.GetTransactionByNumber)
		txns.POST("/:id/cancel", handler.CancelTransaction)
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewReportsHandler(baseHandler, cfg.ReportsService)

	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/transactions", handler.ListTransactions)
		reportsGroup.GET("/summary", handler.Summarize)

		// Repair endpoint rewrites item state, admins only.
		reportsGroup.POST("/items/:id/rebuild", middleware.RequireRole("admin"), handler.RebuildItemCache)
	}
}
