package server

import (
	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/handlers"
	"github.com/drivewise/drivewise-backend/internal/middleware"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log                   *logger.Logger
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	VehicleHandler        *handlers.VehicleHandler
	SessionHandler        *handlers.SessionHandler
	ScanHandler           *handlers.ScanHandler
	TriageHandler         *handlers.TriageHandler
	RecommendationHandler *handlers.RecommendationHandler
	BookingHandler        *handlers.BookingHandler
	KnowledgeHandler      *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Vehicles
	api.POST("/vehicles", cfg.VehicleHandler.Create)
	api.GET("/vehicles", cfg.VehicleHandler.List)
	api.GET("/vehicles/:id", cfg.VehicleHandler.Get)
	api.GET("/vehicles/:id/timeline", cfg.VehicleHandler.Timeline)
	api.POST("/vehicles/:id/dtc-clear", cfg.VehicleHandler.ClearDTCs)

	// Scan sessions and ingestion
	api.POST("/scan-sessions", cfg.SessionHandler.Open)
	api.GET("/scan-sessions/:id", cfg.SessionHandler.Get)
	api.POST("/scan-sessions/:id/close", cfg.SessionHandler.Close)
	api.GET("/scan-sessions/:id/events", cfg.SessionHandler.Events)
	api.POST("/scan-sessions/:id/scans", cfg.ScanHandler.Ingest)

	// Triage and diagnostics
	api.POST("/triage/resolve", cfg.TriageHandler.Preview)
	api.GET("/diagnostic-events/:id/triage", cfg.TriageHandler.ResolveForEvent)
	api.GET("/diagnostic-events/:id/likely-causes", cfg.TriageHandler.LikelyCauses)

	// Recommendations
	api.POST("/diagnostic-events/:id/recommendation", cfg.RecommendationHandler.Generate)
	api.GET("/diagnostic-events/:id/recommendation", cfg.RecommendationHandler.GetLatest)

	// Bookings
	api.POST("/bookings", cfg.BookingHandler.Create)
	api.GET("/bookings", cfg.BookingHandler.List)
	api.POST("/bookings/:id/respond", cfg.BookingHandler.PartnerTransition)
	api.POST("/bookings/:id/confirm", cfg.BookingHandler.CustomerTransition)

	// Admin
	admin := api.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.PUT("/knowledge", cfg.KnowledgeHandler.Upsert)
	admin.GET("/knowledge/codes", cfg.KnowledgeHandler.ListCodes)
	admin.PATCH("/recommendations/:id/active", cfg.RecommendationHandler.SetActive)

	return router
}
