package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recalliq-ai/backend/internal/domain/entities"
	"github.com/recalliq-ai/backend/internal/infrastructure/http/middleware"
	"github.com/recalliq-ai/backend/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	authHandler    *Auth
	meetingHandler *Meeting
	userHandler    *User
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, authHandler *Auth, meetingHandler *Meeting, userHandler *User, authMiddleware *middleware.AuthMiddleware) *Router {
	return &Router{
		cfg:            cfg,
		authHandler:    authHandler,
		meetingHandler: meetingHandler,
		userHandler:    userHandler,
		authMiddleware: authMiddleware,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	if rt.cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupAuthRoutes(v1)
	rt.setupUserRoutes(v1)
	rt.setupMeetingRoutes(v1)
	rt.setupUsageRoutes(v1)
}

// setupAuthRoutes configures authentication routes
func (rt *Router) setupAuthRoutes(g *echo.Group) {
	authGroup := g.Group("/auth")

	authGroup.POST("/register", rt.authHandler.Register)
	authGroup.POST("/login", rt.authHandler.Login)
	authGroup.POST("/refresh", rt.authHandler.Refresh)
	authGroup.POST("/logout", rt.authHandler.Logout)
	authGroup.GET("/me", rt.authHandler.Me, rt.authMiddleware.Authenticate())
}

// setupUserRoutes configures profile routes
func (rt *Router) setupUserRoutes(g *echo.Group) {
	userGroup := g.Group("/users", rt.authMiddleware.Authenticate())

	userGroup.PATCH("/me", rt.userHandler.UpdateProfile)
	userGroup.POST("/me/password", rt.userHandler.ChangePassword)
	userGroup.DELETE("/me", rt.userHandler.Deactivate)

	adminGroup := g.Group("/admin", rt.authMiddleware.Authenticate(), rt.authMiddleware.RequireRole(entities.RoleAdmin))
	adminGroup.GET("/users", rt.userHandler.List)
}

// setupMeetingRoutes configures meeting analysis and curation routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meetings", rt.authMiddleware.Authenticate())

	meetingGroup.POST("/analyze", rt.meetingHandler.Analyze)
	meetingGroup.POST("/transcribe", rt.meetingHandler.Transcribe)
	meetingGroup.GET("", rt.meetingHandler.List)
	meetingGroup.GET("/stats", rt.meetingHandler.Stats)
	meetingGroup.GET("/:id", rt.meetingHandler.Get)
	meetingGroup.DELETE("/:id", rt.meetingHandler.Archive)
	meetingGroup.POST("/:id/reanalyze", rt.meetingHandler.Reanalyze)
	meetingGroup.POST("/:id/regenerate-email", rt.meetingHandler.RegenerateEmail)
	meetingGroup.POST("/:id/export", rt.meetingHandler.Export)
	meetingGroup.GET("/:id/action-items", rt.meetingHandler.ActionItems)
	meetingGroup.GET("/:id/decisions", rt.meetingHandler.Decisions)

	itemGroup := g.Group("/action-items", rt.authMiddleware.Authenticate())
	itemGroup.PATCH("/:id", rt.meetingHandler.UpdateActionItem)

	decisionGroup := g.Group("/decisions", rt.authMiddleware.Authenticate())
	decisionGroup.PATCH("/:id", rt.meetingHandler.UpdateDecision)
}

// setupUsageRoutes configures usage history routes
func (rt *Router) setupUsageRoutes(g *echo.Group) {
	usageGroup := g.Group("/usage", rt.authMiddleware.Authenticate())

	usageGroup.GET("", rt.userHandler.Usage)
	usageGroup.GET("/summary", rt.userHandler.UsageSummary)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
