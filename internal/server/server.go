// internal/server/server.go
// HTTP server setup with dependency injection

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/api"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/config"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/database"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/middleware"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/services"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/websocket"
)

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	router   *gin.Engine
	services *services.Container
	logger   *logrus.Logger
	server   *http.Server
}

// New creates a new server with all dependencies
func New(cfg *config.Config, db *database.Connections, logger *logrus.Logger) *Server {
	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Live update hub feeds schedule change events to subscribed clients
	var hub *websocket.Hub
	if cfg.Features.EnableWebSocket {
		hub = websocket.NewHub(logger)
		go hub.Run()
	}

	// Create service container with all business logic
	var notifier services.ScheduleNotifier
	if hub != nil {
		notifier = hub
	}
	serviceContainer := services.NewContainer(db, cfg, notifier, logger)

	// Create router with middleware
	router := setupRouter(cfg, db, serviceContainer, hub, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		config:   cfg,
		router:   router,
		services: serviceContainer,
		logger:   logger,
		server:   srv,
	}
}

// setupRouter configures all routes and middleware
func setupRouter(cfg *config.Config, db *database.Connections, services *services.Container, hub *websocket.Hub, logger *logrus.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimiter(services.Cache))

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * 3600, // 12 hours
	}))

	// Maintenance mode middleware
	if cfg.Features.MaintenanceMode {
		router.Use(middleware.MaintenanceMode())
	}

	// Health check (always available)
	router.GET("/health", api.HealthCheck(cfg, db))

	// API routes
	v1 := router.Group("/api/v1")
	{
		api.RegisterTournamentRoutes(v1, services, cfg)
		api.RegisterEventRoutes(v1, services, cfg)
	}

	// WebSocket endpoint (if enabled)
	if hub != nil {
		router.GET("/ws", middleware.OptionalAuth(cfg.Auth), websocket.HandleConnection(hub))
	}

	return router
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}
