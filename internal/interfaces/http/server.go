// Package http provides the HTTP adapter for the application services.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/event-invoice-analyzer/internal/application/port"
	"github.com/garyjia/event-invoice-analyzer/internal/application/service"
	"github.com/garyjia/event-invoice-analyzer/internal/storage"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxUploadBytes bounds the whole request body of upload endpoints
	MaxUploadBytes int64
	// ExtractionEnabled is reported by the health check
	ExtractionEnabled bool
	Version           string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   300 * time.Second,
		MaxUploadBytes: 100 << 20,
		Version:        "dev",
	}
}

// Dependencies are the collaborators the server routes to
type Dependencies struct {
	Analysis       service.AnalysisService
	Reconciliation service.ReconciliationService
	Folders        *storage.FolderManager
	Metrics        port.MetricsRecorder
	// MetricsHandler serves /metrics; the route is omitted when nil
	MetricsHandler http.Handler
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	deps       Dependencies
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		config: config,
		deps:   deps,
		router: gin.New(),
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("Panic while handling request",
			zap.Any("panic", recovered),
			zap.String("request_id", c.GetString(requestIDKey)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
	}))
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

// requestIDMiddleware keeps a client-supplied request ID or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs each request and records its latency
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		s.deps.Metrics.ObserveRequest(method, route, status, latency)

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)))
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.deps, s.config, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	if s.deps.MetricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.MetricsHandler))
	}

	api := s.router.Group("/api")
	{
		api.POST("/analyze", handlers.Analyze)
		api.POST("/reconcile", handlers.Reconcile)
		api.POST("/breakdown", handlers.Breakdown)
		api.POST("/match", handlers.Match)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
