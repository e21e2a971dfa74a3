// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/handlers"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/middleware"
)

// Options carries the cross-cutting settings the router needs.
type Options struct {
	AllowedOrigins []string
	Auth           middleware.AuthConfig
	RateLimiter    *middleware.RateLimiter
	Log            logrus.FieldLogger
}

// Setup creates and configures the Gin router with all routes.
func Setup(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// --- Public Routes (no auth required) ---
	r.GET("/api/v1/health", h.HealthCheck)

	// API Documentation
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)

	// --- Protected Routes (API key OR JWT when configured) ---
	protected := r.Group("/")
	protected.Use(middleware.Auth(opts.Auth))
	if opts.RateLimiter != nil {
		protected.Use(opts.RateLimiter.RateLimit())
	}
	{
		protected.POST("/pdf/upload", h.UploadPDF)
		protected.POST("/api/v1/pdf/upload", h.UploadPDF)

		protected.GET("/api/v1/pdf/corrections", h.ListCorrections)
		protected.GET("/api/v1/pdf/corrections/:id", h.GetCorrection)
	}

	return r
}
