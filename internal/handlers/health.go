// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, Data, Status)
// - Middleware data (c.Get/c.Set)
//
// We group related handlers into a struct (Handler) that holds shared
// dependencies, instead of reaching for globals.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/models"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/pipeline"
)

// Processor runs one document through the correction pipeline.
type Processor interface {
	Run(ctx context.Context, data []byte) (*pipeline.Outcome, error)
}

// HistoryStore persists processing history. *database.DB implements it.
type HistoryStore interface {
	HealthCheck(ctx context.Context) error
	CreateCorrection(ctx context.Context, r *models.CorrectionRecord) error
	GetCorrection(ctx context.Context, id string) (*models.CorrectionRecord, error)
	ListCorrections(ctx context.Context, limit, offset int) ([]models.CorrectionRecord, error)
}

// ServiceInfo describes the running configuration for the health endpoint.
type ServiceInfo struct {
	Version   string
	Corrector string
	OCR       string
}

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Tests build a Handler
// with fakes; main wires the real services.
type Handler struct {
	Pipeline      Processor
	History       HistoryStore // nil when no database is configured
	Log           logrus.FieldLogger
	MaxUploadSize int64
	Info          ServiceInfo
}

// NewHandler creates a new handler with all dependencies.
// Pass a nil history to run without a database.
func NewHandler(p Processor, history HistoryStore, log logrus.FieldLogger, maxUploadSize int64, info ServiceInfo) *Handler {
	return &Handler{
		Pipeline:      p,
		History:       history,
		Log:           log,
		MaxUploadSize: maxUploadSize,
		Info:          info,
	}
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.History != nil {
		dbStatus = "healthy"
		if err := h.History.HealthCheck(c.Request.Context()); err != nil {
			dbStatus = "unhealthy: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   h.Info.Version,
		Database:  dbStatus,
		Corrector: h.Info.Corrector,
		OCR:       h.Info.OCR,
	})
}
