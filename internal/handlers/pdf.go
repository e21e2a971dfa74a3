// pdf.go handles the PDF correction endpoints.
//
// POST /pdf/upload                      Upload a PDF, get the corrected PDF back
// POST /api/v1/pdf/upload               Same, under the versioned prefix
// GET  /api/v1/pdf/corrections          List recent processing history
// GET  /api/v1/pdf/corrections/:id      Get one history record
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/apperrors"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/database"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/models"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/pipeline"
	pdfservice "github.com/Shimizu-Technology/pdf-corrector-api/internal/services/pdf"
)

const (
	// processingFailedBody is the fixed body of every failed upload.
	processingFailedBody = "Erro ao processar PDF"

	// ProvenanceHeader tells the client where the text came from.
	ProvenanceHeader = "X-Extraction-Provenance"

	historyWriteTimeout = 5 * time.Second
)

// UploadPDF runs an uploaded PDF through extraction, correction and rendering
// and returns the corrected document.
// POST /pdf/upload
//
// Accepts multipart file upload with field name "file". Processing is
// synchronous. Any pipeline failure produces the same plain-text 500 so
// clients never see internal error details.
func (h *Handler) UploadPDF(c *gin.Context) {
	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error:   "file_too_large",
				Message: "The uploaded file exceeds the maximum allowed size of " + strconv.FormatInt(h.MaxUploadSize, 10) + " bytes",
				Code:    http.StatusRequestEntityTooLarge,
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "No PDF file provided. Upload a file with the field name 'file'.",
			Code:    http.StatusBadRequest,
		})
		return
	}
	defer file.Close()

	// Go Pattern: io.ReadAll reads the entire reader into a byte slice.
	// The PDF parsers need random access, so the document lives in memory.
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusBadRequest,
		})
		return
	}

	requestID := middleware.GetRequestID(c)
	log := h.Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"filename":   header.Filename,
		"size_bytes": len(data),
	})
	log.Info("📥 PDF received")

	ctx := pipeline.WithRequestID(c.Request.Context(), requestID)
	outcome, runErr := h.Pipeline.Run(ctx, data)

	h.recordHistory(c.Request.Context(), log, requestID, header.Filename, data, outcome, runErr)

	if runErr != nil {
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte(processingFailedBody))
		return
	}

	c.Header("Content-Disposition", "attachment; filename=corrected.pdf")
	c.Header(ProvenanceHeader, string(outcome.Provenance))
	c.Data(http.StatusCreated, "application/pdf", outcome.PDF)
}

// recordHistory writes one history row. Failures are logged and never
// affect the response.
func (h *Handler) recordHistory(ctx context.Context, log logrus.FieldLogger, requestID, filename string, data []byte, outcome *pipeline.Outcome, runErr error) {
	if h.History == nil {
		return
	}

	// Page count is metadata only; unreadable documents simply record 0.
	pages, _ := pdfservice.PageCount(data)

	rec := &models.CorrectionRecord{
		RequestID:    requestID,
		OriginalName: filename,
		SizeBytes:    int64(len(data)),
		PageCount:    pages,
	}
	if runErr != nil {
		rec.Status = models.StatusFailed
		rec.FailedStage = string(pipeline.StageOf(runErr))
		rec.ErrorKind = string(apperrors.KindOf(runErr))
		rec.ErrorMessage = runErr.Error()
	} else {
		rec.Status = models.StatusCompleted
		rec.Provenance = string(outcome.Provenance)
		rec.DurationMS = outcome.Duration.Milliseconds()
	}

	// Detach from the request's cancellation so a client disconnect doesn't
	// drop the row, but still bound the write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	if err := h.History.CreateCorrection(ctx, rec); err != nil {
		log.WithError(err).Warn("⚠️  Failed to save correction history")
	}
}

// GetCorrection retrieves a single history record by ID.
// GET /api/v1/pdf/corrections/:id
func (h *Handler) GetCorrection(c *gin.Context) {
	if !h.historyAvailable(c) {
		return
	}

	rec, err := h.History.GetCorrection(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Correction not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("Failed to get correction")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to get correction",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListCorrections returns recent history records, newest first.
// GET /api/v1/pdf/corrections?limit=20&offset=0
func (h *Handler) ListCorrections(c *gin.Context) {
	if !h.historyAvailable(c) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.History.ListCorrections(c.Request.Context(), limit, offset)
	if err != nil {
		h.Log.WithError(err).Error("Failed to list corrections")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to list corrections",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	// Go Pattern: A nil slice marshals to null; clients expect [].
	if records == nil {
		records = []models.CorrectionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// historyAvailable writes a 503 and returns false when no database is configured.
func (h *Handler) historyAvailable(c *gin.Context) bool {
	if h.History != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error:   "history_disabled",
		Message: "Processing history is not enabled on this server (set DATABASE_URL)",
		Code:    http.StatusServiceUnavailable,
	})
	return false
}
