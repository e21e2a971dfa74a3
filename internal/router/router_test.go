package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/handlers"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/logging"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/pipeline"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/extraction"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okProcessor struct{}

func (okProcessor) Run(ctx context.Context, data []byte) (*pipeline.Outcome, error) {
	return &pipeline.Outcome{PDF: []byte("%PDF-ok"), Provenance: extraction.ProvenanceTextLayer}, nil
}

func uploadRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("%PDF-1.4"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestSetupRoutes(t *testing.T) {
	token, err := middleware.GenerateJWT("ops", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	h := handlers.NewHandler(okProcessor{}, nil, logging.Discard(), 1<<20, handlers.ServiceInfo{Version: "test"})
	open := Setup(h, Options{Log: logging.Discard()})
	secured := Setup(h, Options{Log: logging.Discard(), Auth: middleware.AuthConfig{JWTSecret: "secret"}})

	tests := []struct {
		name       string
		router     *gin.Engine
		req        func() *http.Request
		wantStatus int
	}{
		{"upload at root path", open, func() *http.Request { return uploadRequest(t, "/pdf/upload") }, http.StatusCreated},
		{"upload at versioned path", open, func() *http.Request { return uploadRequest(t, "/api/v1/pdf/upload") }, http.StatusCreated},
		{"health is public", secured, func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/v1/health", nil) }, http.StatusOK},
		{"docs are public", secured, func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil) }, http.StatusOK},
		{"upload requires auth when configured", secured, func() *http.Request { return uploadRequest(t, "/pdf/upload") }, http.StatusUnauthorized},
		{"upload with token", secured, func() *http.Request {
			req := uploadRequest(t, "/pdf/upload")
			req.Header.Set("Authorization", "Bearer "+token)
			return req
		}, http.StatusCreated},
		{"history disabled without database", open, func() *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/v1/pdf/corrections", nil)
		}, http.StatusServiceUnavailable},
		{"unknown route", open, func() *http.Request { return httptest.NewRequest(http.MethodGet, "/nope", nil) }, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.router.ServeHTTP(w, tt.req())
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("response missing request ID")
			}
		})
	}
}
