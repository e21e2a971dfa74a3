// Package main is the entry point for the PDF Corrector API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Shimizu-Technology/pdf-corrector-api/internal/config"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/database"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/handlers"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/logging"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/middleware"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/pipeline"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/router"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/corrector"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/extraction"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/ocr"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/ocr/fitz"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/ocr/tesseract"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-corrector-api/internal/services/render"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	issueToken := flag.String("issue-token", "", "print a JWT for the given subject and exit (needs JWT_SECRET)")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of tokens printed by -issue-token")
	hashKey := flag.String("hash-key", "", "print the bcrypt hash of an API key for API_KEY_HASH and exit")
	flag.Parse()

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	// Operator helpers: print and exit without starting the server.
	if *hashKey != "" {
		hash, err := middleware.HashAPIKey(*hashKey)
		if err != nil {
			log.WithError(err).Fatal("❌ Failed to hash API key")
		}
		fmt.Println(hash)
		return
	}
	if *issueToken != "" {
		token, err := middleware.GenerateJWT(*issueToken, cfg.JWTSecret, *tokenTTL)
		if err != nil {
			log.WithError(err).Fatal("❌ Failed to issue token")
		}
		fmt.Println(token)
		return
	}

	log.Infof("🚀 PDF Corrector API %s starting...", Version)
	log.WithFields(logrus.Fields{
		"port":     cfg.Port,
		"gin_mode": cfg.GinMode,
		"provider": cfg.CorrectionProvider,
	}).Info("📋 Config loaded")

	gin.SetMode(cfg.GinMode)

	// Step 2: Connect to Database (optional)
	var history handlers.HistoryStore
	if cfg.HistoryEnabled() {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("❌ Failed to connect to database")
		}
		defer db.Close()
		log.Info("✅ Database connected")

		if err := db.RunMigrations(cfg.MigrationsPath, log); err != nil {
			log.WithError(err).Fatal("❌ Migration failed")
		}
		history = db
	} else {
		log.Info("⚠️  No DATABASE_URL set, processing history disabled")
	}

	// Step 3: Create Services
	ctx := context.Background()

	ocrExtractor := ocr.NewExtractor(
		fitz.NewRasterizer(cfg.OCRDPI),
		tesseract.NewRecognizer(cfg.OCRLanguages...),
		cfg.ScratchDir,
		log,
	)
	selector := extraction.NewSelector(pdf.NewExtractor(), ocrExtractor, log)

	corr, correctorName, closeCorrector, err := newCorrector(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Failed to create corrector")
	}
	defer closeCorrector()

	p := pipeline.New(selector, corr, render.NewRenderer(), pipeline.Timeouts{
		Extraction: cfg.OCRTimeout,
		Correction: cfg.CorrectionTimeout,
	}, log)

	if cfg.AuthEnabled() {
		log.Info("✅ Authentication enabled")
	} else {
		log.Info("⚠️  No API_KEY_HASH or JWT_SECRET set, uploads are open")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerHour)
	defer rateLimiter.Stop()

	// Step 4: Setup HTTP Router
	h := handlers.NewHandler(p, history, log, cfg.MaxUploadSize, handlers.ServiceInfo{
		Version:   Version,
		Corrector: correctorName,
		OCR:       fmt.Sprintf("tesseract [%s] @ %.0fdpi", strings.Join(cfg.OCRLanguages, ","), cfg.OCRDPI),
	})
	r := router.Setup(h, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Auth:           middleware.AuthConfig{APIKeyHash: cfg.APIKeyHash, JWTSecret: cfg.JWTSecret},
		RateLimiter:    rateLimiter,
		Log:            log,
	})

	// Step 5: Start the HTTP Server
	// Write timeout covers the slowest path: OCR plus a correction round trip.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.OCRTimeout + cfg.CorrectionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Infof("📖 Docs: http://localhost:%s/api/docs", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("❌ Server failed")
		}
	}()

	// Step 6: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Infof("🛑 Received signal %v, shutting down gracefully...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("⚠️  Server forced to shutdown")
	}

	log.Info("👋 Server stopped. Goodbye!")
}

// newCorrector builds the configured correction backend. The returned close
// function is always safe to call.
func newCorrector(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (corrector.Corrector, string, func(), error) {
	switch cfg.CorrectionProvider {
	case config.ProviderVertex:
		v, err := corrector.NewVertexClient(ctx, corrector.VertexOptions{
			ProjectID: cfg.VertexProjectID,
			Region:    cfg.VertexRegion,
			Model:     cfg.VertexModel,
			MaxTokens: cfg.CorrectionMaxTokens,
		}, log)
		if err != nil {
			return nil, "", func() {}, err
		}
		return v, "vertex/" + cfg.VertexModel, func() { v.Close() }, nil
	default:
		if cfg.OpenAIAPIKey == "" {
			log.Warn("⚠️  OPENAI_API_KEY not set, every correction will fail")
		}
		c := corrector.NewClient(corrector.Options{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.CorrectionModel,
			MaxTokens: cfg.CorrectionMaxTokens,
			Timeout:   cfg.CorrectionTimeout,
		}, log)
		return c, "openai/" + cfg.CorrectionModel, func() {}, nil
	}
}
