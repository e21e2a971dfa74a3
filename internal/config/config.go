// Package config handles application configuration.
//
// Go Pattern: Configuration via environment variables with sensible defaults.
// A .env file in the working directory is loaded first (if present) so local
// development doesn't require exporting every variable by hand.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Correction providers understood by the server.
const (
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port          string
	GinMode       string // "debug", "release", or "test"
	MaxUploadSize int64  // Max accepted multipart body, in bytes

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Database settings (optional, processing history is disabled when empty)
	DatabaseURL    string
	MigrationsPath string

	// Correction service
	CorrectionProvider  string // "openai" or "vertex"
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	CorrectionModel     string
	CorrectionMaxTokens int
	CorrectionTimeout   time.Duration

	// Vertex AI (only used when CorrectionProvider == "vertex")
	VertexProjectID string
	VertexRegion    string
	VertexModel     string

	// OCR fallback
	OCRLanguages []string
	OCRDPI       float64
	OCRTimeout   time.Duration
	ScratchDir   string // Parent directory for per-request scratch directories

	// Authentication. Both optional; when neither is set the API is open
	APIKeyHash string // bcrypt hash of the accepted X-API-Key value
	JWTSecret  string

	// Rate limiting
	RateLimitPerHour int

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
//
// Go Pattern: Functions that can fail return (value, error). The caller MUST
// handle the error.
func Load() (*Config, error) {
	// A missing .env file is normal in containers; every value has a default.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_SIZE", 50<<20)),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

		CorrectionProvider:  strings.ToLower(getEnv("CORRECTION_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		CorrectionModel:     getEnv("CORRECTION_MODEL", "gpt-3.5-turbo"),
		CorrectionMaxTokens: getEnvInt("CORRECTION_MAX_TOKENS", 1024),
		CorrectionTimeout:   getEnvDuration("CORRECTION_TIMEOUT", 120*time.Second), // LLMs can be slow

		VertexProjectID: getEnv("VERTEX_PROJECT_ID", ""),
		VertexRegion:    getEnv("VERTEX_REGION", "us-central1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-1.5-pro"),

		OCRLanguages: getEnvList("OCR_LANGUAGES", []string{"eng"}),
		OCRDPI:       getEnvFloat("OCR_DPI", 150),
		OCRTimeout:   getEnvDuration("OCR_TIMEOUT", 5*time.Minute),
		ScratchDir:   getEnv("SCRATCH_DIR", os.TempDir()),

		APIKeyHash: getEnv("API_KEY_HASH", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),

		RateLimitPerHour: getEnvInt("RATE_LIMIT_PER_HOUR", 100),

		AllowedOrigins: getEnvList("CORS_ORIGIN", []string{"http://localhost:5173"}),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	switch c.CorrectionProvider {
	case ProviderOpenAI:
		// In release mode, refuse to start without a credential. Every request
		// would fail at the correction stage otherwise.
		if c.GinMode == "release" && c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set in production")
		}
	case ProviderVertex:
		if c.VertexProjectID == "" {
			return fmt.Errorf("VERTEX_PROJECT_ID must be set when CORRECTION_PROVIDER=vertex")
		}
	default:
		return fmt.Errorf("unknown CORRECTION_PROVIDER %q (expected %q or %q)", c.CorrectionProvider, ProviderOpenAI, ProviderVertex)
	}

	if c.CorrectionMaxTokens <= 0 {
		return fmt.Errorf("CORRECTION_MAX_TOKENS must be positive, got %d", c.CorrectionMaxTokens)
	}
	if c.OCRDPI <= 0 {
		return fmt.Errorf("OCR_DPI must be positive, got %v", c.OCRDPI)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}
	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must list at least one language")
	}
	return nil
}

// AuthEnabled reports whether any authentication method is configured.
func (c *Config) AuthEnabled() bool {
	return c.APIKeyHash != "" || c.JWTSecret != ""
}

// HistoryEnabled reports whether processing history should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback.
func getEnvInt(key string, fallback int) int {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvFloat reads a float environment variable with a fallback.
func getEnvFloat(key string, fallback float64) float64 {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fallback
	}
	return val
}

// getEnvDuration reads a duration like "90s" or "5m".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	val, err := time.ParseDuration(str)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}

// getEnvList reads a comma-separated list, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	str := getEnv(key, "")
	if str == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(str, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
