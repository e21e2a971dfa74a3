package config

import (
	"reflect"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment can't leak
// into the test. t.Setenv restores the previous values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "MAX_UPLOAD_SIZE", "LOG_LEVEL", "LOG_FORMAT",
		"DATABASE_URL", "MIGRATIONS_PATH", "CORRECTION_PROVIDER", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "CORRECTION_MODEL", "CORRECTION_MAX_TOKENS", "CORRECTION_TIMEOUT",
		"VERTEX_PROJECT_ID", "VERTEX_REGION", "VERTEX_MODEL", "OCR_LANGUAGES", "OCR_DPI",
		"OCR_TIMEOUT", "SCRATCH_DIR", "API_KEY_HASH", "JWT_SECRET", "RATE_LIMIT_PER_HOUR",
		"CORS_ORIGIN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CorrectionProvider != ProviderOpenAI {
		t.Errorf("CorrectionProvider = %q, want %q", cfg.CorrectionProvider, ProviderOpenAI)
	}
	if cfg.OpenAIBaseURL != "https://api.openai.com/v1" {
		t.Errorf("OpenAIBaseURL = %q, trailing slash should be trimmed", cfg.OpenAIBaseURL)
	}
	if cfg.CorrectionMaxTokens != 1024 {
		t.Errorf("CorrectionMaxTokens = %d, want 1024", cfg.CorrectionMaxTokens)
	}
	if cfg.CorrectionTimeout != 120*time.Second {
		t.Errorf("CorrectionTimeout = %v, want 2m0s", cfg.CorrectionTimeout)
	}
	if cfg.OCRTimeout != 5*time.Minute {
		t.Errorf("OCRTimeout = %v, want 5m0s", cfg.OCRTimeout)
	}
	if !reflect.DeepEqual(cfg.OCRLanguages, []string{"eng"}) {
		t.Errorf("OCRLanguages = %v, want [eng]", cfg.OCRLanguages)
	}
	if cfg.MaxUploadSize != 50<<20 {
		t.Errorf("MaxUploadSize = %d, want %d", cfg.MaxUploadSize, 50<<20)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true with no credentials configured")
	}
	if cfg.HistoryEnabled() {
		t.Error("HistoryEnabled() = true with no DATABASE_URL")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "release mode without api key",
			env:     map[string]string{"GIN_MODE": "release", "CORRECTION_PROVIDER": "openai"},
			wantErr: true,
		},
		{
			name:    "release mode with api key",
			env:     map[string]string{"GIN_MODE": "release", "CORRECTION_PROVIDER": "openai", "OPENAI_API_KEY": "sk-test"},
			wantErr: false,
		},
		{
			name:    "vertex without project",
			env:     map[string]string{"CORRECTION_PROVIDER": "vertex"},
			wantErr: true,
		},
		{
			name:    "vertex with project",
			env:     map[string]string{"CORRECTION_PROVIDER": "Vertex", "VERTEX_PROJECT_ID": "demo"},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"CORRECTION_PROVIDER": "carrier-pigeon"},
			wantErr: true,
		},
		{
			name:    "negative max tokens",
			env:     map[string]string{"CORRECTION_PROVIDER": "openai", "CORRECTION_MAX_TOKENS": "-5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tt.wantErr && err == nil {
				t.Error("Load() expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Load() unexpected error: %v", err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_LIST", " eng, por ,,deu ")
	if got := getEnvList("TEST_LIST", nil); !reflect.DeepEqual(got, []string{"eng", "por", "deu"}) {
		t.Errorf("getEnvList() = %v", got)
	}

	t.Setenv("TEST_DURATION", "not-a-duration")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() = %v, want fallback 1s", got)
	}

	t.Setenv("TEST_DURATION", "90s")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 1m30s", got)
	}

	t.Setenv("TEST_INT", "abc")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() = %d, want fallback 7", got)
	}

	t.Setenv("TEST_FLOAT", "300")
	if got := getEnvFloat("TEST_FLOAT", 1); got != 300 {
		t.Errorf("getEnvFloat() = %v, want 300", got)
	}
}
