// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// The `db` tags work with sqlx for database column mapping. The database
// package handles persistence; models carry no behaviour of their own.
package models

import "time"

// CorrectionStatus is the final state of a processed upload.
// Go Pattern: We use string constants instead of enums (Go doesn't have enums).
type CorrectionStatus string

const (
	StatusCompleted CorrectionStatus = "completed"
	StatusFailed    CorrectionStatus = "failed"
)

// CorrectionRecord is one row of processing history. Only metadata is kept;
// neither the uploaded document nor any extracted or corrected text is stored.
type CorrectionRecord struct {
	ID           string           `json:"id" db:"id"`
	RequestID    string           `json:"request_id" db:"request_id"`
	OriginalName string           `json:"original_name" db:"original_name"`
	SizeBytes    int64            `json:"size_bytes" db:"size_bytes"`
	PageCount    int              `json:"page_count" db:"page_count"`
	Provenance   string           `json:"provenance,omitempty" db:"provenance"` // "text_layer" or "ocr"
	Status       CorrectionStatus `json:"status" db:"status"`
	FailedStage  string           `json:"failed_stage,omitempty" db:"failed_stage"`
	ErrorKind    string           `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage string           `json:"error_message,omitempty" db:"error_message"`
	DurationMS   int64            `json:"duration_ms" db:"duration_ms"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// ErrorResponse is the standard error format returned by JSON endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Database  string `json:"database"`
	Corrector string `json:"corrector"` // correction backend in use
	OCR       string `json:"ocr"`       // OCR engine description
}
