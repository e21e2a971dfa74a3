// Package apperrors defines the error kinds produced by the correction pipeline.
//
// Every stage reports failures as an *Error tagged with a Kind. Callers use
// KindOf to classify an error for logging; the HTTP layer never exposes the
// kind to clients.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind categorizes a pipeline failure.
type Kind string

const (
	// KindMalformedInput means the upload could not be parsed as a PDF.
	// It only triggers the OCR fallback and never fails a request by itself.
	KindMalformedInput Kind = "malformed_input"
	// KindRasterization means PDF pages could not be turned into images.
	KindRasterization Kind = "rasterization"
	// KindRecognition means the OCR engine failed on a page image.
	KindRecognition Kind = "recognition"
	// KindCorrectionService means the remote completion call failed.
	KindCorrectionService Kind = "correction_service"
	// KindRendering means the corrected PDF could not be authored.
	KindRendering Kind = "rendering"
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = "unknown"
)

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a classified error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// MalformedInput creates a KindMalformedInput error.
func MalformedInput(message string, cause error) *Error {
	return New(KindMalformedInput, message, cause)
}

// Rasterization creates a KindRasterization error.
func Rasterization(message string, cause error) *Error {
	return New(KindRasterization, message, cause)
}

// Recognition creates a KindRecognition error.
func Recognition(message string, cause error) *Error {
	return New(KindRecognition, message, cause)
}

// CorrectionService creates a KindCorrectionService error.
func CorrectionService(message string, cause error) *Error {
	return New(KindCorrectionService, message, cause)
}

// Rendering creates a KindRendering error.
func Rendering(message string, cause error) *Error {
	return New(KindRendering, message, cause)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
