// Package errors provides the structured API error responses the HTTP
// surface returns, including the mapping from pipeline stage errors
// to stable error codes.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"vmgen/internal/dataset"
	"vmgen/internal/exporter"
	"vmgen/internal/meterlist"
	"vmgen/internal/pipeline"
	"vmgen/internal/timegrid"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a request validation failure detail
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrMissingUpload    = New(http.StatusBadRequest, "MISSING_UPLOAD", "Upload file is required")
	ErrUploadTooLarge   = New(http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "Upload exceeds the size limit")
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrRateLimited      = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// FromPipelineError maps a pipeline stage error to a structured API
// error with a stable error code, so callers can distinguish the
// failing stage without parsing messages.
func FromPipelineError(err error) *APIError {
	var shapeErr *meterlist.MalformedShapeError
	var freqErr *timegrid.UnsupportedFrequencyError
	var rangeErr *timegrid.InvalidRangeError
	var integrityErr *pipeline.IntegrityError
	var packagingErr *exporter.PackagingError

	switch {
	case errors.Is(err, meterlist.ErrEmptyInput), errors.Is(err, dataset.ErrEmptyInput):
		return New(http.StatusBadRequest, "EMPTY_INPUT", err.Error())
	case errors.Is(err, meterlist.ErrNoValidMeters):
		return New(http.StatusBadRequest, "NO_VALID_METERS", err.Error())
	case errors.As(err, &shapeErr):
		return NewWithDetails(http.StatusBadRequest, "MALFORMED_SHAPE", shapeErr.Error(),
			map[string]int{"row": shapeErr.Row, "columns": shapeErr.Columns})
	case errors.As(err, &freqErr):
		return New(http.StatusBadRequest, "UNSUPPORTED_FREQUENCY", freqErr.Error())
	case errors.As(err, &rangeErr):
		return New(http.StatusBadRequest, "INVALID_RANGE", rangeErr.Error())
	case errors.As(err, &integrityErr):
		return NewWithDetails(http.StatusUnprocessableEntity, "INTEGRITY_VALIDATION_FAILED",
			integrityErr.Error(), integrityErr.Report)
	case errors.As(err, &packagingErr):
		return New(http.StatusInternalServerError, "PACKAGING_FAILED", packagingErr.Error())
	default:
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
			"Internal server error", err.Error())
	}
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(NewErrorResponse(err))
}

// ErrPanic creates a panic recovery error
func ErrPanic(rec interface{}) *APIError {
	return NewWithDetails(
		http.StatusInternalServerError,
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		fmt.Sprintf("%v", rec),
	)
}
