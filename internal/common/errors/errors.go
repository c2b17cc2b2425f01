// Package errors provides standardized error handling for the advisory pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Startup-only, fatal.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Transport failure to an external collaborator. Recovered locally
	// into textual fallback content, except for the final LLM call.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeLLMFailed       ErrorCode = "LLM_COMPLETION_FAILED"
	ErrCodeWeatherFailed   ErrorCode = "WEATHER_QUERY_FAILED"
	ErrCodeMarketFailed    ErrorCode = "MARKET_QUERY_FAILED"
	ErrCodeCalendarFailed  ErrorCode = "CALENDAR_QUERY_FAILED"
	ErrCodeRetrievalFailed ErrorCode = "RETRIEVAL_QUERY_FAILED"
	ErrCodeClassifyFailed  ErrorCode = "CLASSIFICATION_FAILED"

	// The model requested a tool that is not registered.
	ErrCodeUnknownTool ErrorCode = "UNKNOWN_TOOL"

	// Malformed upload or tool argument.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationError creates a fatal startup configuration error.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Missing or invalid process configuration",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewExternalServiceError creates a transport error for a named collaborator.
func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMFailedError creates an error for a failed chat completion call.
func NewLLMFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMFailed,
		Message:   "Chat completion API error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownToolError creates an error for an unregistered tool name.
func NewUnknownToolError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownTool,
		Message:   "Requested tool is not registered",
		Details:   fmt.Sprintf("tool: %s", name),
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates an error for malformed caller or model input.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Input validation failed",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrievalFailedError creates an error for a failed vector index query.
func NewRetrievalFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailed,
		Message:   "Vector index query error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationFailedError creates an error for a failed classifier call.
func NewClassificationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassifyFailed,
		Message:   "Image classifier error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "CLASSIFICATION"):
		return "AI"
	case strings.Contains(codeStr, "WEATHER") || strings.Contains(codeStr, "MARKET") ||
		strings.Contains(codeStr, "CALENDAR"):
		return "TOOL"
	case strings.Contains(codeStr, "RETRIEVAL"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
