// internal/common/errors/handler.go
package errors

import "time"

// Handler converts external-call failures into user-facing fallback text.
// Anything that can be expressed as natural-language tool output is absorbed
// here and fed back into the conversation, so the model can phrase it for the
// user in the required language. Only the final model call escapes this path.
type Handler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Flatten collapses a (text, error) pair into plain text. On success the
// text passes through unchanged; on failure the error is logged and the
// fallback sentence is returned instead. Errors never propagate past this
// boundary.
func (h *Handler) Flatten(text string, err error, fallback string) string {
	if err == nil {
		return text
	}

	stdErr := h.normalizeError(err)
	h.logger.Error("external call failed, substituting fallback text", map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	return fallback
}

// normalizeError ensures we always have a StandardError
func (h *Handler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
