// Package apperrors defines the error taxonomy for the service and its
// mapping onto HTTP status codes.
package apperrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidationError signals missing or malformed client input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigurationError signals missing server-side configuration, such as an
// unset provider API key.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ProviderError wraps a non-2xx response from the upstream AI provider. The
// upstream status code is propagated to the client.
type ProviderError struct {
	StatusCode int
	Msg        string
}

func (e *ProviderError) Error() string { return e.Msg }

// EmptyReplyError signals a successful provider response that contained no
// usable reply text.
type EmptyReplyError struct{}

func (e *EmptyReplyError) Error() string { return "no reply text found in provider response" }

// ResultMissingError signals an image task that reported success without a
// result URL.
type ResultMissingError struct{}

func (e *ResultMissingError) Error() string { return "image generated, but URL not found" }

// SubmissionError signals failure to obtain a task id when submitting an
// image synthesis job.
type SubmissionError struct {
	Msg string
}

func (e *SubmissionError) Error() string { return e.Msg }

// GenerationFailedError signals an image task that ended FAILED or CANCELED.
type GenerationFailedError struct {
	Msg string
}

func (e *GenerationFailedError) Error() string { return e.Msg }

// TimeoutError signals that the image polling budget was exhausted while the
// task was still pending or running. Kept distinct from GenerationFailedError
// so callers can map it to 504.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string { return "image generation timed out" }

// NotFoundError signals an unknown conversation id.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string {
	if e.Msg == "" {
		return "not found"
	}
	return e.Msg
}

// Status maps an error to the HTTP status code the boundary should respond
// with. Unrecognized errors map to 500.
func Status(err error) int {
	var (
		validation *ValidationError
		provider   *ProviderError
		timeout    *TimeoutError
		notFound   *NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &provider):
		if provider.StatusCode >= 400 {
			return provider.StatusCode
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// JSON writes the standard {"error": ...} body with the mapped status.
func JSON(c *gin.Context, err error) {
	c.JSON(Status(err), gin.H{"error": err.Error()})
}
