// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps application errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financeiro/internal/app"
	"financeiro/internal/backup"
	"financeiro/internal/core"
	"financeiro/internal/log"
	"financeiro/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       []byte
	payload    any
	hasPayload bool
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	b.hasPayload = true
	return b
}

// Raw sets an already encoded body with its content type.
func (b *JSONResponseBuilder) Raw(contentType string, body []byte) *JSONResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.body = body
	b.hasPayload = false
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	if b.hasPayload {
		encoded, err := json.Marshal(b.payload)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.Header().Del("Content-Type")
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 && b.statusCode != http.StatusNoContent {
		_, _ = w.Write(body)
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string, details ...string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		JSON(ErrorBody{Error: message, Details: details})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string, details ...string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, details...)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string, details ...string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, details...)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ServiceUnavailableError creates a 503 response.
func ServiceUnavailableError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}

// errorResponseFor maps an application error to a response and the error
// category used in logs.
func errorResponseFor(err error) (*JSONResponseBuilder, string) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError("invalid input", verr.Problems...), log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error()), log.ErrorTypeNotFound
	case errors.Is(err, backup.ErrMalformedSnapshot):
		return BadRequestError("malformed snapshot", err.Error()), log.ErrorTypeMalformed
	case errors.Is(err, app.ErrNotStarted):
		return ServiceUnavailableError("ledger not loaded"), log.ErrorTypeInternal
	case errors.Is(err, storage.ErrStorage):
		return InternalServerError("the change was applied but could not be saved"), log.ErrorTypeStorage
	default:
		return InternalServerError("internal error"), log.ErrorTypeInternal
	}
}
