// Package http serves the record-keeping JSON API and the month page.
//
// This file implements the Builder Pattern for constructing JSON replies so
// every endpoint answers with the same {success, error} envelope.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ledger/internal/api"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse(payload any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		payload:    payload,
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// Success replies 200 {"success": true}.
func Success() *JSONResponseBuilder {
	return NewJSONResponse(api.Reply{Success: true})
}

// ErrorResponse replies {"success": false, "error": message}.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse(api.Reply{Success: false, Error: message}).Status(statusCode)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError answers a rate-limited request.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, api.MsgTooManyRequests)
}
