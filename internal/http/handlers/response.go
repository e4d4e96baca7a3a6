// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints, including structured error envelopes, consistent JSON
// serialization, and helpers for common HTTP patterns. The goal is to
// guarantee uniform responses for both success and failure cases, making the
// API predictable and machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - Validation failures carry field-keyed messages in `fields`, so clients
//     can attach them to the offending form inputs.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx
//     responses are logged with request context for observability.
//   - `ok()` and `noContent()` simplify writing success responses in a
//     consistent shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "message": "invalid input",
//	  "fields": { "weight": "must match 0.00 with at most 2 decimals" }
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workout-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: optional correlation ID, echoed from X-Request-ID, used to
//     correlate server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable description, safe for display to users.
//   - Fields: per-field validation messages, present only for
//     validation_failed responses.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"workout not found"`
	// Field-keyed validation messages
	Fields map[string]string `json:"fields,omitempty"`
}

// fail aborts the request with a structured error and logs server-side
// errors. Server errors (>=500) are logged using the request-scoped logger
// from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	failFields(c, status, code, msg, nil)
}

// failFields is fail with field-keyed validation messages attached.
func failFields(c *gin.Context, status int, code, msg string, fields map[string]string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Fields:    fields,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported
// helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response with the given status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
