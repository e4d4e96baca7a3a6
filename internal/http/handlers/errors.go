// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes symbolic error code constants that are mapped to
// HTTP responses (via the `fail()` helper in this package). These codes give
// clients a stable, machine-readable error taxonomy supplementing
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless noted.
//   - Generic codes (bad_request, not_found, conflict, …) mirror common
//     HTTP status semantics.
//   - validation_failed responses additionally carry a field-keyed `fields`
//     map (see response.go).
//   - Ownership failures reuse not_found: the API never distinguishes
//     "does not exist" from "not yours".
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_failed"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeUpdateFailed     = "update_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
