// Package handlers defines the error codes returned by the admin API and the
// interactions webhook.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every error body is an ErrorResponse:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "user is already banned"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidPayload = "invalid_interaction"
	ErrCodeValidation     = "validation_failed"
)
