package handlers

const (
	ErrInvalidRequest      = "Invalid request body"
	ErrInvalidID           = "Invalid ID"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInvalidCSRF         = "Invalid CSRF token"
	ErrInternalServerError = "Internal server error"
)
