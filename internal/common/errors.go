package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound    = errors.New("resource not found")
	ErrPersistence = errors.New("persistence failure")

	// Content errors
	ErrContentNotFound     = errors.New("content not found")
	ErrContentTypeUnknown  = errors.New("unknown content type")
	ErrSecurityViolation   = errors.New("record id does not match the submitted form")
	ErrAccessControl       = errors.New("not allowed to change ownership")
	ErrDisallowedOperation = errors.New("operation not allowed")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
