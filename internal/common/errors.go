// Package common defines sentinel errors shared by the server and the client.
// Callers match them with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Stock errors.
	ErrInsufficientStock = errors.New("insufficient stock")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBlocked      = errors.New("user blocked")
)
