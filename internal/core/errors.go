package core

import "errors"

var (
	// ErrInvalidAction marks a recognized action with a bad or missing argument.
	ErrInvalidAction = errors.New("invalid action")

	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoDatabase is returned by push when no database is configured.
	ErrNoDatabase = errors.New("database not configured")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when a request carries no file.
	ErrNoFile = errors.New("no file provided")

	// ErrUnauthorized is returned for a missing or wrong API key.
	ErrUnauthorized = errors.New("unauthorized")
)
