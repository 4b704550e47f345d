package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required setting is missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrSyncCancelled indicates a sync run stopped because cancellation was requested.
	// It is a terminal outcome of its own, not a failure.
	ErrSyncCancelled = errors.New("sync cancelled")

	// Authentication Errors.

	// ErrAuthRequired indicates no account has been signed in.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the authentication has expired and refresh failed.
	ErrAuthExpired = errors.New("authentication expired")

	// Remote Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrRemoteUnavailable indicates the remote service could not be reached.
	ErrRemoteUnavailable = errors.New("remote service unavailable")
)
