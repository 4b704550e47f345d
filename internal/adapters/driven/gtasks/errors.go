package gtasks

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// Common Google Tasks API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google tasks: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("google tasks: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested task or list was not found.
	ErrNotFound = errors.New("google tasks: resource not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("google tasks: rate limit exceeded")

	// ErrUnavailable indicates a server-side failure.
	ErrUnavailable = errors.New("google tasks: service unavailable")
)

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || statusCode(err) == http.StatusUnauthorized
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	code := statusCode(err)
	return errors.Is(err, ErrNotFound) || code == http.StatusNotFound || code == http.StatusGone
}

// IsRateLimited returns true if the error indicates rate limiting.
// Google reports per-user quota exhaustion as 403 with a rateLimitExceeded reason.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// retryAfter returns the Retry-After header of a rate limit response in seconds.
func retryAfter(err error) int {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	secs, convErr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if convErr != nil {
		return 0
	}
	return secs
}

func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// WrapError converts a Google API error into a package error that also
// matches the corresponding domain error with errors.Is.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case IsRateLimited(err):
		return fmt.Errorf("%w: %w", ErrRateLimited, domain.ErrRateLimited)
	case IsUnauthorized(err):
		return fmt.Errorf("%w: %w", ErrUnauthorized, domain.ErrAuthExpired)
	case statusCode(err) == http.StatusForbidden:
		return ErrForbidden
	case IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, domain.ErrNotFound)
	case statusCode(err) >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", ErrUnavailable, domain.ErrRemoteUnavailable)
	default:
		return err
	}
}
