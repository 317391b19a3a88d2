package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrCapacityExceeded indicates the home-library list is full
	ErrCapacityExceeded = fmt.Errorf("no more than %d home libraries allowed", MaxMyLibraries)

	// ErrDuplicateMember indicates the library is already registered
	ErrDuplicateMember = errors.New("library is already registered")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrRemoteUnavailable indicates the backend API is unreachable
	ErrRemoteUnavailable = errors.New("backend API is unreachable")

	// ErrAuthRequired indicates the session is missing or expired
	ErrAuthRequired = errors.New("sign in required")
)

// RemoteError is an application-level rejection from the backend API
// (non-2xx with a response). It carries the server-provided message when
// one was available, otherwise a generic status-derived one.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return statusMessage(e.Status)
}

// NewRemoteError builds a RemoteError, substituting a default message for
// the status code when the server did not provide one.
func NewRemoteError(status int, message string) *RemoteError {
	if message == "" {
		message = statusMessage(status)
	}
	return &RemoteError{Status: status, Message: message}
}

// IsRemoteRejection reports whether err is a server-side rejection as
// opposed to a transport failure.
func IsRemoteRejection(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func statusMessage(status int) string {
	switch status {
	case 400:
		return "invalid request"
	case 401:
		return "sign in required"
	case 403:
		return "permission denied"
	case 404:
		return "resource not found"
	case 409:
		return "resource already exists"
	case 500:
		return "server error"
	case 503:
		return "service temporarily unavailable"
	default:
		return fmt.Sprintf("request failed with status %d", status)
	}
}
