// Package service provides the application workflows for users and places.
package service

import (
	"errors"
	"net/http"
)

// Failure kinds. Every error returned by a workflow wraps exactly one of
// these, so callers can branch with errors.Is. None of them is retried.
var (
	// ErrNotFound indicates the requested user or place does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the operation would violate a uniqueness rule,
	// such as signing up with an email that is already registered.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates caller-supplied input was rejected.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	// Both cases are reported identically.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthFailure indicates hashing, verification or token signing broke.
	ErrAuthFailure = errors.New("authentication failure")

	// ErrGeocodeFailed indicates an address could not be resolved to coordinates.
	ErrGeocodeFailed = errors.New("geocoding failed")

	// ErrWriteFailed indicates the storage backend failed. Reads that fail
	// for infrastructure reasons use it too.
	ErrWriteFailed = errors.New("storage operation failed")
)

// Failure is the error type returned by workflows. Message is safe to show
// to clients; Err holds the internal cause and is only meant for logs.
type Failure struct {
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Err != nil {
		return f.Message + ": " + f.Err.Error()
	}
	return f.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind}
	}
	return []error{f.Kind, f.Err}
}

// Status is the HTTP status hint for the failure kind.
func (f *Failure) Status() int {
	return StatusFor(f.Kind)
}

// StatusFor returns the HTTP status hint for a failure kind.
func StatusFor(kind error) int {
	switch {
	case errors.Is(kind, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, ErrConflict), errors.Is(kind, ErrValidation), errors.Is(kind, ErrGeocodeFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(kind, ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func newFailure(kind error, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: cause}
}

// AsFailure extracts the *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Client-facing messages.
const (
	msgInvalidInput       = "invalid inputs passed, please check your data"
	msgPlaceNotFound      = "could not find a place for the provided id"
	msgUserPlacesNotFound = "could not find places for the provided user id"
	msgUserNotFound       = "could not find user for provided id"
	msgFetchPlacesFailed  = "fetching places failed, please try again later"
	msgCreatePlaceFailed  = "creating place failed, please try again"
	msgUpdatePlaceFailed  = "something went wrong, could not update place"
	msgDeletePlaceFailed  = "something went wrong, could not delete place"
	msgGeocodeFailed      = "could not find location for the specified address"
	msgUserExists         = "user exists already, please login instead"
	msgSignupFailed       = "signing up failed, please try again later"
	msgLoginFailed        = "logging in failed, please try again later"
	msgInvalidCredentials = "invalid credentials, could not log you in"
	msgAuthFailed         = "could not complete authentication, please try again"
	msgFetchUsersFailed   = "fetching users failed, please try again later"
)
