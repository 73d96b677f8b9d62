// Package apperrors defines the error taxonomy shared by the service layer.
// Handlers translate these into HTTP status codes; services and stores only
// ever wrap them.
package apperrors

import "errors"

var (
	// ErrNotFound means an expense, share or user id did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied means the principal lacks the required relationship
	// to the resource (not the creator, not a share holder).
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidArgument means the payload failed business validation,
	// e.g. a non-positive amount or an unknown category.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict means a uniqueness constraint was violated, e.g. a
	// duplicate username or email on registration.
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated means no valid principal accompanies the request.
	ErrUnauthenticated = errors.New("unauthenticated")
)
