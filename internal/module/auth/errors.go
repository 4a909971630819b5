package auth

import "errors"

var (
	// ErrTokenNotFound is returned when a bearer token resolves to no user.
	ErrTokenNotFound = errors.New("token not found")

	// ErrStateNotFound is returned when an OAuth state is unknown or expired.
	ErrStateNotFound = errors.New("oauth state not found")
)
