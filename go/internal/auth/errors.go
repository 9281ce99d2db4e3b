package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleMismatch is returned when a valid credential belongs to a different role.
	ErrRoleMismatch = errors.New("credential role mismatch")
	// ErrUnauthorized is returned when a capability does not grant the requested action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCredentialNotFound is returned by credential stores for unknown usernames.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrSessionNotFound is returned for unknown, revoked or expired session tokens.
	ErrSessionNotFound = errors.New("session not found")
)
