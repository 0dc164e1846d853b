package domain

import "errors"

// Expected domain outcomes. These are ordinary control-flow results the API
// layer translates to 4xx responses; anything else is an internal fault.
//
// ErrInvalidCredentials deliberately covers both "no such user" and "wrong
// password" so responses cannot be used to enumerate registered emails.
// ErrInvalidSession likewise covers unknown, expired, revoked, and
// owner-deactivated tokens.
var (
	ErrUserExists         = errors.New("a user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("user account is deactivated")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSession     = errors.New("invalid or expired session token")
	ErrPasswordHashing    = errors.New("failed to process password")
)
