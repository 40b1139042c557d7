package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database, or is not owned by the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing username, rating outside 1..5).
// Handlers should re-render the form with the message.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write collides with an existing row: a taken
// username or email, or a (user, site) pair already present in the bucket
// list or dive journal.
var ErrConflict = errors.New("already exists")

// ErrInvalidCredentials is returned when a password re-check fails during a
// profile update. Handlers must not reveal which part of the credentials was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when an email confirmation token is malformed,
// signed with another key, or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrAlreadyConfirmed is returned when confirming an account that is already confirmed.
var ErrAlreadyConfirmed = errors.New("already confirmed")
