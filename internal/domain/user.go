// Package domain contains the core data types for the dive logbook.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import "time"

// Account field limits. MaxPasswordLength is bcrypt's input limit in bytes.
// Usernames are echoed in session flashes, which must fit in a cookie.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	MaxUsernameLength = 50
	MaxEmailLength    = 254
)

// User is an account holder. User is the root aggregate for bucket-list and
// journal entries; deleting a user removes both.
//
// PasswordHash holds the bcrypt hash and is never rendered or logged.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Confirmed    bool
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
}

// SignupInput carries the fields collected by the signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// ProfileInput carries the fields collected by the profile edit form.
// Password is the user's current password, used only to re-authenticate.
type ProfileInput struct {
	Username string
	Email    string
	Password string
}
