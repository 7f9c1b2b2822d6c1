package domain

import "errors"

// User is the identity record. The password hash is opaque and never leaves
// the credential store except for verify-only comparison.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
