/*
password.go - bcrypt password hashing and verification

PURPOSE:
  Admin passwords are stored as bcrypt hashes. Hashing happens when an
  account is seeded or updated; verification happens on every login.

SEE ALSO:
  - token.go: JWT issued after a successful verification
  - api/auth.go: Login handler that calls VerifyPassword
*/
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned when a password doesn't match its hash.
// Login handlers return the same message for unknown usernames so the
// response doesn't leak which half was wrong.
var ErrBadCredentials = errors.New("invalid credentials")

// HashPassword creates a bcrypt hash of the provided password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
func VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrBadCredentials
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}
