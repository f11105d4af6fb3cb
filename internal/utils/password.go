package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is enforced when an operator hashes a new moderator
// password.
const MinPasswordLen = 12

// ErrWeakPassword is returned by HashPassword for short passwords.
var ErrWeakPassword = errors.New("password too short")

// HashPassword returns a bcrypt hash using cost; a cost below
// bcrypt.DefaultCost is raised to it.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	if cost < bcrypt.DefaultCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares plain against a bcrypt hash.  An empty hash never
// matches, so an unconfigured moderator password disables login.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
