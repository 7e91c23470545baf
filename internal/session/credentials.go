package session

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"trimsdesk/internal/model"
)

const bcryptCost = 10

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// verify checks password against u. needsRehash is set when the record still
// holds a legacy plaintext password that matched.
func verify(u *model.User, password string) (ok, needsRehash bool) {
	if u.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil, false
	}
	if u.LegacyPassword == "" {
		return false, false
	}
	match := subtle.ConstantTimeCompare([]byte(u.LegacyPassword), []byte(password)) == 1
	return match, match
}
