// Package credentials hashes and verifies user passwords with bcrypt.
package credentials

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash returns a salted bcrypt hash of the password.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// Verify reports whether the password matches the hash.
// A mismatch or a malformed hash both yield false.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
