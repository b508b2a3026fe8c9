package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is the default cost for bcrypt hashing.
	bcryptCost = 10
)

// HashCredential generates a bcrypt hash of the credential a client presents.
func HashCredential(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hash), nil
}

// CompareCredential compares a bcrypt hashed credential with its plaintext version.
func CompareCredential(hashed, credential string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(credential))
}
