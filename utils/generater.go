package utils

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// GenerateSecureToken returns n random bytes encoded URL-safe without padding.
func GenerateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func GenerateUUID() string {
	return uuid.NewString()
}
