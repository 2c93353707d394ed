package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Prefix marks aranea management tokens. Log redaction keys on it.
const Prefix = "art_"

// DefaultLength is the number of random bytes in a token.
const DefaultLength = 32

// Generate returns a new random token.
func Generate() (string, error) {
	buf := make([]byte, DefaultLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return Prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}
