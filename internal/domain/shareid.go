package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// shareIDBytes is the entropy of a generated share id.
	shareIDBytes = 16

	// ShareIDLength is the length of a hex encoded share id.
	ShareIDLength = shareIDBytes * 2
)

// GenerateShareID returns a fresh random share id (32 lowercase hex chars).
func GenerateShareID() (string, error) {
	b := make([]byte, shareIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidShareID reports whether id has the exact shape of a share id.
// It must be called before any store lookup.
func ValidShareID(id string) bool {
	if len(id) != ShareIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
