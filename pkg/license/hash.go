package license

import (
	"crypto/sha256"
	"encoding/hex"
)

// TokenHash returns the hex SHA-256 of a raw token. This is the only form
// of the token that may be persisted, logged, or embedded in errors.
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Redact returns a short, log-safe identifier for a token.
func Redact(token string) string {
	if token == "" {
		return "sha256:empty"
	}
	return "sha256:" + TokenHash(token)[:12]
}
