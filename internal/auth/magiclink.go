package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// MagicLinkTTL is how long a magic-link token stays redeemable
const MagicLinkTTL = 15 * time.Minute

// NewMagicLinkToken generates a one-time login token. It returns the
// plaintext token (goes into the delivery email, never stored) and its
// SHA-256 hash (stored for lookup on redemption).
func NewMagicLinkToken() (token string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate magic link token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashMagicLinkToken(token), nil
}

// HashMagicLinkToken returns the hex-encoded SHA-256 hash of a token
func HashMagicLinkToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
