// Package security holds the two credential primitives of the service: the
// bcrypt password hasher and the opaque session token codec.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

// TokenCodec generates opaque bearer tokens and derives the deterministic
// lookup hash under which a session is stored. The raw token is handed to
// the client exactly once and never persisted.
type TokenCodec struct {
	tokenBytes int
	sessionTTL time.Duration
}

// NewTokenCodec returns a codec producing tokens of tokenBytes random bytes
// (minimum 32, giving at least 256 bits of entropy) and sessions that live
// for sessionTTL (default 8 hours).
func NewTokenCodec(tokenBytes int, sessionTTL time.Duration) *TokenCodec {
	if tokenBytes < 32 {
		tokenBytes = 32
	}
	if sessionTTL <= 0 {
		sessionTTL = 8 * time.Hour
	}
	return &TokenCodec{tokenBytes: tokenBytes, sessionTTL: sessionTTL}
}

// Generate returns a fresh URL-safe random token and its lookup hash.
func (c *TokenCodec) Generate() (rawToken, lookupHash string, err error) {
	buf := make([]byte, c.tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	rawToken = base64.RawURLEncoding.EncodeToString(buf)
	return rawToken, c.Hash(rawToken), nil
}

// Hash derives the lookup hash of a raw token: SHA-256, hex encoded.
// Deterministic so the same derivation works symmetrically at lookup time.
func (c *TokenCodec) Hash(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}

// Expiry returns the expiry instant for a session created at now. Session
// lifetime is fixed at creation, not recomputed at validation time.
func (c *TokenCodec) Expiry(now time.Time) time.Time {
	return now.Add(c.sessionTTL)
}
