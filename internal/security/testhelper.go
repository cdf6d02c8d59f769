package security

import (
	"strings"
	"time"
)

// testSigningKey is for unit tests only. Do not use in production.
var testSigningKey = []byte(strings.Repeat("test-signing-key-", 4))

// NewTestTokenCodec returns a TokenCodec with a fixed test secret, issuer "NTL",
// access 1h, refresh 30d and reset 5m. For unit tests only.
func NewTestTokenCodec() *TokenCodec {
	return NewTokenCodec(testSigningKey, "NTL", TokenTTLs{
		Access:        time.Hour,
		Refresh:       30 * 24 * time.Hour,
		ResetPassword: 5 * time.Minute,
	})
}
