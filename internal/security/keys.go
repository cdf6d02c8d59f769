package security

import (
	"encoding/base64"
	"errors"
	"os"
	"strings"
)

// ErrInvalidKey is returned when the signing secret is missing or too short.
var ErrInvalidKey = errors.New("invalid key")

// MinSigningKeyLen is the shortest HS512 secret accepted (512 bits).
const MinSigningKeyLen = 64

// LoadSigningKey resolves the HS512 secret from s. s may be:
//   - "base64:<data>" for a base64-encoded secret,
//   - a path to a file holding the secret (surrounding whitespace trimmed),
//   - the raw secret itself.
func LoadSigningKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	var key []byte
	switch {
	case strings.HasPrefix(s, "base64:"):
		b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, "base64:"))
		if err != nil {
			return nil, ErrInvalidKey
		}
		key = b
	case isFile(s):
		b, err := os.ReadFile(s)
		if err != nil {
			return nil, err
		}
		key = []byte(strings.TrimSpace(string(b)))
	default:
		key = []byte(s)
	}
	if len(key) < MinSigningKeyLen {
		return nil, ErrInvalidKey
	}
	return key, nil
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
