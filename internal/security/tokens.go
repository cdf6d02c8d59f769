package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	accountdomain "libmanage/backend/internal/account/domain"
)

var (
	// ErrMalformedToken is returned when a token cannot be split or decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature is returned when the MAC does not match or the algorithm is not HS512.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when now is not before the exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrSigning is returned when signing fails; callers treat it as uncategorized.
	ErrSigning = errors.New("token signing failed")
)

// Purpose is the declared use of a token, carried in the "type" claim.
type Purpose string

const (
	PurposeAccess        Purpose = "ACCESS"
	PurposeRefresh       Purpose = "REFRESH"
	PurposeResetPassword Purpose = "RESET_PASSWORD"
)

// Claims is the full claim set of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Scope string  `json:"scope"`
	Type  Purpose `json:"type"`
}

// SessionID returns the jti claim.
func (c *Claims) SessionID() string { return c.ID }

// Roles parses the scope claim into the role set.
func (c *Claims) Roles() (accountdomain.Roles, error) {
	return accountdomain.ParseScope(c.Scope)
}

// Subject identifies the account a token is issued for.
type Subject struct {
	// Email is written to the sub claim.
	Email string
	Roles accountdomain.Roles
}

// TokenTTLs holds the lifetime per purpose.
type TokenTTLs struct {
	Access        time.Duration
	Refresh       time.Duration
	ResetPassword time.Duration
}

// IssuedToken is a signed token and its expiry.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
	// TTL is the configured duration of the token's purpose; cookies use it for Max-Age.
	TTL time.Duration
}

// TokenCodec issues and verifies HS512-signed session tokens.
type TokenCodec struct {
	key    []byte
	issuer string
	ttls   TokenTTLs
	// Now is the clock used for iat/exp and for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

// NewTokenCodec returns a TokenCodec signing with key.
func NewTokenCodec(key []byte, issuer string, ttls TokenTTLs) *TokenCodec {
	return &TokenCodec{key: key, issuer: issuer, ttls: ttls, Now: time.Now}
}

// TTL returns the configured lifetime for purpose; zero for unknown purposes.
func (c *TokenCodec) TTL(purpose Purpose) time.Duration {
	switch purpose {
	case PurposeAccess:
		return c.ttls.Access
	case PurposeRefresh:
		return c.ttls.Refresh
	case PurposeResetPassword:
		return c.ttls.ResetPassword
	default:
		return 0
	}
}

// Issue builds and signs a token for subject with the lifetime of purpose, bound to sessionID (jti).
func (c *TokenCodec) Issue(subject Subject, purpose Purpose, sessionID string) (IssuedToken, error) {
	ttl := c.TTL(purpose)
	if ttl <= 0 {
		return IssuedToken{}, fmt.Errorf("%w: no lifetime for purpose %q", ErrSigning, purpose)
	}
	now := c.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   subject.Email,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope: subject.Roles.Scope(),
		Type:  purpose,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := t.SignedString(c.key)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return IssuedToken{Token: signed, ExpiresAt: expiresAt, TTL: ttl}, nil
}

// RenewRefresh issues a REFRESH token that keeps an existing session id.
func (c *TokenCodec) RenewRefresh(subject Subject, sessionID string) (IssuedToken, error) {
	return c.Issue(subject, PurposeRefresh, sessionID)
}

// Verify parses token, checks the HS512 MAC, then checks now < exp.
// Purpose and session state are not checked here.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.Now),
	)
	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return c.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		// Missing exp and other claim-shape problems.
		return ErrMalformedToken
	}
}

// NewSessionID returns a 128-bit random id, hex-encoded.
func NewSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
