// Package authn validates inbound access tokens and carries the resulting principal in the request context.
package authn

import (
	"context"
	"errors"

	"libmanage/backend/internal/metrics"
	"libmanage/backend/internal/security"
	sessiondomain "libmanage/backend/internal/session/domain"
)

var (
	// ErrUnauthenticated is returned when a request carries no usable credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized is returned when the caller lacks a required role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrWrongTokenPurpose is returned when a token of another purpose is presented.
	ErrWrongTokenPurpose = errors.New("wrong token purpose")
	// ErrSessionRevoked is returned when the token's session is missing or disabled.
	ErrSessionRevoked = errors.New("session revoked")
)

// Verifier checks signature and expiry of a token.
type Verifier interface {
	Verify(token string) (*security.Claims, error)
}

// SessionFinder returns an enabled session or nil.
type SessionFinder interface {
	FindEnabled(ctx context.Context, sessionID string) (*sessiondomain.Session, error)
}

// Pipeline runs the decode-time checks for every authenticated request, in order:
// parse, signature, expiry, purpose (must be ACCESS), live session. The first failure
// is returned and later steps are not evaluated.
type Pipeline struct {
	verifier Verifier
	sessions SessionFinder
}

// NewPipeline returns a Pipeline.
func NewPipeline(verifier Verifier, sessions SessionFinder) *Pipeline {
	return &Pipeline{verifier: verifier, sessions: sessions}
}

// Authenticate returns the principal for an ACCESS token bound to an enabled session.
func (p *Pipeline) Authenticate(ctx context.Context, token string) (*Principal, error) {
	principal, err := p.authenticate(ctx, token)
	metrics.AuthPipelineResults.WithLabelValues(Result(err)).Inc()
	return principal, err
}

func (p *Pipeline) authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := p.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != security.PurposeAccess {
		return nil, ErrWrongTokenPurpose
	}
	if claims.Subject == "" || claims.SessionID() == "" {
		return nil, security.ErrMalformedToken
	}
	roles, err := claims.Roles()
	if err != nil {
		return nil, security.ErrMalformedToken
	}

	sess, err := p.sessions.FindEnabled(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionRevoked
	}

	principal := &Principal{
		Subject:   claims.Subject,
		AccountID: sess.AccountID,
		SessionID: sess.ID,
		Roles:     roles,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// Result names the terminal state reached for err, for metrics and logs.
func Result(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, security.ErrMalformedToken):
		return "malformed"
	case errors.Is(err, security.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, security.ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrWrongTokenPurpose):
		return "wrong_purpose"
	case errors.Is(err, ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}

// IsAuthError reports whether err is a token or session failure (401 class) rather than an internal error.
func IsAuthError(err error) bool {
	switch Result(err) {
	case "valid", "error":
		return false
	default:
		return true
	}
}
