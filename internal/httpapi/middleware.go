package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"libmanage/backend/internal/audit"
	"libmanage/backend/internal/authn"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	authErrKey          = "auth_error"
)

// Authenticator turns an access token into the caller's principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authn.Principal, error)
}

// Admitter decides whether a request may pass while maintenance mode is on.
type Admitter interface {
	Admit(ctx context.Context, method, path string) error
}

// AccessToken returns the access token from the accessToken cookie, falling back to
// an Authorization: Bearer header.
func AccessToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessTokenCookie); err == nil && v != "" {
		return v
	}
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if strings.HasPrefix(raw, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	}
	return ""
}

// Authenticate resolves the caller when a token is present and puts the principal and
// client IP on the request context. It never aborts: routes that need a caller add
// RequireAuth, which reports why authentication failed.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClientIP(c.Request.Context(), c.ClientIP())
		if tok := AccessToken(c); tok != "" {
			p, err := a.Authenticate(ctx, tok)
			if err != nil {
				c.Set(authErrKey, err)
			} else {
				ctx = authn.WithPrincipal(ctx, p)
				ctx = authn.WithActor(ctx, p.Subject)
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth aborts with 401 when Authenticate found no valid principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authn.PrincipalFrom(c.Request.Context()); ok {
			c.Next()
			return
		}
		Fail(c, authFailure(c))
	}
}

// RequireAdmin aborts with 401 for anonymous callers and 403 for non-admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := authn.PrincipalFrom(c.Request.Context())
		if !ok {
			Fail(c, authFailure(c))
			return
		}
		if !p.IsAdmin() {
			Fail(c, authn.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func authFailure(c *gin.Context) error {
	err, _ := c.Value(authErrKey).(error)
	if err == nil {
		return authn.ErrUnauthenticated
	}
	if !authn.IsAuthError(err) {
		// Storage failure while checking the session; logged, but the client just sees 401.
		_ = c.Error(err)
		return authn.ErrUnauthenticated
	}
	return err
}

// MaintenanceGate turns requests away with 503 while maintenance mode is on.
// It must run after Authenticate so admins are recognised.
func MaintenanceGate(g Admitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.Admit(c.Request.Context(), c.Request.Method, c.Request.URL.Path); err != nil {
			c.Header("Retry-After", strconv.Itoa(120))
			Fail(c, err)
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller; handlers behind RequireAuth can rely on it.
func Principal(c *gin.Context) (*authn.Principal, error) {
	p, ok := authn.PrincipalFrom(c.Request.Context())
	if !ok {
		return nil, errors.New("httpapi: no principal on request")
	}
	return p, nil
}
