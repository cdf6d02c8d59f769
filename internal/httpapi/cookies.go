package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names carrying the session tokens.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Cookies writes and clears the token cookies. All cookies are HttpOnly with path "/".
type Cookies struct {
	Secure bool
	Domain string
}

// Set writes name=value with Max-Age equal to ttl in whole seconds.
func (k Cookies) Set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(ttl/time.Second), "/", k.Domain, k.Secure, true)
}

// Clear expires name immediately.
func (k Cookies) Clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", k.Domain, k.Secure, true)
}

// Replace clears both token cookies and writes the new pair.
func (k Cookies) Replace(c *gin.Context, access, refresh string, accessTTL, refreshTTL time.Duration) {
	k.Clear(c, AccessTokenCookie)
	k.Clear(c, RefreshTokenCookie)
	k.Set(c, AccessTokenCookie, access, accessTTL)
	k.Set(c, RefreshTokenCookie, refresh, refreshTTL)
}

// ClearAll expires both token cookies.
func (k Cookies) ClearAll(c *gin.Context) {
	k.Clear(c, AccessTokenCookie)
	k.Clear(c, RefreshTokenCookie)
}
