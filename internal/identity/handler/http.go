// Package handler exposes the session-token flows over HTTP.
package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	accountdomain "libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/httpapi"
	"libmanage/backend/internal/identity/service"
)

// AuthFlows is the subset of service.AuthService the handler drives.
type AuthFlows interface {
	Login(ctx context.Context, email, password string) (*service.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Info(ctx context.Context, p *authn.Principal) (*accountdomain.Summary, error)
	ForgetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error
}

// Handler serves /auth and /password.
type Handler struct {
	auth    AuthFlows
	cookies httpapi.Cookies
}

// NewHandler returns a Handler.
func NewHandler(auth AuthFlows, cookies httpapi.Cookies) *Handler {
	return &Handler{auth: auth, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgetRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// AuthResult is the body returned by login and refresh. Tokens travel only in cookies.
type AuthResult struct {
	Authenticated bool                  `json:"authenticated"`
	Account       accountdomain.Summary `json:"account"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.BadRequest(c)
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.cookies.ClearAll(c)
		httpapi.Fail(c, err)
		return
	}
	h.setPair(c, pair)
	httpapi.OK(c, "Login successfully!", AuthResult{Authenticated: true, Account: pair.Account})
}

// Logout handles POST /auth/logout. Cookies are cleared even when the token is unusable.
func (h *Handler) Logout(c *gin.Context) {
	token := httpapi.AccessToken(c)
	h.cookies.ClearAll(c)
	if token == "" {
		httpapi.Fail(c, authn.ErrUnauthenticated)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "Logout successfully", "success")
}

// Refresh handles POST /auth/refresh. The refresh token comes from its cookie, or the body.
func (h *Handler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(httpapi.RefreshTokenCookie)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		httpapi.Fail(c, authn.ErrUnauthenticated)
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		if authn.IsAuthError(err) || errors.Is(err, accountdomain.ErrNotFound) {
			h.cookies.ClearAll(c)
		}
		httpapi.Fail(c, err)
		return
	}
	h.setPair(c, pair)
	httpapi.OK(c, "Token refreshed successfully.", AuthResult{Authenticated: true, Account: pair.Account})
}

// Info handles GET /auth/info.
func (h *Handler) Info(c *gin.Context) {
	p, err := httpapi.Principal(c)
	if err != nil {
		httpapi.Fail(c, authn.ErrUnauthenticated)
		return
	}
	summary, err := h.auth.Info(c.Request.Context(), p)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "", summary)
}

// ForgetPassword handles POST /password/forget.
func (h *Handler) ForgetPassword(c *gin.Context) {
	var req forgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.BadRequest(c)
		return
	}
	if err := h.auth.ForgetPassword(c.Request.Context(), req.Email); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "If the address is registered, a reset link has been sent.", nil)
}

// ResetPassword handles POST /password/reset.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.BadRequest(c)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		httpapi.Fail(c, err)
		return
	}
	h.cookies.ClearAll(c)
	httpapi.OK(c, "Password has been reset.", nil)
}

func (h *Handler) setPair(c *gin.Context, pair *service.TokenPair) {
	h.cookies.Replace(c, pair.Access.Token, pair.Refresh.Token, pair.Access.TTL, pair.Refresh.TTL)
}
