// Package handler exposes registration, verification and credential changes over HTTP.
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/account/service"
	"libmanage/backend/internal/authn"
	"libmanage/backend/internal/httpapi"
	otpdomain "libmanage/backend/internal/otp/domain"
)

// Accounts is the subset of service.Service the handler drives.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.Account, error)
	VerifyEmail(ctx context.Context, email, code string) error
	VerifyPhone(ctx context.Context, phone, code string) error
	ResendCode(ctx context.Context, contact string, purpose otpdomain.Purpose) error
	RequestEmailChange(ctx context.Context, p *authn.Principal, newEmail string) error
	ConfirmEmailChange(ctx context.Context, p *authn.Principal, newEmail, code string) error
	RequestPhoneChange(ctx context.Context, p *authn.Principal, newPhone string) error
	ConfirmPhoneChange(ctx context.Context, p *authn.Principal, newPhone, code string) error
	ChangePassword(ctx context.Context, p *authn.Principal, oldPassword, newPassword, confirmPassword string) error
	DeleteAccount(ctx context.Context, accountID string) error
}

// Handler serves /account, /password/change and /admin/accounts.
type Handler struct {
	accounts Accounts
	cookies  httpapi.Cookies
}

// NewHandler returns a Handler.
func NewHandler(accounts Accounts, cookies httpapi.Cookies) *Handler {
	return &Handler{accounts: accounts, cookies: cookies}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Code  string `json:"otp" binding:"required"`
}

type resendRequest struct {
	Contact string `json:"contact" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
}

type emailRequest struct {
	NewEmail string `json:"newEmail" binding:"required"`
	Code     string `json:"otp"`
}

type phoneRequest struct {
	NewPhone string `json:"newPhone" binding:"required"`
	Code     string `json:"otp"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// Register handles POST /account/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.BadRequest(c)
		return
	}
	acc, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "Registered, check your email for the verification code.", acc.Summary())
}

// VerifyEmail handles POST /account/verify-email.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		httpapi.BadRequest(c)
		return
	}
	if err := h.accounts.VerifyEmail(c.Request.Context(), req.Email, req.Code); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "Email verified.", nil)
}

// VerifyPhone handles POST /account/verify-phone.
func (h *Handler) VerifyPhone(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
		httpapi.BadRequest(c)
		return
	}
	if err := h.accounts.VerifyPhone(c.Request.Context(), req.Phone, req.Code); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "Phone number verified.", nil)
}

// ResendCode handles POST /account/resend-code.
func (h *Handler) ResendCode(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.BadRequest(c)
		return
	}
	purpose, err := otpdomain.ParsePurpose(req.Purpose)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	if err := h.accounts.ResendCode(c.Request.Context(), req.Contact, purpose); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "A new code has been sent.", nil)
}

// RequestEmailChange handles PUT /account/email.
func (h *Handler) RequestEmailChange(c *gin.Context) {
	p, req, ok := bindWithPrincipal[emailRequest](c)
	if !ok {
		return
	}
	if err := h.accounts.RequestEmailChange(c.Request.Context(), p, req.NewEmail); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "A code has been sent to the new address.", nil)
}

// ConfirmEmailChange handles PUT /account/email/confirm. Every session ends, so cookies are cleared.
func (h *Handler) ConfirmEmailChange(c *gin.Context) {
	p, req, ok := bindWithPrincipal[emailRequest](c)
	if !ok {
		return
	}
	if err := h.accounts.ConfirmEmailChange(c.Request.Context(), p, req.NewEmail, req.Code); err != nil {
		httpapi.Fail(c, err)
		return
	}
	h.cookies.ClearAll(c)
	httpapi.OK(c, "Email changed, please log in again.", nil)
}

// RequestPhoneChange handles PUT /account/phone.
func (h *Handler) RequestPhoneChange(c *gin.Context) {
	p, req, ok := bindWithPrincipal[phoneRequest](c)
	if !ok {
		return
	}
	if err := h.accounts.RequestPhoneChange(c.Request.Context(), p, req.NewPhone); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "A code has been sent to the new number.", nil)
}

// ConfirmPhoneChange handles PUT /account/phone/confirm.
func (h *Handler) ConfirmPhoneChange(c *gin.Context) {
	p, req, ok := bindWithPrincipal[phoneRequest](c)
	if !ok {
		return
	}
	if err := h.accounts.ConfirmPhoneChange(c.Request.Context(), p, req.NewPhone, req.Code); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "Phone number changed.", nil)
}

// ChangePassword handles PUT /password/change. Every session ends, so cookies are cleared.
func (h *Handler) ChangePassword(c *gin.Context) {
	p, req, ok := bindWithPrincipal[changePasswordRequest](c)
	if !ok {
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), p, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		httpapi.Fail(c, err)
		return
	}
	h.cookies.ClearAll(c)
	httpapi.OK(c, "Password changed, please log in again.", nil)
}

// DeleteAccount handles DELETE /admin/accounts/:id.
func (h *Handler) DeleteAccount(c *gin.Context) {
	if err := h.accounts.DeleteAccount(c.Request.Context(), c.Param("id")); err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, "Account deleted.", nil)
}

func bindWithPrincipal[T any](c *gin.Context) (*authn.Principal, *T, bool) {
	p, err := httpapi.Principal(c)
	if err != nil {
		httpapi.Fail(c, authn.ErrUnauthenticated)
		return nil, nil, false
	}
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.BadRequest(c)
		return nil, nil, false
	}
	return p, &req, true
}
