// Package service implements login, logout, token refresh and password reset.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	accountdomain "libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/audit"
	auditdomain "libmanage/backend/internal/audit/domain"
	"libmanage/backend/internal/authn"
	maintenancedomain "libmanage/backend/internal/maintenance/domain"
	"libmanage/backend/internal/metrics"
	"libmanage/backend/internal/security"
	sessiondomain "libmanage/backend/internal/session/domain"
)

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Update(ctx context.Context, a *accountdomain.Account) error
}

// SessionRegistry is the subset of the session registry the auth flows drive.
type SessionRegistry interface {
	Create(ctx context.Context, sessionID, accountID string, expiresAt time.Time) error
	Disable(ctx context.Context, sessionID string) error
	Renew(ctx context.Context, sessionID string, expiresAt time.Time) error
	DisableAllForAccount(ctx context.Context, accountID string) (int64, error)
}

// MaintenanceChecker reports whether maintenance mode is on.
type MaintenanceChecker interface {
	IsEnabled(ctx context.Context) (bool, error)
}

// ResetLinkSender mails a password reset token.
type ResetLinkSender interface {
	SendResetLink(ctx context.Context, email, token string) error
}

// TokenPair is the outcome of Login and Refresh. Both tokens carry SessionID as jti.
type TokenPair struct {
	SessionID string
	Access    security.IssuedToken
	Refresh   security.IssuedToken
	Account   accountdomain.Summary
}

// AuthService implements the session-token flows.
type AuthService struct {
	accounts    AccountRepo
	sessions    SessionRegistry
	codec       *security.TokenCodec
	hasher      *security.Hasher
	maintenance MaintenanceChecker
	audit       audit.Recorder
	resetLinks  ResetLinkSender
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService returns an AuthService. recorder and logger may be nil.
func NewAuthService(
	accounts AccountRepo,
	sessions SessionRegistry,
	codec *security.TokenCodec,
	hasher *security.Hasher,
	maintenance MaintenanceChecker,
	recorder audit.Recorder,
	resetLinks ResetLinkSender,
	logger *zap.Logger,
) *AuthService {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:    accounts,
		sessions:    sessions,
		codec:       codec,
		hasher:      hasher,
		maintenance: maintenance,
		audit:       recorder,
		resetLinks:  resetLinks,
		logger:      logger,
		now:         time.Now,
	}
}

// Login checks the password, refuses non-admins during maintenance and opens a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	pair, err := s.login(ctx, email, password)
	metrics.LoginAttempts.WithLabelValues(loginResult(err)).Inc()
	return pair, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*TokenPair, error) {
	acc, err := s.accounts.GetByEmail(ctx, accountdomain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Status == accountdomain.StatusDeleted {
		return nil, accountdomain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(acc.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, accountdomain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !acc.CanLogin() {
		return nil, accountdomain.ErrInvalidCredentials
	}
	if !acc.EmailVerified && !acc.PhoneVerified {
		return nil, accountdomain.ErrNotVerified
	}
	if !acc.Roles.IsAdmin() {
		on, err := s.maintenance.IsEnabled(ctx)
		if err != nil {
			s.logger.Error("login: maintenance flag read failed, refusing non-admin", zap.Error(err))
			on = true
		}
		if on {
			return nil, maintenancedomain.ErrMaintenanceModeActive
		}
	}

	ctx = authn.WithActor(ctx, acc.Email)
	sessionID, err := security.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("login: session id: %w", err)
	}
	pair, err := s.issuePair(acc, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, sessionID, acc.ID, pair.Refresh.ExpiresAt); err != nil {
		return nil, fmt.Errorf("login: create session: %w", err)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionLogin})
	return pair, nil
}

// Logout disables the session named by the access token's jti. Only signature and expiry
// are checked; purpose and session state are not.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.codec.Verify(accessToken)
	if err != nil || claims.SessionID() == "" {
		return authn.ErrUnauthenticated
	}
	ctx = authn.WithActor(ctx, claims.Subject)
	if err := s.sessions.Disable(ctx, claims.SessionID()); err != nil {
		return err
	}
	s.audit.Record(ctx, auditdomain.Event{Email: claims.Subject, Action: auditdomain.ActionLogout})
	return nil
}

// Refresh issues a new pair on the refresh token's session id and extends that session.
// The session id never rotates.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != security.PurposeRefresh {
		return nil, authn.ErrWrongTokenPurpose
	}
	sessionID := claims.SessionID()
	if sessionID == "" || claims.Subject == "" {
		return nil, security.ErrMalformedToken
	}
	acc, err := s.accounts.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if acc == nil || !acc.CanLogin() {
		return nil, accountdomain.ErrNotFound
	}

	ctx = authn.WithActor(ctx, acc.Email)
	pair, err := s.issuePair(acc, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Renew(ctx, sessionID, pair.Refresh.ExpiresAt); err != nil {
		if errors.Is(err, sessiondomain.ErrNotFound) {
			return nil, authn.ErrSessionRevoked
		}
		return nil, fmt.Errorf("refresh: renew session: %w", err)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionTokenRefreshed})
	return pair, nil
}

// Info returns the account behind an authenticated request.
func (s *AuthService) Info(ctx context.Context, p *authn.Principal) (*accountdomain.Summary, error) {
	if p == nil {
		return nil, authn.ErrUnauthenticated
	}
	acc, err := s.accounts.GetByEmail(ctx, p.Subject)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, accountdomain.ErrNotFound
	}
	summary := acc.Summary()
	return &summary, nil
}

// ForgetPassword mails a RESET_PASSWORD token. Unknown or inactive emails succeed without sending.
func (s *AuthService) ForgetPassword(ctx context.Context, email string) error {
	acc, err := s.accounts.GetByEmail(ctx, accountdomain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if acc == nil || !acc.CanLogin() {
		s.logger.Debug("forget password: no active account")
		return nil
	}
	id, err := security.NewSessionID()
	if err != nil {
		return err
	}
	token, err := s.codec.Issue(subjectOf(acc), security.PurposeResetPassword, id)
	if err != nil {
		return err
	}
	return s.resetLinks.SendResetLink(ctx, acc.Email, token.Token)
}

// ResetPassword sets a new password from a RESET_PASSWORD token and disables every session of the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return err
	}
	if claims.Type != security.PurposeResetPassword {
		return authn.ErrWrongTokenPurpose
	}
	if newPassword != confirmPassword {
		return accountdomain.ErrPasswordNotMatch
	}
	if err := accountdomain.ValidatePassword(newPassword); err != nil {
		return err
	}
	acc, err := s.accounts.GetByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if acc == nil || !acc.CanLogin() {
		return accountdomain.ErrNotFound
	}
	if s.hasher.Compare(acc.PasswordHash, newPassword) == nil {
		return accountdomain.ErrPasswordDuplicated
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	acc.UpdatedAt = s.now().UTC()
	ctx = authn.WithActor(ctx, acc.Email)
	if err := s.accounts.Update(ctx, acc); err != nil {
		return err
	}
	if _, err := s.sessions.DisableAllForAccount(ctx, acc.ID); err != nil {
		return fmt.Errorf("reset password: disable sessions: %w", err)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionPasswordReset})
	return nil
}

func (s *AuthService) issuePair(acc *accountdomain.Account, sessionID string) (*TokenPair, error) {
	subject := subjectOf(acc)
	access, err := s.codec.Issue(subject, security.PurposeAccess, sessionID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.RenewRefresh(subject, sessionID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{SessionID: sessionID, Access: access, Refresh: refresh, Account: acc.Summary()}, nil
}

func subjectOf(acc *accountdomain.Account) security.Subject {
	return security.Subject{Email: acc.Email, Roles: acc.Roles}
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, accountdomain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, accountdomain.ErrNotVerified):
		return "not_verified"
	case errors.Is(err, maintenancedomain.ErrMaintenanceModeActive):
		return "maintenance"
	default:
		return "error"
	}
}
