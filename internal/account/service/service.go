// Package service implements account registration, contact verification and credential changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/account/repository"
	"libmanage/backend/internal/audit"
	auditdomain "libmanage/backend/internal/audit/domain"
	"libmanage/backend/internal/authn"
	otpdomain "libmanage/backend/internal/otp/domain"
	"libmanage/backend/internal/security"
)

// CodeIssuer issues and checks one-time codes.
type CodeIssuer interface {
	Issue(ctx context.Context, contact string, purpose otpdomain.Purpose) error
	Reissue(ctx context.Context, contact string, purpose otpdomain.Purpose) error
	Verify(ctx context.Context, code, contact string, purpose otpdomain.Purpose) error
}

// SessionInvalidator disables or removes every session of an account.
type SessionInvalidator interface {
	DisableAllForAccount(ctx context.Context, accountID string) (int64, error)
	DeleteAllForAccount(ctx context.Context, accountID string) (int64, error)
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// Service runs the account flows.
type Service struct {
	repo     repository.Repository
	hasher   *security.Hasher
	codes    CodeIssuer
	sessions SessionInvalidator
	audit    audit.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService returns a Service. recorder and logger may be nil.
func NewService(repo repository.Repository, hasher *security.Hasher, codes CodeIssuer, sessions SessionInvalidator, recorder audit.Recorder, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, hasher: hasher, codes: codes, sessions: sessions, audit: recorder, logger: logger, now: time.Now}
}

// Register creates an unverified USER account and sends verification codes to its contacts.
// A code that cannot be delivered is logged; the caller can ask for it again with ResendCode.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" {
		if err := domain.ValidatePhone(phone); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrAccountExists
	}
	if phone != "" {
		if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	acc := &domain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        phone,
		PasswordHash: hash,
		Roles:        domain.NewRoles(domain.RoleUser),
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acc.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, domain.ErrAccountExists
		}
		return nil, err
	}

	s.issueQuietly(ctx, email, otpdomain.PurposeVerifyEmail)
	if phone != "" {
		s.issueQuietly(ctx, phone, otpdomain.PurposeVerifyPhone)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionAccountRegistered})
	return acc, nil
}

// VerifyEmail consumes a VERIFY_EMAIL code and marks the email verified.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if acc == nil {
		return domain.ErrNotFound
	}
	if err := s.codes.Verify(ctx, code, email, otpdomain.PurposeVerifyEmail); err != nil {
		return err
	}
	acc.EmailVerified = true
	return s.update(ctx, acc)
}

// VerifyPhone consumes a VERIFY_PHONE code and marks the phone verified.
func (s *Service) VerifyPhone(ctx context.Context, phone, code string) error {
	phone = strings.TrimSpace(phone)
	acc, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if acc == nil {
		return domain.ErrNotFound
	}
	if err := s.codes.Verify(ctx, code, phone, otpdomain.PurposeVerifyPhone); err != nil {
		return err
	}
	acc.PhoneVerified = true
	return s.update(ctx, acc)
}

// ResendCode replaces the pending verification code for contact. Only the VERIFY purposes
// can be resent here; change codes are re-requested through the change flows.
func (s *Service) ResendCode(ctx context.Context, contact string, purpose otpdomain.Purpose) error {
	var (
		acc *domain.Account
		err error
	)
	switch purpose {
	case otpdomain.PurposeVerifyEmail:
		contact = domain.NormalizeEmail(contact)
		acc, err = s.repo.GetByEmail(ctx, contact)
	case otpdomain.PurposeVerifyPhone:
		contact = strings.TrimSpace(contact)
		acc, err = s.repo.GetByPhone(ctx, contact)
	default:
		return fmt.Errorf("%w: %s cannot be resent", otpdomain.ErrUnknownPurpose, purpose)
	}
	if err != nil {
		return err
	}
	if acc == nil {
		return domain.ErrNotFound
	}
	return s.codes.Reissue(ctx, contact, purpose)
}

// RequestEmailChange sends a CHANGE_EMAIL code to newEmail.
func (s *Service) RequestEmailChange(ctx context.Context, p *authn.Principal, newEmail string) error {
	_, err := s.current(ctx, p)
	if err != nil {
		return err
	}
	newEmail = domain.NormalizeEmail(newEmail)
	if err := domain.ValidateEmail(newEmail); err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, newEmail); err != nil {
		return err
	}
	return s.codes.Reissue(ctx, newEmail, otpdomain.PurposeChangeEmail)
}

// ConfirmEmailChange consumes the CHANGE_EMAIL code, switches the email and disables every session.
func (s *Service) ConfirmEmailChange(ctx context.Context, p *authn.Principal, newEmail, code string) error {
	acc, err := s.current(ctx, p)
	if err != nil {
		return err
	}
	newEmail = domain.NormalizeEmail(newEmail)
	if err := s.codes.Verify(ctx, code, newEmail, otpdomain.PurposeChangeEmail); err != nil {
		return err
	}
	if err := s.ensureEmailFree(ctx, newEmail); err != nil {
		return err
	}
	old := acc.Email
	acc.Email = newEmail
	acc.EmailVerified = true
	if err := s.update(ctx, acc); err != nil {
		return err
	}
	if _, err := s.sessions.DisableAllForAccount(ctx, acc.ID); err != nil {
		return fmt.Errorf("email change: disable sessions: %w", err)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: newEmail, Action: auditdomain.ActionEmailChanged, Details: "from " + old})
	return nil
}

// RequestPhoneChange sends a CHANGE_PHONE code to newPhone.
func (s *Service) RequestPhoneChange(ctx context.Context, p *authn.Principal, newPhone string) error {
	acc, err := s.current(ctx, p)
	if err != nil {
		return err
	}
	newPhone = strings.TrimSpace(newPhone)
	if err := domain.ValidatePhone(newPhone); err != nil {
		return err
	}
	if err := s.ensurePhoneFree(ctx, newPhone, acc.ID); err != nil {
		return err
	}
	return s.codes.Reissue(ctx, newPhone, otpdomain.PurposeChangePhone)
}

// ConfirmPhoneChange consumes the CHANGE_PHONE code and switches the phone number.
func (s *Service) ConfirmPhoneChange(ctx context.Context, p *authn.Principal, newPhone, code string) error {
	acc, err := s.current(ctx, p)
	if err != nil {
		return err
	}
	newPhone = strings.TrimSpace(newPhone)
	if err := s.codes.Verify(ctx, code, newPhone, otpdomain.PurposeChangePhone); err != nil {
		return err
	}
	if err := s.ensurePhoneFree(ctx, newPhone, acc.ID); err != nil {
		return err
	}
	acc.Phone = newPhone
	acc.PhoneVerified = true
	if err := s.update(ctx, acc); err != nil {
		return err
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionPhoneChanged})
	return nil
}

// ChangePassword replaces the password of the caller and disables every session.
func (s *Service) ChangePassword(ctx context.Context, p *authn.Principal, oldPassword, newPassword, confirmPassword string) error {
	acc, err := s.current(ctx, p)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(acc.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return domain.ErrPasswordNotMatch
		}
		return err
	}
	if newPassword != confirmPassword {
		return domain.ErrPasswordNotMatch
	}
	if newPassword == oldPassword {
		return domain.ErrPasswordDuplicated
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	acc.PasswordHash = hash
	if err := s.update(ctx, acc); err != nil {
		return err
	}
	if _, err := s.sessions.DisableAllForAccount(ctx, acc.ID); err != nil {
		return fmt.Errorf("change password: disable sessions: %w", err)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionPasswordChanged})
	return nil
}

// DeleteAccount soft-deletes an account and disables its sessions. Admin accounts cannot be deleted.
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	acc, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acc == nil || acc.Status == domain.StatusDeleted {
		return domain.ErrNotFound
	}
	if acc.Roles.IsAdmin() {
		return domain.ErrCannotDeleteAdmin
	}
	acc.Status = domain.StatusDeleted
	if err := s.update(ctx, acc); err != nil {
		return err
	}
	if _, err := s.sessions.DisableAllForAccount(ctx, acc.ID); err != nil {
		return fmt.Errorf("delete account: disable sessions: %w", err)
	}
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionAccountDeleted})
	return nil
}

// PurgeAccount removes the account and every session record it owns.
func (s *Service) PurgeAccount(ctx context.Context, email string) error {
	acc, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if acc == nil {
		return domain.ErrNotFound
	}
	n, err := s.sessions.DeleteAllForAccount(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("purge account: delete sessions: %w", err)
	}
	if _, err := s.repo.Delete(ctx, acc.ID); err != nil {
		return err
	}
	s.logger.Info("account purged", zap.String("account_id", acc.ID), zap.Int64("sessions", n))
	s.audit.Record(ctx, auditdomain.Event{AccountID: acc.ID, Email: acc.Email, Action: auditdomain.ActionAccountDeleted, Details: "purged"})
	return nil
}

func (s *Service) current(ctx context.Context, p *authn.Principal) (*domain.Account, error) {
	if p == nil || p.AccountID == "" {
		return nil, authn.ErrUnauthenticated
	}
	acc, err := s.repo.GetByID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Status == domain.StatusDeleted {
		return nil, domain.ErrNotFound
	}
	return acc, nil
}

func (s *Service) update(ctx context.Context, acc *domain.Account) error {
	acc.UpdatedAt = s.now().UTC()
	err := s.repo.Update(ctx, acc)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return domain.ErrEmailTaken
	}
	return err
}

// ensureEmailFree also rejects the account's own current address.
func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	other, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if other != nil {
		return domain.ErrEmailTaken
	}
	return nil
}

func (s *Service) ensurePhoneFree(ctx context.Context, phone, selfID string) error {
	other, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return domain.ErrPhoneTaken
	}
	return nil
}

func (s *Service) issueQuietly(ctx context.Context, contact string, purpose otpdomain.Purpose) {
	if err := s.codes.Issue(ctx, contact, purpose); err != nil {
		s.logger.Warn("register: verification code not sent", zap.String("purpose", string(purpose)), zap.Error(err))
	}
}
