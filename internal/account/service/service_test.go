package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"libmanage/backend/internal/account/domain"
	"libmanage/backend/internal/account/repository"
	"libmanage/backend/internal/authn"
	otpdomain "libmanage/backend/internal/otp/domain"
	otprepo "libmanage/backend/internal/otp/repository"
	otpsvc "libmanage/backend/internal/otp/service"
	"libmanage/backend/internal/security"
	sessionrepo "libmanage/backend/internal/session/repository"
	sessionsvc "libmanage/backend/internal/session/service"
)

const testPassword = "Secr3t!pw"

// captureSender records the last code sent per contact and purpose.
type captureSender struct {
	codes map[string]string
	fail  bool
}

func (c *captureSender) SendCode(ctx context.Context, contact string, purpose otpdomain.Purpose, code string) error {
	if c.fail {
		return errors.New("smtp down")
	}
	c.codes[contact+"|"+string(purpose)] = code
	return nil
}

func (c *captureSender) code(contact string, purpose otpdomain.Purpose) string {
	return c.codes[contact+"|"+string(purpose)]
}

type fixture struct {
	svc      *Service
	repo     *repository.MemoryRepository
	registry *sessionsvc.Registry
	sender   *captureSender
	hasher   *security.Hasher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repository.NewMemoryRepository(),
		registry: sessionsvc.NewRegistry(sessionrepo.NewMemoryRepository()),
		sender:   &captureSender{codes: map[string]string{}},
		hasher:   security.NewHasher(4),
	}
	issuer := otpsvc.NewIssuer(otpsvc.NewStore(otprepo.NewMemoryRepository()), f.sender, 5*time.Minute, nil)
	f.svc = NewService(f.repo, f.hasher, issuer, f.registry, nil, nil)
	return f
}

func (f *fixture) register(t *testing.T, email, phone string) *domain.Account {
	t.Helper()
	acc, err := f.svc.Register(context.Background(), RegisterInput{Email: email, Password: testPassword, FullName: "Ada", Phone: phone})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return acc
}

func (f *fixture) openSession(t *testing.T, id, accountID string) {
	t.Helper()
	if err := f.registry.Create(context.Background(), id, accountID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("registry.Create: %v", err)
	}
}

func (f *fixture) sessionEnabled(t *testing.T, id string) bool {
	t.Helper()
	s, err := f.registry.FindEnabled(context.Background(), id)
	if err != nil {
		t.Fatalf("FindEnabled: %v", err)
	}
	return s != nil
}

func TestRegister_CreatesUnverifiedUserAndSendsCodes(t *testing.T) {
	f := newFixture(t)
	acc := f.register(t, " New@X.com ", "+919876543210")

	if acc.Email != "new@x.com" {
		t.Errorf("Email = %q, want normalized", acc.Email)
	}
	if acc.EmailVerified || acc.PhoneVerified {
		t.Error("new account must start unverified")
	}
	if !acc.Roles.Has(domain.RoleUser) || acc.Roles.IsAdmin() {
		t.Errorf("Roles = %v, want USER only", acc.Roles.Names())
	}
	if f.sender.code("new@x.com", otpdomain.PurposeVerifyEmail) == "" {
		t.Error("email verification code not sent")
	}
	if f.sender.code("+919876543210", otpdomain.PurposeVerifyPhone) == "" {
		t.Error("phone verification code not sent")
	}
	if err := f.hasher.Compare(acc.PasswordHash, testPassword); err != nil {
		t.Errorf("stored hash does not match: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "taken@x.com", "+919876543210")

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"bad email", RegisterInput{Email: "nope", Password: testPassword}, domain.ErrInvalidEmail},
		{"weak password", RegisterInput{Email: "b@x.com", Password: "short"}, domain.ErrWeakPassword},
		{"bad phone", RegisterInput{Email: "b@x.com", Password: testPassword, Phone: "12"}, domain.ErrInvalidPhone},
		{"email exists", RegisterInput{Email: "TAKEN@x.com", Password: testPassword}, domain.ErrAccountExists},
		{"phone exists", RegisterInput{Email: "c@x.com", Password: testPassword, Phone: "+919876543210"}, domain.ErrPhoneTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Register(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Errorf("Register: want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRegister_DeliveryFailureStillCreatesAccount(t *testing.T) {
	f := newFixture(t)
	f.sender.fail = true
	acc := f.register(t, "d@x.com", "")
	got, err := f.repo.GetByEmail(context.Background(), "d@x.com")
	if err != nil || got == nil || got.ID != acc.ID {
		t.Fatalf("account not persisted: %v %v", got, err)
	}
}

func TestVerifyEmailAndPhone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "v@x.com", "+919876543210")

	if err := f.svc.VerifyEmail(ctx, "V@x.com", f.sender.code("v@x.com", otpdomain.PurposeVerifyEmail)); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if err := f.svc.VerifyPhone(ctx, "+919876543210", f.sender.code("+919876543210", otpdomain.PurposeVerifyPhone)); err != nil {
		t.Fatalf("VerifyPhone: %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, "v@x.com", "123456"); !errors.Is(err, otpdomain.ErrNotFound) {
		t.Errorf("VerifyEmail consumed code: want otp ErrNotFound, got %v", err)
	}
	acc, _ := f.repo.GetByEmail(ctx, "v@x.com")
	if !acc.EmailVerified || !acc.PhoneVerified {
		t.Errorf("verified = %v/%v, want true/true", acc.EmailVerified, acc.PhoneVerified)
	}
	if err := f.svc.VerifyEmail(ctx, "ghost@x.com", "123456"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("VerifyEmail unknown: want ErrNotFound, got %v", err)
	}
}

func TestResendCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "r@x.com", "")

	if err := f.svc.ResendCode(ctx, "r@x.com", otpdomain.PurposeVerifyEmail); err != nil {
		t.Fatalf("ResendCode: %v", err)
	}
	if err := f.svc.VerifyEmail(ctx, "r@x.com", f.sender.code("r@x.com", otpdomain.PurposeVerifyEmail)); err != nil {
		t.Fatalf("VerifyEmail with resent code: %v", err)
	}
	if err := f.svc.ResendCode(ctx, "r@x.com", otpdomain.PurposeChangeEmail); !errors.Is(err, otpdomain.ErrUnknownPurpose) {
		t.Errorf("ResendCode change purpose: want ErrUnknownPurpose, got %v", err)
	}
	if err := f.svc.ResendCode(ctx, "ghost@x.com", otpdomain.PurposeVerifyEmail); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ResendCode unknown: want ErrNotFound, got %v", err)
	}
}

func TestEmailChange_DisablesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.register(t, "old@x.com", "")
	f.register(t, "other@x.com", "")
	f.openSession(t, "s1", acc.ID)
	p := &authn.Principal{AccountID: acc.ID, Subject: acc.Email}

	if err := f.svc.RequestEmailChange(ctx, p, "other@x.com"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("RequestEmailChange to taken: want ErrEmailTaken, got %v", err)
	}
	if err := f.svc.RequestEmailChange(ctx, p, "new@x.com"); err != nil {
		t.Fatalf("RequestEmailChange: %v", err)
	}
	code := f.sender.code("new@x.com", otpdomain.PurposeChangeEmail)
	if err := f.svc.ConfirmEmailChange(ctx, p, "new@x.com", code); err != nil {
		t.Fatalf("ConfirmEmailChange: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, acc.ID)
	if got.Email != "new@x.com" || !got.EmailVerified {
		t.Errorf("account = %q verified %v", got.Email, got.EmailVerified)
	}
	if f.sessionEnabled(t, "s1") {
		t.Error("sessions must be disabled after email change")
	}
}

func TestPhoneChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.register(t, "p@x.com", "+919876543210")
	p := &authn.Principal{AccountID: acc.ID}

	if err := f.svc.RequestPhoneChange(ctx, p, "abc"); !errors.Is(err, domain.ErrInvalidPhone) {
		t.Errorf("RequestPhoneChange invalid: want ErrInvalidPhone, got %v", err)
	}
	if err := f.svc.RequestPhoneChange(ctx, p, "+919800000000"); err != nil {
		t.Fatalf("RequestPhoneChange: %v", err)
	}
	code := f.sender.code("+919800000000", otpdomain.PurposeChangePhone)
	if err := f.svc.ConfirmPhoneChange(ctx, p, "+919800000000", code); err != nil {
		t.Fatalf("ConfirmPhoneChange: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, acc.ID)
	if got.Phone != "+919800000000" || !got.PhoneVerified {
		t.Errorf("phone = %q verified %v", got.Phone, got.PhoneVerified)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.register(t, "c@x.com", "")
	f.openSession(t, "s1", acc.ID)
	p := &authn.Principal{AccountID: acc.ID}

	cases := []struct {
		name               string
		oldPw, newPw, conf string
		want               error
	}{
		{"wrong old", "Wr0ng!pw", "N3w!passw", "N3w!passw", domain.ErrPasswordNotMatch},
		{"confirm mismatch", testPassword, "N3w!passw", "N3w!passx", domain.ErrPasswordNotMatch},
		{"same as old", testPassword, testPassword, testPassword, domain.ErrPasswordDuplicated},
		{"weak", testPassword, "weakweak", "weakweak", domain.ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := f.svc.ChangePassword(ctx, p, tc.oldPw, tc.newPw, tc.conf); !errors.Is(err, tc.want) {
				t.Errorf("ChangePassword: want %v, got %v", tc.want, err)
			}
		})
	}
	if !f.sessionEnabled(t, "s1") {
		t.Fatal("failed changes must not touch sessions")
	}

	if err := f.svc.ChangePassword(ctx, p, testPassword, "N3w!passw", "N3w!passw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, acc.ID)
	if err := f.hasher.Compare(got.PasswordHash, "N3w!passw"); err != nil {
		t.Errorf("new password not stored: %v", err)
	}
	if f.sessionEnabled(t, "s1") {
		t.Error("sessions must be disabled after password change")
	}

	if err := f.svc.ChangePassword(ctx, nil, "a", "b", "b"); !errors.Is(err, authn.ErrUnauthenticated) {
		t.Errorf("nil principal: want ErrUnauthenticated, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.register(t, "del@x.com", "")
	f.openSession(t, "s1", acc.ID)

	if err := f.svc.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	got, _ := f.repo.GetByID(ctx, acc.ID)
	if got.Status != domain.StatusDeleted {
		t.Errorf("Status = %q, want deleted", got.Status)
	}
	if f.sessionEnabled(t, "s1") {
		t.Error("sessions must be disabled after delete")
	}
	if err := f.svc.DeleteAccount(ctx, acc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: want ErrNotFound, got %v", err)
	}

	admin := f.register(t, "admin@x.com", "")
	admin.Roles = domain.NewRoles(domain.RoleAdmin, domain.RoleUser)
	if err := f.repo.Update(ctx, admin); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := f.svc.DeleteAccount(ctx, admin.ID); !errors.Is(err, domain.ErrCannotDeleteAdmin) {
		t.Errorf("delete admin: want ErrCannotDeleteAdmin, got %v", err)
	}
}

func TestPurgeAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.register(t, "purge@x.com", "")
	f.openSession(t, "s1", acc.ID)

	if err := f.svc.PurgeAccount(ctx, "PURGE@x.com"); err != nil {
		t.Fatalf("PurgeAccount: %v", err)
	}
	if got, _ := f.repo.GetByID(ctx, acc.ID); got != nil {
		t.Error("account still present after purge")
	}
	if s, _ := f.registry.Get(ctx, "s1"); s != nil {
		t.Error("session record still present after purge")
	}
	if err := f.svc.PurgeAccount(ctx, "purge@x.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second purge: want ErrNotFound, got %v", err)
	}
}
