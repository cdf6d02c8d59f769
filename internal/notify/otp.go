// Package notify delivers verification codes, password reset links and maintenance notices.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"libmanage/backend/internal/devotp"
	otpdomain "libmanage/backend/internal/otp/domain"
)

// SMSSender sends a code by text message.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// OTPSender routes codes by purpose: phone purposes go by SMS, the rest by mail.
type OTPSender struct {
	mailer Mailer
	sms    SMSSender
	logger *zap.Logger
}

// NewOTPSender returns a sender. sms may be nil, in which case phone codes fail with ErrSMSNotConfigured.
func NewOTPSender(mailer Mailer, sms SMSSender, logger *zap.Logger) *OTPSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OTPSender{mailer: mailer, sms: sms, logger: logger}
}

func (s *OTPSender) SendCode(ctx context.Context, contact string, purpose otpdomain.Purpose, code string) error {
	if purpose.IsPhone() {
		if s.sms == nil {
			return ErrSMSNotConfigured
		}
		return s.sms.SendOTP(ctx, contact, code)
	}
	subject, body := otpMessage(purpose, code)
	return s.mailer.Send(ctx, contact, subject, body)
}

func otpMessage(purpose otpdomain.Purpose, code string) (string, string) {
	switch purpose {
	case otpdomain.PurposeChangeEmail:
		return "Confirm your new email address", fmt.Sprintf("Your confirmation code is %s.", code)
	default:
		return "Verify your email address", fmt.Sprintf("Your verification code is %s.", code)
	}
}

// DevSender keeps codes in a devotp.Store instead of delivering them.
type DevSender struct {
	store devotp.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewDevSender returns a sender whose codes stay readable for ttl.
func NewDevSender(store devotp.Store, ttl time.Duration) *DevSender {
	return &DevSender{store: store, ttl: ttl, now: time.Now}
}

func (s *DevSender) SendCode(ctx context.Context, contact string, purpose otpdomain.Purpose, code string) error {
	s.store.Put(ctx, contact, string(purpose), code, s.now().UTC().Add(s.ttl))
	return nil
}

// ResetLinkSender mails password reset links.
type ResetLinkSender struct {
	mailer  Mailer
	baseURL string
}

// NewResetLinkSender returns a sender whose links point at baseURL?token=<token>.
func NewResetLinkSender(mailer Mailer, baseURL string) *ResetLinkSender {
	return &ResetLinkSender{mailer: mailer, baseURL: baseURL}
}

func (s *ResetLinkSender) SendResetLink(ctx context.Context, email, token string) error {
	link, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("notify: reset url: %w", err)
	}
	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()
	return s.mailer.Send(ctx, email, "Reset your password",
		"Use the link below to choose a new password. It expires shortly.\n\n"+link.String())
}
