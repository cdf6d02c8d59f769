package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"libmanage/backend/internal/otp"
	"libmanage/backend/internal/otp/domain"
)

// ErrDelivery is returned when a code was generated but could not be delivered.
var ErrDelivery = errors.New("otp delivery failed")

// Sender delivers a code to a contact (email address or phone number).
type Sender interface {
	SendCode(ctx context.Context, contact string, purpose domain.Purpose, code string) error
}

// Issuer generates codes, records them in the Store and hands them to a Sender.
type Issuer struct {
	store  *Store
	sender Sender
	ttl    time.Duration
	logger *zap.Logger
}

// NewIssuer returns an Issuer whose codes live for ttl.
func NewIssuer(store *Store, sender Sender, ttl time.Duration, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Issuer{store: store, sender: sender, ttl: ttl, logger: logger}
}

// Issue creates and delivers a fresh code for (contact, purpose).
// Fails with ErrAlreadyExists while a previous code is pending. When delivery fails the
// record is removed so the caller can retry immediately.
func (i *Issuer) Issue(ctx context.Context, contact string, purpose domain.Purpose) error {
	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}
	if err := i.store.Create(ctx, contact, purpose, code, i.ttl); err != nil {
		return err
	}
	if err := i.sender.SendCode(ctx, contact, purpose, code); err != nil {
		i.logger.Warn("otp: delivery failed",
			zap.String("purpose", string(purpose)),
			zap.Error(err))
		if delErr := i.store.Delete(ctx, contact, purpose); delErr != nil {
			i.logger.Error("otp: cleanup after failed delivery", zap.Error(delErr))
		}
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Reissue discards any pending code for (contact, purpose) and issues a new one.
func (i *Issuer) Reissue(ctx context.Context, contact string, purpose domain.Purpose) error {
	if err := i.store.Delete(ctx, contact, purpose); err != nil {
		return err
	}
	return i.Issue(ctx, contact, purpose)
}

// Verify consumes the code; see Store.Verify.
func (i *Issuer) Verify(ctx context.Context, code, contact string, purpose domain.Purpose) error {
	return i.store.Verify(ctx, code, contact, purpose)
}
