package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no code is pending for (contact, purpose).
	ErrNotFound = errors.New("otp not found")
	// ErrInvalid is returned when the supplied code does not match.
	ErrInvalid = errors.New("otp invalid")
	// ErrExpired is returned when the pending code has expired; the record is removed.
	ErrExpired = errors.New("otp expired")
	// ErrAlreadyExists is returned when a live code is already pending for (contact, purpose).
	ErrAlreadyExists = errors.New("otp already exists")
	// ErrUnknownPurpose is returned for a purpose outside the enumerated set.
	ErrUnknownPurpose = errors.New("unknown otp purpose")
)

// Purpose is what a code proves control of.
type Purpose string

const (
	PurposeVerifyEmail Purpose = "VERIFY_EMAIL"
	PurposeVerifyPhone Purpose = "VERIFY_PHONE"
	PurposeChangeEmail Purpose = "CHANGE_EMAIL"
	PurposeChangePhone Purpose = "CHANGE_PHONE"
)

// ParsePurpose parses s (case-insensitive).
func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(strings.ToUpper(strings.TrimSpace(s))); p {
	case PurposeVerifyEmail, PurposeVerifyPhone, PurposeChangeEmail, PurposeChangePhone:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, s)
	}
}

// IsPhone reports whether codes for p are delivered by SMS.
func (p Purpose) IsPhone() bool {
	return p == PurposeVerifyPhone || p == PurposeChangePhone
}

// Record is a pending code. At most one exists per (Contact, Purpose).
type Record struct {
	Contact   string    `db:"contact"`
	Purpose   Purpose   `db:"purpose"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the record is expired at now.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// NormalizeContact trims and lowercases a contact so emails compare case-insensitively.
func NormalizeContact(contact string) string {
	return strings.ToLower(strings.TrimSpace(contact))
}
