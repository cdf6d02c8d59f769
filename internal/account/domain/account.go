package domain

import (
	"errors"
	"strings"
	"time"
)

// Account is a library member or staff login.
type Account struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	FullName      string    `db:"full_name"`
	Phone         string    `db:"phone"`
	PasswordHash  string    `db:"password_hash"`
	Roles         Roles     `db:"roles"`
	EmailVerified bool      `db:"email_verified"`
	PhoneVerified bool      `db:"phone_verified"`
	Status        Status    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusDeleted  Status = "deleted"
)

// Summary is the public view of an account handed to other services.
type Summary struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"fullName"`
	Phone         string   `json:"phone,omitempty"`
	Roles         []string `json:"roles"`
	EmailVerified bool     `json:"emailVerified"`
	PhoneVerified bool     `json:"phoneVerified"`
}

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if len(a.Roles) == 0 {
		a.Roles = NewRoles(RoleUser)
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	return nil
}

// CanLogin reports whether the account may authenticate at all.
func (a *Account) CanLogin() bool {
	return a.Status == StatusActive
}

// Summary returns the public view of a.
func (a *Account) Summary() Summary {
	return Summary{
		ID:            a.ID,
		Email:         a.Email,
		FullName:      a.FullName,
		Phone:         a.Phone,
		Roles:         a.Roles.Names(),
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
	}
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
