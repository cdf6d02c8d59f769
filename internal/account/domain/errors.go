package domain

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, wrong password and deleted accounts alike.
	ErrInvalidCredentials = errors.New("login failed, check your email and password")
	ErrNotFound           = errors.New("user not existed")
	ErrNotVerified        = errors.New("user has not verified email or phone number")
	ErrAccountExists      = errors.New("user existed")
	ErrEmailTaken         = errors.New("mail existed")
	ErrPhoneTaken         = errors.New("phone existed")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPhone       = errors.New("phone number must be at least 10 characters")
	// ErrWeakPassword is returned when a new password fails the strength rules.
	ErrWeakPassword = errors.New("the password must be at least 8 characters long and include letters, numbers, and special characters")
	// ErrPasswordNotMatch is returned when the current password is wrong or the confirmation differs.
	ErrPasswordNotMatch   = errors.New("password does not match")
	ErrPasswordDuplicated = errors.New("new password must be different from old password")
	ErrCannotDeleteAdmin  = errors.New("you can not delete admin")
)
