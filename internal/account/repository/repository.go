package repository

import (
	"context"
	"errors"

	"libmanage/backend/internal/account/domain"
)

// ErrDuplicateEmail is returned when another account already uses the email.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines persistence for accounts. Getters return nil when nothing matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, a *domain.Account) error
	Delete(ctx context.Context, id string) (bool, error)
	// ListActiveEmails returns the email of every active account.
	ListActiveEmails(ctx context.Context) ([]string, error)
}
