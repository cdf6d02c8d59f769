package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	accountdomain "libmanage/backend/internal/account/domain"
	accountrepo "libmanage/backend/internal/account/repository"
	"libmanage/backend/internal/app"
	"libmanage/backend/internal/security"
)

type seedAccount struct {
	email    string
	fullName string
	roles    []accountdomain.Role
}

func seedCmd() *cobra.Command {
	var adminEmail, userEmail, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a verified admin and a verified user account",
		Long: `Creates one ADMIN and one USER account, both verified, for local testing.
Idempotent: an address that already has an account is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return seed(ctx, cmd.OutOrStdout(), a.Accounts, a.Hasher, password, []seedAccount{
					{email: adminEmail, fullName: "Library Admin", roles: []accountdomain.Role{accountdomain.RoleAdmin, accountdomain.RoleUser}},
					{email: userEmail, fullName: "Library Member", roles: []accountdomain.Role{accountdomain.RoleUser}},
				})
			})
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@libmanage.local", "Admin account email")
	cmd.Flags().StringVar(&userEmail, "user-email", "user@libmanage.local", "User account email")
	cmd.Flags().StringVar(&password, "password", "", "Password for both accounts (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seed(ctx context.Context, out io.Writer, repo accountrepo.Repository, hasher *security.Hasher, password string, accounts []seedAccount) error {
	if err := accountdomain.ValidatePassword(password); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}
	now := time.Now().UTC()
	for _, s := range accounts {
		email := accountdomain.NormalizeEmail(s.email)
		if err := accountdomain.ValidateEmail(email); err != nil {
			return fmt.Errorf("seed %s: %w", s.email, err)
		}
		existing, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}
		if existing != nil {
			fmt.Fprintf(out, "%s exists, skipped\n", email)
			continue
		}
		err = repo.Create(ctx, &accountdomain.Account{
			ID:            uuid.NewString(),
			Email:         email,
			FullName:      s.fullName,
			PasswordHash:  hash,
			Roles:         accountdomain.NewRoles(s.roles...),
			EmailVerified: true,
			Status:        accountdomain.StatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if errors.Is(err, accountrepo.ErrDuplicateEmail) {
			fmt.Fprintf(out, "%s exists, skipped\n", email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}
		fmt.Fprintf(out, "%s created\n", email)
	}
	return nil
}
