package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/repository/postgres"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/database"
	"go-placement-portal/pkg/validation"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminName     string
	adminPassword string
	adminCost     int
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a verified, approved administrator account",
	Args:  cobra.NoArgs,
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (required)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Full name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password, 8 to 72 characters (required)")
	createAdminCmd.Flags().IntVar(&adminCost, "bcrypt-cost", 12, "bcrypt cost")

	for _, name := range []string{"email", "password"} {
		if err := createAdminCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	rootCmd.AddCommand(createAdminCmd)
}

// newAdminAccount validates input and builds the account row.
func newAdminAccount(email, name, password string, hasher *auth.PasswordHasher, now time.Time) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	v := validation.New()
	if err := v.Var(email, "required,email,max=254"); err != nil {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if err := v.Var(password, "required,min=8,max=72"); err != nil {
		return nil, errors.New("password must be between 8 and 72 characters")
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.Account{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleAdmin,
		FullName:      strings.TrimSpace(name),
		EmailVerified: true,
		IsApproved:    true,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	acc, err := newAdminAccount(adminEmail, adminName, adminPassword, auth.NewPasswordHasher(adminCost), time.Now().UTC())
	if err != nil {
		return err
	}

	url, err := databaseURL()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresConnection(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.NewAccountRepository(pool).Create(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("an account with email %s already exists", acc.Email)
		}
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", acc.Email, acc.ID)
	return nil
}
