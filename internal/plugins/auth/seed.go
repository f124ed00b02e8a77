package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/steward/internal/token"
)

// demoAccount describes one account the seeder guarantees exists.
type demoAccount struct {
	username string
	email    string
	password string
	role     token.Role
}

// demoAccounts are the development sign-ins created on first startup when
// the accounts table is empty. Hashes are generated at seed time; bcrypt
// salts make precomputed hashes useless in a migration file.
var demoAccounts = []demoAccount{
	{username: "admin", email: "admin@example.com", password: "admin123", role: token.RoleAdmin},
	{username: "manager", email: "manager@example.com", password: "manager123", role: token.RoleManager},
}

// EnsureDemoAccounts seeds the demo accounts when the accounts table is
// empty. A non-empty table is left untouched so real deployments that
// deleted the demo accounts never see them come back.
func EnsureDemoAccounts(ctx context.Context, repo AccountRepository) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking account count: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, demo := range demoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(demo.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing demo password for %s: %w", demo.username, err)
		}

		account := &Account{
			ID:           uuid.NewString(),
			Username:     demo.username,
			Email:        demo.email,
			PasswordHash: string(hash),
			Role:         demo.role,
			CreatedAt:    time.Now().UTC(),
		}
		if err := repo.Create(ctx, account); err != nil {
			return fmt.Errorf("seeding account %s: %w", demo.username, err)
		}

		slog.Info("seeded demo account",
			slog.String("username", demo.username),
			slog.String("role", string(demo.role)),
		)
	}

	return nil
}
