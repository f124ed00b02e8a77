package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/steward/internal/apperror"
)

// AccountRepository defines the data access contract for local console
// accounts. All SQL lives in the concrete implementation -- no SQL leaks out.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	UpdateLastLogin(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// accountRepository implements AccountRepository with hand-written MariaDB queries.
type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates an account repository backed by the given DB pool.
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account row.
func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	query := `INSERT INTO accounts (id, username, email, avatar, password_hash, role, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.Avatar,
		account.PasswordHash,
		account.Role,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}

	return nil
}

// FindByUsername retrieves an account by its username.
// Returns apperror.NotFound if no account exists with this username.
func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	query := `SELECT id, username, email, avatar, password_hash, role, created_at, last_login_at
	          FROM accounts WHERE username = ?`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.Avatar,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by username: %w", err)
	}

	return account, nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given account.
func (r *accountRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE accounts SET last_login_at = NOW() WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// Count returns the total number of local accounts. Used by the seeder to
// decide whether the demo accounts need creating.
func (r *accountRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}
