package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/session"
)

// LocalSource checks credentials against the local accounts table with
// bcrypt. It implements session.CredentialSource.
type LocalSource struct {
	repo AccountRepository
}

// NewLocalSource creates a credential source over the local accounts table.
func NewLocalSource(repo AccountRepository) *LocalSource {
	return &LocalSource{repo: repo}
}

// Authenticate verifies a username/password pair against the accounts
// table. A missing account and a wrong password return the same generic
// 401 so the response never reveals which field was wrong. bcrypt runs
// against a dummy hash when the account is missing so both paths take
// comparable time.
func (s *LocalSource) Authenticate(ctx context.Context, username, password string) (*session.UserRecord, error) {
	account, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperror.NewUnauthorized("invalid username or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding account: %w", err))
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, apperror.NewUnauthorized("invalid username or password")
	}

	// Stamp last login (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, account.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	return recordFor(account), nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, compared
// against when the username does not exist so the miss path costs a hash
// verification like the hit path does.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("steward-dummy-comparison-value"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generating dummy bcrypt hash: %v", err))
	}
	return h
}()

// recordFor maps an account row to the session's user record.
func recordFor(a *Account) *session.UserRecord {
	rec := &session.UserRecord{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
		LastLogin: a.LastLoginAt,
	}
	if a.Avatar != nil {
		rec.Avatar = *a.Avatar
	}
	return rec
}
