package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/token"
)

// mockAccountRepo implements AccountRepository with function fields so each
// test overrides only what it needs.
type mockAccountRepo struct {
	createFn          func(ctx context.Context, account *Account) error
	findByUsernameFn  func(ctx context.Context, username string) (*Account, error)
	updateLastLoginFn func(ctx context.Context, id string) error
	countFn           func(ctx context.Context) (int, error)
}

func (m *mockAccountRepo) Create(ctx context.Context, account *Account) error {
	if m.createFn != nil {
		return m.createFn(ctx, account)
	}
	return nil
}

func (m *mockAccountRepo) FindByUsername(ctx context.Context, username string) (*Account, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, apperror.NewNotFound("account not found")
}

func (m *mockAccountRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockAccountRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

// testAccount builds an account whose password is "correct-horse".
func testAccount(t *testing.T) *Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	return &Account{
		ID:           "acc-1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         token.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
}

func assertGenericUnauthorized(t *testing.T, err error) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != 401 {
		t.Fatalf("expected 401, got %d", appErr.Code)
	}
	if appErr.Message != "invalid username or password" {
		t.Fatalf("expected generic credential message, got %q", appErr.Message)
	}
}

func TestLocalSource_Authenticate_Success(t *testing.T) {
	account := testAccount(t)
	lastLoginStamped := false

	repo := &mockAccountRepo{
		findByUsernameFn: func(_ context.Context, username string) (*Account, error) {
			if username != "admin" {
				t.Fatalf("unexpected username lookup: %q", username)
			}
			return account, nil
		},
		updateLastLoginFn: func(_ context.Context, id string) error {
			if id != account.ID {
				t.Fatalf("last login stamped for wrong account: %q", id)
			}
			lastLoginStamped = true
			return nil
		},
	}

	source := NewLocalSource(repo)
	user, err := source.Authenticate(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != account.ID || user.Username != "admin" || user.Role != token.RoleAdmin {
		t.Fatalf("unexpected user record: %+v", user)
	}
	if !lastLoginStamped {
		t.Fatal("expected last login to be stamped")
	}
}

func TestLocalSource_Authenticate_WrongPassword(t *testing.T) {
	account := testAccount(t)
	repo := &mockAccountRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*Account, error) {
			return account, nil
		},
		updateLastLoginFn: func(_ context.Context, _ string) error {
			t.Fatal("last login must not be stamped on a failed login")
			return nil
		},
	}

	source := NewLocalSource(repo)
	user, err := source.Authenticate(context.Background(), "admin", "wrong")
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
	assertGenericUnauthorized(t, err)
}

func TestLocalSource_Authenticate_UnknownUser(t *testing.T) {
	repo := &mockAccountRepo{} // FindByUsername defaults to not found.

	source := NewLocalSource(repo)
	user, err := source.Authenticate(context.Background(), "nobody", "whatever")
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}

	// The unknown-user message must be identical to the wrong-password
	// message so responses never reveal which field was wrong.
	assertGenericUnauthorized(t, err)
}

func TestLocalSource_Authenticate_RepositoryFailure(t *testing.T) {
	repo := &mockAccountRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*Account, error) {
			return nil, errors.New("connection refused")
		},
	}

	source := NewLocalSource(repo)
	_, err := source.Authenticate(context.Background(), "admin", "correct-horse")

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 500 {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestLocalSource_Authenticate_LastLoginFailureTolerated(t *testing.T) {
	account := testAccount(t)
	repo := &mockAccountRepo{
		findByUsernameFn: func(_ context.Context, _ string) (*Account, error) {
			return account, nil
		},
		updateLastLoginFn: func(_ context.Context, _ string) error {
			return errors.New("deadlock")
		},
	}

	source := NewLocalSource(repo)
	user, err := source.Authenticate(context.Background(), "admin", "correct-horse")
	if err != nil {
		t.Fatalf("last login failure must not fail the login: %v", err)
	}
	if user == nil {
		t.Fatal("expected a user record")
	}
}

func TestEnsureDemoAccounts_SeedsEmptyTable(t *testing.T) {
	var created []*Account
	repo := &mockAccountRepo{
		countFn: func(_ context.Context) (int, error) { return 0, nil },
		createFn: func(_ context.Context, account *Account) error {
			created = append(created, account)
			return nil
		},
	}

	if err := EnsureDemoAccounts(context.Background(), repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 seeded accounts, got %d", len(created))
	}
	if created[0].Username != "admin" || created[0].Role != token.RoleAdmin {
		t.Fatalf("unexpected first seed: %+v", created[0])
	}
	if created[1].Username != "manager" || created[1].Role != token.RoleManager {
		t.Fatalf("unexpected second seed: %+v", created[1])
	}

	// Hashes are bcrypt and verify against the documented demo passwords.
	if bcrypt.CompareHashAndPassword([]byte(created[0].PasswordHash), []byte("admin123")) != nil {
		t.Fatal("admin seed hash does not verify against admin123")
	}
	if bcrypt.CompareHashAndPassword([]byte(created[1].PasswordHash), []byte("manager123")) != nil {
		t.Fatal("manager seed hash does not verify against manager123")
	}
}

func TestEnsureDemoAccounts_SkipsNonEmptyTable(t *testing.T) {
	repo := &mockAccountRepo{
		countFn: func(_ context.Context) (int, error) { return 5, nil },
		createFn: func(_ context.Context, _ *Account) error {
			t.Fatal("must not seed a non-empty table")
			return nil
		},
	}

	if err := EnsureDemoAccounts(context.Background(), repo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
