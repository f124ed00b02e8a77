package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/token"
)

// mockCreds implements CredentialSource with a function field.
type mockCreds struct {
	authenticateFn func(ctx context.Context, username, password string) (*UserRecord, error)
}

func (m *mockCreds) Authenticate(ctx context.Context, username, password string) (*UserRecord, error) {
	return m.authenticateFn(ctx, username, password)
}

// mockNotifier implements LogoutNotifier with a function field.
type mockNotifier struct {
	notifyFn func(ctx context.Context) error
}

func (m *mockNotifier) NotifyLogout(ctx context.Context) error {
	return m.notifyFn(ctx)
}

func newTestManager(creds CredentialSource, notifier LogoutNotifier) *Manager {
	return NewManager(token.NewCodec("test-secret"), NewCookieStore(), creds, notifier)
}

func beginContext(m *Manager) (*Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return m.Begin(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil)), rec
}

func TestContext_HydrateAbsentPair(t *testing.T) {
	m := newTestManager(nil, nil)
	sc, _ := beginContext(m)

	st := sc.Hydrate()
	if st.Phase() != PhaseAnonymous || st.IsAuthenticated() {
		t.Fatalf("expected anonymous, got %v", st.Phase())
	}
}

func TestContext_HydrateValidPair(t *testing.T) {
	m := newTestManager(nil, nil)

	// Establish a session, then carry the cookies onto a second request.
	login, loginRec := beginContext(m)
	creds := &mockCreds{authenticateFn: func(context.Context, string, string) (*UserRecord, error) {
		return testUser(), nil
	}}
	m.creds = creds
	if _, err := login.Login(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	sc := m.Begin(httptest.NewRecorder(), carryCookies(t, loginRec))
	st := sc.Hydrate()

	if !st.IsAuthenticated() {
		t.Fatal("expected authenticated after hydrating a valid pair")
	}
	if st.User().Username != "admin" {
		t.Fatalf("unexpected user: %+v", st.User())
	}
	if sc.Token() == "" {
		t.Fatal("expected the hydrated token to be retained")
	}
}

func TestContext_HydrateUndecodableToken(t *testing.T) {
	m := newTestManager(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "not.a-token"})
	req.AddCookie(&http.Cookie{Name: UserCookie, Value: "e30"}) // base64url of {}
	rec := httptest.NewRecorder()

	sc := m.Begin(rec, req)
	st := sc.Hydrate()

	// Decode failure resolves anonymous, silently, and clears the remnants.
	if st.Phase() != PhaseAnonymous {
		t.Fatalf("expected anonymous, got %v", st.Phase())
	}
	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both pair entries cleared, got %d", cleared)
	}
}

func TestContext_LoginSuccess(t *testing.T) {
	creds := &mockCreds{authenticateFn: func(_ context.Context, username, password string) (*UserRecord, error) {
		if username != "admin" || password != "admin123" {
			return nil, apperror.NewUnauthorized("invalid username or password")
		}
		return testUser(), nil
	}}
	m := newTestManager(creds, nil)
	sc, rec := beginContext(m)

	st, err := sc.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !st.IsAuthenticated() || st.Phase() != PhaseAuthenticated {
		t.Fatalf("expected authenticated state, got %+v", st)
	}

	// The issued token decodes under the manager's codec.
	payload, err := token.NewCodec("test-secret").Decode(sc.Token())
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if payload.SubjectID != "u-1" || payload.Role != token.RoleAdmin {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	// Both pair entries were written.
	if got := len(rec.Result().Cookies()); got != 2 {
		t.Fatalf("expected 2 cookies written, got %d", got)
	}
}

func TestContext_LoginFailure(t *testing.T) {
	creds := &mockCreds{authenticateFn: func(context.Context, string, string) (*UserRecord, error) {
		return nil, apperror.NewUnauthorized("invalid username or password")
	}}
	m := newTestManager(creds, nil)
	sc, rec := beginContext(m)

	st, err := sc.Login(context.Background(), "admin", "wrong")
	if err == nil {
		t.Fatal("expected an error")
	}
	if st.Phase() != PhaseAnonymous || st.IsAuthenticated() {
		t.Fatalf("expected anonymous after failed login, got %v", st.Phase())
	}
	if sc.Token() != "" {
		t.Fatal("no token may survive a failed login")
	}
	if got := len(rec.Result().Cookies()); got != 0 {
		t.Fatalf("failed login must not touch the store, wrote %d cookies", got)
	}
}

func TestContext_SupersededLoginDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})

	first := testUser()
	second := &UserRecord{ID: "u-2", Username: "manager", Email: "manager@example.com", Role: token.RoleManager}

	creds := &mockCreds{authenticateFn: func(_ context.Context, username, _ string) (*UserRecord, error) {
		if username == "admin" {
			close(firstStarted)
			<-releaseFirst
			return first, nil
		}
		return second, nil
	}}
	m := newTestManager(creds, nil)
	sc, _ := beginContext(m)

	firstResult := make(chan error, 1)
	go func() {
		_, err := sc.Login(context.Background(), "admin", "admin123")
		firstResult <- err
	}()
	<-firstStarted

	// A newer attempt starts and completes while the first is in flight.
	st, err := sc.Login(context.Background(), "manager", "manager123")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if st.User().ID != "u-2" {
		t.Fatalf("expected second login's user, got %+v", st.User())
	}

	// The stale first attempt must be discarded.
	close(releaseFirst)
	if err := <-firstResult; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	// The newer session survives.
	if got := sc.State().User().ID; got != "u-2" {
		t.Fatalf("superseded login overwrote the session: user %q", got)
	}
}

func TestContext_LogoutClearsAndToleratesNotifyFailure(t *testing.T) {
	notified := false
	notifier := &mockNotifier{notifyFn: func(context.Context) error {
		notified = true
		return errors.New("upstream down")
	}}
	creds := &mockCreds{authenticateFn: func(context.Context, string, string) (*UserRecord, error) {
		return testUser(), nil
	}}
	m := newTestManager(creds, notifier)
	sc, rec := beginContext(m)

	if _, err := sc.Login(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	st := sc.Logout(context.Background())
	if !notified {
		t.Fatal("expected the upstream to be notified")
	}
	if st.Phase() != PhaseAnonymous {
		t.Fatalf("expected anonymous after logout, got %v", st.Phase())
	}
	if sc.Token() != "" {
		t.Fatal("no token may survive logout")
	}

	// The last Set-Cookie writes expire the pair.
	expired := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired[c.Name] = true
		}
	}
	if !expired[TokenCookie] || !expired[UserCookie] {
		t.Fatalf("expected the pair expired, got %v", expired)
	}
}

func TestContext_RefreshNoOpWhenAnonymous(t *testing.T) {
	m := newTestManager(nil, nil)
	sc, rec := beginContext(m)
	sc.Hydrate()

	sc.Refresh()

	if sc.Token() != "" {
		t.Fatal("refresh must not mint a token for an anonymous session")
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge > 0 {
			t.Fatalf("refresh wrote a cookie for an anonymous session: %s", c.Name)
		}
	}
}

func TestContext_RefreshRewritesValidSession(t *testing.T) {
	creds := &mockCreds{authenticateFn: func(context.Context, string, string) (*UserRecord, error) {
		return testUser(), nil
	}}
	m := newTestManager(creds, nil)
	sc, rec := beginContext(m)

	if _, err := sc.Login(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	writesAfterLogin := len(rec.Result().Cookies())

	sc.Refresh()

	if sc.Token() == "" {
		t.Fatal("expected a token after refresh")
	}
	if _, err := token.NewCodec("test-secret").Decode(sc.Token()); err != nil {
		t.Fatalf("refreshed token does not decode: %v", err)
	}
	if got := len(rec.Result().Cookies()); got <= writesAfterLogin {
		t.Fatalf("expected refresh to re-persist the pair, cookie writes %d -> %d", writesAfterLogin, got)
	}
	if !sc.State().IsAuthenticated() {
		t.Fatal("refresh must keep the session authenticated")
	}
}

func TestContext_InvalidateExactlyOnce(t *testing.T) {
	creds := &mockCreds{authenticateFn: func(context.Context, string, string) (*UserRecord, error) {
		return testUser(), nil
	}}
	m := newTestManager(creds, nil)
	sc, _ := beginContext(m)

	if _, err := sc.Login(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if !sc.Invalidate() {
		t.Fatal("first invalidation must perform the clear")
	}
	if sc.State().Phase() != PhaseAnonymous {
		t.Fatal("expected anonymous after invalidation")
	}

	// A second 401 arriving in parallel observes anonymous and no-ops.
	if sc.Invalidate() {
		t.Fatal("second invalidation must be a no-op")
	}
}

func TestContext_InvalidateWithoutSession(t *testing.T) {
	m := newTestManager(nil, nil)
	sc, _ := beginContext(m)
	sc.Hydrate()

	if sc.Invalidate() {
		t.Fatal("invalidating an anonymous session must be a no-op")
	}
}
