package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/keyxmakerx/steward/internal/token"
)

func testUser() *UserRecord {
	return &UserRecord{
		ID:        "u-1",
		Username:  "admin",
		Email:     "admin@example.com",
		Role:      token.RoleAdmin,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// carryCookies copies the Set-Cookie output of a response onto a fresh
// request, the way a browser would on the next navigation.
func carryCookies(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 && c.Value != "" {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return req
}

func TestCookieStore_WriteReadRoundtrip(t *testing.T) {
	store := NewCookieStore()

	rec := httptest.NewRecorder()
	if err := store.Write(rec, httptest.NewRequest(http.MethodPost, "/login", nil), "tok-123", testUser()); err != nil {
		t.Fatalf("write: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected both pair entries to be set, got %d cookies", len(cookies))
	}
	for _, c := range cookies {
		if !c.HttpOnly {
			t.Errorf("cookie %s must be HttpOnly", c.Name)
		}
		if c.SameSite != http.SameSiteStrictMode {
			t.Errorf("cookie %s must be SameSite=Strict", c.Name)
		}
	}

	tok, user, ok := store.Read(httptest.NewRecorder(), carryCookies(t, rec))
	if !ok {
		t.Fatal("expected a readable pair")
	}
	if tok != "tok-123" {
		t.Fatalf("expected token tok-123, got %q", tok)
	}
	if user.ID != "u-1" || user.Username != "admin" || user.Role != token.RoleAdmin {
		t.Fatalf("unexpected user snapshot: %+v", user)
	}
}

func TestCookieStore_AbsentPair(t *testing.T) {
	store := NewCookieStore()

	_, _, ok := store.Read(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if ok {
		t.Fatal("expected no pair on a bare request")
	}
}

func TestCookieStore_HalfPairTreatedAbsentAndCleared(t *testing.T) {
	store := NewCookieStore()

	for _, present := range []string{TokenCookie, UserCookie} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: present, Value: "orphan"})
		rec := httptest.NewRecorder()

		_, _, ok := store.Read(rec, req)
		if ok {
			t.Fatalf("half pair (%s only) must read as absent", present)
		}

		// The surviving half is actively removed.
		cleared := map[string]bool{}
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge < 0 {
				cleared[c.Name] = true
			}
		}
		if !cleared[TokenCookie] || !cleared[UserCookie] {
			t.Fatalf("half pair (%s only): expected both entries cleared, got %v", present, cleared)
		}
	}
}

func TestCookieStore_CorruptSnapshotCleared(t *testing.T) {
	store := NewCookieStore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "tok-123"})
	req.AddCookie(&http.Cookie{Name: UserCookie, Value: "%%%not-base64%%%"})
	rec := httptest.NewRecorder()

	if _, _, ok := store.Read(rec, req); ok {
		t.Fatal("corrupt snapshot must read as absent")
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatal("expected the corrupt pair to be cleared")
	}
}

func TestCookieStore_ClearRemovesBoth(t *testing.T) {
	store := NewCookieStore()
	rec := httptest.NewRecorder()

	store.Clear(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected both entries cleared, got %d cookies", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s not expired: MaxAge=%d", c.Name, c.MaxAge)
		}
	}
}

func TestCookieStore_SecureBehindProxy(t *testing.T) {
	store := NewCookieStore()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()

	if err := store.Write(rec, req, "tok-123", testUser()); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if !c.Secure {
			t.Errorf("cookie %s must be Secure behind a TLS-terminating proxy", c.Name)
		}
	}
}
