package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/keyxmakerx/steward/internal/token"
)

// Cookie keys for the persisted session pair. Fixed names shared with
// every deployment of the console.
const (
	TokenCookie = "admin_token"
	UserCookie  = "admin_user"
)

// cookieMaxAge matches the token lifetime so the browser drops the pair
// around the same time the token stops decoding.
const cookieMaxAge = int(token.TTL / time.Second)

// CookieStore persists the session pair: the serialized token under
// TokenCookie and a base64-encoded JSON snapshot of the user under
// UserCookie. The pair is written together and cleared together; a read
// that observes only half of it treats the whole pair as absent and
// removes the remnant.
type CookieStore struct{}

// NewCookieStore creates a cookie-backed session store.
func NewCookieStore() *CookieStore {
	return &CookieStore{}
}

// Read returns the persisted token and user snapshot. ok is false when
// either entry is missing or the snapshot does not parse; in that case any
// surviving half is cleared so no partial pair persists.
func (s *CookieStore) Read(w http.ResponseWriter, r *http.Request) (tok string, user *UserRecord, ok bool) {
	tok = cookieValue(r, TokenCookie)
	rawUser := cookieValue(r, UserCookie)

	if tok == "" || rawUser == "" {
		if tok != "" || rawUser != "" {
			s.Clear(w, r)
		}
		return "", nil, false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(rawUser)
	if err != nil {
		s.Clear(w, r)
		return "", nil, false
	}

	var u UserRecord
	if err := json.Unmarshal(decoded, &u); err != nil {
		s.Clear(w, r)
		return "", nil, false
	}

	return tok, &u, true
}

// Write persists both entries of the session pair on the response. The
// user snapshot is base64-encoded so the JSON survives cookie value rules.
func (s *CookieStore) Write(w http.ResponseWriter, r *http.Request, tok string, user *UserRecord) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshaling user snapshot: %w", err)
	}

	secure := isSecure(r)
	setCookie(w, TokenCookie, tok, cookieMaxAge, secure)
	setCookie(w, UserCookie, base64.RawURLEncoding.EncodeToString(raw), cookieMaxAge, secure)
	return nil
}

// Clear removes both entries of the session pair.
func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) {
	secure := isSecure(r)
	setCookie(w, TokenCookie, "", -1, secure)
	setCookie(w, UserCookie, "", -1, secure)
}

// cookieValue reads a cookie value, returning "" when absent.
func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c == nil {
		return ""
	}
	return c.Value
}

// setCookie writes one session cookie. HttpOnly keeps scripts away from
// the pair; SameSite=Strict keeps it off cross-site requests entirely.
func setCookie(w http.ResponseWriter, name, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// isSecure reports whether the request arrived over TLS, directly or via
// a terminating reverse proxy.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
