package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/token"
)

// ErrSuperseded is returned by Login when a newer login attempt started
// before this one finished. The stale result is discarded and must not be
// committed to the session.
var ErrSuperseded = errors.New("login superseded by a newer attempt")

// CredentialSource checks a username/password pair and returns the user it
// identifies. Implementations exist for the local account table and the
// upstream REST backend. A mismatch must come back as a 401 apperror with
// a message that does not reveal which of the two fields was wrong.
type CredentialSource interface {
	Authenticate(ctx context.Context, username, password string) (*UserRecord, error)
}

// LogoutNotifier tells the upstream backend a session ended. Notification
// is best-effort: failures are logged, never surfaced, and never prevent
// the client-side logout from completing.
type LogoutNotifier interface {
	NotifyLogout(ctx context.Context) error
}

// Manager holds the session machinery shared by all requests: the token
// codec, the cookie store, and the credential source. It creates one
// Context per request; nothing else writes the cookie pair.
type Manager struct {
	codec    *token.Codec
	store    *CookieStore
	creds    CredentialSource
	notifier LogoutNotifier
}

// NewManager creates a session manager. notifier may be nil when there is
// no upstream to tell about logouts.
func NewManager(codec *token.Codec, store *CookieStore, creds CredentialSource, notifier LogoutNotifier) *Manager {
	return &Manager{
		codec:    codec,
		store:    store,
		creds:    creds,
		notifier: notifier,
	}
}

// Begin creates the session context for one request. The context starts
// Unknown; callers Hydrate it before consulting the state.
func (m *Manager) Begin(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{m: m, w: w, r: r, state: Unknown()}
}

// Context is the explicitly owned session object for a single principal.
// It is the state machine over {Unknown, Authenticating, Authenticated,
// Anonymous} and the only writer of the cookie pair during its lifetime.
// State transitions are applied atomically with respect to observers: a
// reader never sees a half-updated user/phase pair.
type Context struct {
	m *Manager
	w http.ResponseWriter
	r *http.Request

	mu    sync.Mutex
	state State
	tok   string

	// loginSeq orders overlapping login attempts. Only the most recently
	// initiated attempt may commit; earlier in-flight attempts discard
	// their results when they observe a newer sequence number.
	loginSeq atomic.Uint64
}

// State returns the current snapshot.
func (sc *Context) State() State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// Token returns the serialized session token, or "" when anonymous.
func (sc *Context) Token() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.tok
}

// Hydrate resolves an Unknown context from the cookie store. A present,
// decodable pair yields Authenticated with the stored user snapshot; an
// absent pair, a half-written pair, or a token that fails to decode yields
// Anonymous with the remnants cleared. Decode failure is recovered
// silently -- it is not an error on normal navigation.
func (sc *Context) Hydrate() State {
	tok, user, ok := sc.m.store.Read(sc.w, sc.r)
	if !ok {
		return sc.setState(Anonymous(), "")
	}

	if _, err := sc.m.codec.Decode(tok); err != nil {
		sc.m.store.Clear(sc.w, sc.r)
		return sc.setState(Anonymous(), "")
	}

	return sc.setState(Authenticated(user), tok)
}

// Login exchanges credentials for a session. On success it encodes a fresh
// token, persists the cookie pair, and resolves Authenticated. On a
// credential mismatch it resolves Anonymous and returns the source's
// generic 401. If a newer login started while this one was in flight, the
// result is discarded and ErrSuperseded is returned.
func (sc *Context) Login(ctx context.Context, username, password string) (State, error) {
	seq := sc.loginSeq.Add(1)
	sc.setState(Authenticating(), "")

	user, err := sc.m.creds.Authenticate(ctx, username, password)

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.loginSeq.Load() != seq {
		return sc.state, ErrSuperseded
	}

	if err != nil {
		sc.state = Anonymous()
		sc.tok = ""
		return sc.state, err
	}

	tok := sc.m.codec.Encode(payloadFor(user))
	if werr := sc.m.store.Write(sc.w, sc.r, tok, user); werr != nil {
		sc.state = Anonymous()
		sc.tok = ""
		return sc.state, apperror.NewInternal(werr)
	}

	sc.state = Authenticated(user)
	sc.tok = tok

	slog.Info("session established",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return sc.state, nil
}

// Logout tears the session down. The upstream is notified best-effort; a
// notification failure is logged and ignored because logout must always
// succeed client-side. The cookie pair is cleared unconditionally.
func (sc *Context) Logout(ctx context.Context) State {
	if sc.m.notifier != nil {
		if err := sc.m.notifier.NotifyLogout(ctx); err != nil {
			slog.Warn("logout notification failed", slog.Any("error", err))
		}
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.m.store.Clear(sc.w, sc.r)
	sc.state = Anonymous()
	sc.tok = ""
	return sc.state
}

// Refresh re-encodes the current token with fresh issued/expiry stamps and
// re-persists the pair, extending the session without re-authenticating.
// It is a silent no-op when there is no valid session to extend.
func (sc *Context) Refresh() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.tok == "" || sc.state.User() == nil {
		return
	}

	payload, err := sc.m.codec.Decode(sc.tok)
	if err != nil {
		return
	}

	fresh := sc.m.codec.Encode(payload)
	if err := sc.m.store.Write(sc.w, sc.r, fresh, sc.state.User()); err != nil {
		slog.Warn("session refresh write failed", slog.Any("error", err))
		return
	}
	sc.tok = fresh
}

// Invalidate handles an upstream 401: the session is gone server-side, so
// drop it client-side too. Returns true if this call performed the clear.
// Parallel 401s from overlapping requests observe Anonymous and no-op, so
// the pair is cleared exactly once.
func (sc *Context) Invalidate() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if !sc.state.IsAuthenticated() {
		return false
	}

	sc.m.store.Clear(sc.w, sc.r)
	sc.state = Anonymous()
	sc.tok = ""
	return true
}

// setState commits a snapshot and token under the lock and returns it.
func (sc *Context) setState(s State, tok string) State {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.state = s
	sc.tok = tok
	return s
}

// payloadFor builds the token payload identifying the given user. The
// codec stamps issue and expiry times at encode.
func payloadFor(u *UserRecord) token.Payload {
	return token.Payload{
		SubjectID: u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
	}
}
