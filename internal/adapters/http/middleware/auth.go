package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"dietwithdee/internal/domain/account"
)

type sessionKey struct{}

// Session lifetimes. A session ends at whichever limit comes first.
const (
	SessionTTL         = 24 * time.Hour
	SessionIdleTimeout = 2 * time.Hour
)

// SessionCookieName is the admin session cookie.
const SessionCookieName = "dietwithdee_session"

// SecureCookies marks session and visitor cookies Secure. Set in production.
var SecureCookies bool

// Session is a signed-in admin.
type Session struct {
	AccountID string
	Email     string
	Role      string
	CreatedAt time.Time
	LastSeen  time.Time
}

func (s Session) expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > SessionTTL || now.Sub(s.LastSeen) > SessionIdleTimeout
}

// SessionStore keeps admin sessions in memory, keyed by an opaque token.
// Restarting the server signs everyone out.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create starts a session and returns its token.
// POST: token is 64 hex characters
func (ss *SessionStore) Create(accountID, email, role string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.now()
	ss.sessions[token] = Session{
		AccountID: accountID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		LastSeen:  now,
	}
	return token, nil
}

// Get returns a live session and refreshes its idle timer. Expired
// sessions are dropped on sight.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sess, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := ss.now()
	if sess.expired(now) {
		delete(ss.sessions, token)
		return Session{}, false
	}
	sess.LastSeen = now
	ss.sessions[token] = sess
	return sess, true
}

func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// RevokeAccount ends every session of accountID except keep. It returns
// how many were removed.
func (ss *SessionStore) RevokeAccount(accountID, keep string) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for token, sess := range ss.sessions {
		if sess.AccountID == accountID && token != keep {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// Sweep drops expired sessions and reports how many remain.
func (ss *SessionStore) Sweep() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.now()
	for token, sess := range ss.sessions {
		if sess.expired(now) {
			delete(ss.sessions, token)
		}
	}
	return len(ss.sessions)
}

// Auth attaches the cookie's session to the request context. It never
// rejects a request; admin handlers check the role themselves.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
				if sess, ok := sessions.Get(c.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetSessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}

func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// IsAdmin reports whether the request carries an admin session.
func IsAdmin(ctx context.Context) bool {
	sess, ok := GetSessionFromContext(ctx)
	return ok && sess.Role == account.RoleAdmin
}

// SetSessionCookie issues the session cookie. maxAge follows SessionTTL.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, sessionCookie(token, int(SessionTTL/time.Second)))
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie("", -1))
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
