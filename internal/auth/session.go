// Package auth resolves the owner identity for each request.
//
// Authenticated users carry an opaque session cookie mapped to their email
// in an in-process session table. Requests without a valid session fall back
// to the anonymous local scope; nothing here ever rejects a request.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "fintrack_session"

// DefaultTTL is how long a session stays valid without renewal.
const DefaultTTL = 7 * 24 * time.Hour

type contextKey string

const ownerContextKey contextKey = "owner"

type session struct {
	owner     string
	expiresAt time.Time
}

// Manager issues and resolves session tokens.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]session
	ttl      time.Duration
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]session),
		ttl:      ttl,
	}
}

// Login validates the email and issues a session token for it.
func (m *Manager) Login(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessions[token] = session{owner: email, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()

	return token, nil
}

// Resolve returns the owner for a token, or "" when the token is unknown or
// expired. Expired sessions are removed on sight.
func (m *Manager) Resolve(token string) string {
	if token == "" {
		return ""
	}

	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return ""
	}
	if time.Now().After(s.expiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return ""
	}
	return s.owner
}

// Logout invalidates a token. Unknown tokens are a no-op.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Middleware resolves the session cookie into an owner on the request
// context. Requests without a session pass through with an empty owner.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := ""
		if c, err := r.Cookie(SessionCookie); err == nil {
			owner = m.Resolve(c.Value)
		}
		ctx := context.WithValue(r.Context(), ownerContextKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerFromContext returns the resolved owner email, or "" for the anonymous
// scope.
func OwnerFromContext(ctx context.Context) string {
	if owner, ok := ctx.Value(ownerContextKey).(string); ok {
		return owner
	}
	return ""
}

// SetSessionCookie writes the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
