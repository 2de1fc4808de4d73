package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginAndResolve(t *testing.T) {
	m := NewManager(time.Hour)
	token, err := m.Login("Alice@Example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if owner := m.Resolve(token); owner != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", owner)
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	m := NewManager(time.Hour)
	for _, email := range []string{"", "not-an-email", "a@", "@b.com"} {
		if _, err := m.Login(email); err == nil {
			t.Fatalf("expected error for %q", email)
		}
	}
}

func TestResolveUnknownToken(t *testing.T) {
	m := NewManager(time.Hour)
	if owner := m.Resolve("bogus"); owner != "" {
		t.Fatalf("unknown token resolved to %q", owner)
	}
	if owner := m.Resolve(""); owner != "" {
		t.Fatalf("empty token resolved to %q", owner)
	}
}

func TestSessionExpiry(t *testing.T) {
	m := NewManager(time.Millisecond)
	token, err := m.Login("alice@example.com")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if owner := m.Resolve(token); owner != "" {
		t.Fatalf("expired session resolved to %q", owner)
	}
}

func TestLogout(t *testing.T) {
	m := NewManager(time.Hour)
	token, _ := m.Login("alice@example.com")
	m.Logout(token)
	if owner := m.Resolve(token); owner != "" {
		t.Fatalf("logged out session resolved to %q", owner)
	}
	m.Logout("never-issued")
}

func TestMiddlewareResolvesOwner(t *testing.T) {
	m := NewManager(time.Hour)
	token, _ := m.Login("alice@example.com")

	var got string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = OwnerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != "alice@example.com" {
		t.Fatalf("expected resolved owner, got %q", got)
	}

	got = "sentinel"
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "" {
		t.Fatalf("expected anonymous owner, got %q", got)
	}
}
