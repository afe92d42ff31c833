package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jvanhorsen/Twixie/internal/db"
)

func newUsers(t *testing.T) *Users {
	t.Helper()
	conn, err := db.OpenAndMigrate(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewUsers(conn).WithCost(bcrypt.MinCost)
}

func TestCreateAndAuthenticate(t *testing.T) {
	users := newUsers(t)
	ctx := context.Background()

	u, err := users.Create(ctx, "  ada_l ", "correct horse")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Username != "ada_l" || u.ID == "" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := users.Create(ctx, "ADA_L", "another pass"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := users.Create(ctx, "x", "correct horse"); err == nil {
		t.Fatalf("short username accepted")
	}
	if _, err := users.Create(ctx, "bobby", "short"); err == nil {
		t.Fatalf("short password accepted")
	}

	got, err := users.Authenticate(ctx, "Ada_L", "correct horse")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate = %+v, %v", got, err)
	}
	if _, err := users.Authenticate(ctx, "ada_l", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	tok, exp, err := tokens.Sign("id1", "ada")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	p, err := tokens.Parse(tok)
	if err != nil || p.ID != "id1" || p.Username != "ada" {
		t.Fatalf("Parse = %+v, %v", p, err)
	}
	if _, err := NewTokens("other", time.Hour).Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.Sign("id1", "ada")
	if _, err := tokens.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	users := newUsers(t)
	u, err := users.Create(context.Background(), "ada", "correct horse")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tokens := NewTokens("secret", time.Hour)
	mw := NewMiddleware(tokens, users, "tok", false)
	tok, _, _ := tokens.Sign(u.ID, u.Username)

	var seen *Principal
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	mw.Require(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Require without token: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "tok", Value: tok})
	mw.Require(h).ServeHTTP(httptest.NewRecorder(), req)
	if seen == nil || seen.ID != u.ID {
		t.Fatalf("principal = %+v", seen)
	}
	if id, ok := seen.UserID(); !ok || id != u.ID {
		t.Fatalf("UserID = %q, %v", id, ok)
	}

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	mw.Optional(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != nil {
		t.Fatalf("Optional with bad token: %d, %+v", rec.Code, seen)
	}
	if _, ok := seen.UserID(); ok {
		t.Fatalf("nil principal must be anonymous")
	}
}
